package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrDiscordNotRunning = errors.New("discord is not running")
	ErrDiscordRejected   = errors.New("discord rejected the request")
	ErrFeedUnreachable   = errors.New("status feed unreachable")
	ErrNoData            = errors.New("no status received")
	ErrTaskHalted        = errors.New("background task halted")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// AppError wraps an error with a user-friendly suggestion.
type AppError struct {
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &AppError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Suggestion != "" {
		return appErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Discord errors
	if errors.Is(err, ErrDiscordNotRunning) || strings.Contains(errStr, "discord-ipc") {
		return "Start the Discord desktop app, or set discord.enabled = false"
	}
	if errors.Is(err, ErrDiscordRejected) || strings.Contains(errStr, "invalid client id") {
		return "Check discord.app_id in your config"
	}

	// Feed errors
	if errors.Is(err, ErrNoData) {
		return "Nothing was received from the feed. Check that the tracker is running and try a longer --timeout"
	}
	if errors.Is(err, ErrFeedUnreachable) || strings.Contains(errStr, "dial feed") ||
		strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "bad handshake") {
		return "Check feed.url and your internet connection"
	}

	// Background tasks
	if errors.Is(err, ErrTaskHalted) {
		return "Run with --verbose and check the log for the first failure"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) {
		return "Run 'musiccat-rpc config init' to create a configuration file"
	}
	if errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Run 'musiccat-rpc config show' to inspect the effective configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
