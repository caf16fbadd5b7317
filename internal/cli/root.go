package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/musiccat/musiccat-rpc/internal/config"
	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
	"github.com/musiccat/musiccat-rpc/internal/logging"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "musiccat-rpc",
	Short: "Show what MusicCat is playing in Discord",
	Long: `MusicCat RPC follows the MusicCat status feed and mirrors the current
track into Discord Rich Presence (and optionally MPRIS).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.musiccatrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	// config subcommands must work before the file exists
	if errors.Is(err, apperrors.ErrConfigNotFound) && cmd.Parent() == configCmd {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// newLogger builds the logger from the config. With quiet set and no log file
// configured, output is discarded unless --verbose is given, so it does not
// interleave with command output.
func newLogger(quiet bool) (*slog.Logger, func() error, error) {
	if quiet && cfg.Log.File == "" && !verbose {
		return logging.New(io.Discard, cfg.Log.Level, cfg.Log.Format), func() error { return nil }, nil
	}
	w, closeFn, err := logging.Open(cfg.Log.File)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(w, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	return log, closeFn, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
