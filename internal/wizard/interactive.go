// Package wizard holds the interactive prompts used by the CLI.
package wizard

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal returns true if both stdin and stdout are terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if prompts are allowed and can be shown.
func CanInteract(enabled bool) bool {
	return enabled && IsTerminal()
}
