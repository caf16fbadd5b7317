package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/musiccat/musiccat-rpc/internal/config"
	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
	"github.com/musiccat/musiccat-rpc/internal/wizard"
)

var (
	configInitDefaults bool
	configInitForce    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing musiccat-rpc configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including environment overrides.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a new configuration file. In a terminal you are asked for the
common settings; otherwise (or with --defaults) the defaults are written.`,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. The file is validated before it is saved.

Supported keys:
  ` + strings.Join(config.Keys(), "\n  ") + `

Examples:
  musiccat-rpc config set feed.url wss://example.com/tracker-websocket
  musiccat-rpc config set mpris.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitDefaults, "defaults", false, "write defaults without prompting")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if JSONOutput() {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}
	return config.Encode(out, cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if JSONOutput() {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"path":   path,
			"exists": exists,
		})
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
	if !exists && Verbose() {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "(file does not exist yet)")
	}
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", apperrors.ErrConfigNotFound, configPath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return apperrors.WithSuggestion(
			fmt.Errorf("config file already exists at %s", configPath),
			"Use --force to overwrite it, or 'musiccat-rpc config set' to change one value")
	}

	newCfg := config.Default()
	if wizard.CanInteract(!configInitDefaults && !JSONOutput()) {
		if err := wizard.RunConfig(newCfg); err != nil {
			return err
		}
	}
	if err := newCfg.Validate(); err != nil {
		return err
	}

	if err := config.Write(configPath, newCfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return json.NewEncoder(out).Encode(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}
	_, _ = fmt.Fprintf(out, "Created config file: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Start the Discord desktop app")
	_, _ = fmt.Fprintln(out, "  2. Run 'musiccat-rpc run' (or 'musiccat-rpc ui' for a dashboard)")
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if err := config.Set(getConfigPath(), key, value); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return json.NewEncoder(out).Encode(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	_, _ = fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.Path()
}
