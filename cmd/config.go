package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glinthq/glint/internal/config"
	"github.com/glinthq/glint/internal/engine"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the config file",
}

var configSetThemeCmd = &cobra.Command{
	Use:   "set-theme <theme>",
	Short: "Set the default color theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		theme := strings.ToLower(args[0])
		if !themeExists(theme) {
			return fmt.Errorf("unknown theme %q; see 'glint themes'", args[0])
		}

		path, err := configFilePath()
		if err != nil {
			return err
		}
		if err := config.SaveTheme(path, theme); err != nil {
			return fmt.Errorf("saving theme: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s in %s\n", theme, path)
		return nil
	},
}

var configSetReplacementCmd = &cobra.Command{
	Use:   "set-replacement <from> <to>",
	Short: "Replace a theme color with another wherever it appears",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFilePath()
		if err != nil {
			return err
		}

		// Start from the loaded config so existing mappings survive the
		// rewrite of the replacements key.
		replacements := make(map[string]string, len(cfg.Replacements)+1)
		for from, to := range cfg.Replacements {
			replacements[from] = to
		}
		replacements[strings.ToLower(args[0])] = args[1]

		if err := config.SaveReplacements(path, replacements); err != nil {
			return fmt.Errorf("saving replacements: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s saved to %s\n", args[0], args[1], path)
		return nil
	},
}

func themeExists(name string) bool {
	for _, t := range engine.Themes() {
		if t == name {
			return true
		}
	}
	return false
}

// configFilePath returns the config file the running command loaded, or the
// default user config location when none was found.
func configFilePath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating config: %w", err)
	}
	return filepath.Join(home, ".config", "glint", "config.yaml"), nil
}

func init() {
	configCmd.AddCommand(configSetThemeCmd)
	configCmd.AddCommand(configSetReplacementCmd)
	rootCmd.AddCommand(configCmd)
}
