package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glinthq/glint/internal/engine"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range engine.Languages() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available color themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range engine.Themes() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(themesCmd)
}
