package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/glinthq/glint/internal/engine"
	"github.com/glinthq/glint/internal/highlight"
	"github.com/glinthq/glint/internal/stream"
	"github.com/glinthq/glint/internal/ui/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Highlight input once and print it to stdout",
	Long: `Render reads the whole input, highlights it, and prints ANSI-styled
text to stdout. Use it in pipelines where the interactive viewer can't run:

  cat main.go | glint render -l go
  glint render main.go > /tmp/highlighted.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolP("line-numbers", "n", false, "show line numbers")
	renderCmd.Flags().Bool("force-color", false, "emit color even when stdout is not a terminal")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	fileName := ""
	var input io.Reader = os.Stdin
	if len(args) == 1 {
		fileName = args[0]
		f, err := os.Open(fileName) // #nosec G304 -- user-supplied path is the point
		if err != nil {
			return fmt.Errorf("opening %s: %w", fileName, err)
		}
		defer func() { _ = f.Close() }()
		input = f
	}

	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if forceColor, _ := cmd.Flags().GetBool("force-color"); forceColor {
		// lipgloss consults termenv's cached profile at render time.
		termenv.SetDefaultOutput(termenv.NewOutput(os.Stdout, termenv.WithProfile(termenv.TrueColor)))
	}

	ctx := context.Background()
	eng, err := engine.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading highlight engine: %w", err)
	}

	session := stream.NewSession(eng)
	defer session.Release()

	if err := session.Ensure(ctx, stream.Config{
		Enabled:      true,
		Language:     resolveLanguage(cfg.Language, fileName),
		Theme:        cfg.Theme,
		Replacements: highlight.ColorReplacements(cfg.Replacements),
	}); err != nil {
		return fmt.Errorf("configuring highlighter: %w", err)
	}

	if _, err := session.Apply(ctx, string(data), false); err != nil {
		return fmt.Errorf("highlighting input: %w", err)
	}

	tokens := session.Tokens()
	repl := highlight.ColorReplacements(cfg.Replacements)
	for i := range tokens {
		tokens[i].Style = highlight.ApplyReplacements(tokens[i].Style, repl)
	}

	showNums, _ := cmd.Flags().GetBool("line-numbers")
	rows := render.Document(highlight.SplitLines(tokens), render.Options{
		ShowLineNums: showNums,
		Container:    session.Container(),
	})
	for _, row := range rows {
		fmt.Fprintln(cmd.OutOrStdout(), row)
	}
	return nil
}
