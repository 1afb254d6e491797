package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glinthq/glint/internal/config"
	"github.com/glinthq/glint/internal/engine"
	"github.com/glinthq/glint/internal/highlight"
	"github.com/glinthq/glint/internal/log"
	"github.com/glinthq/glint/internal/stream"
	"github.com/glinthq/glint/internal/tracing"
	"github.com/glinthq/glint/internal/ui/viewer"
	"github.com/glinthq/glint/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugMode bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "glint [file]",
	Short: "A streaming syntax highlighter for the terminal",
	Long: `Glint highlights source code in the terminal, incrementally while the
input is still arriving. Pipe a program's output into it, point it at a
file, or follow a file as it changes on disk.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/glint/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"write debug logs to glint-debug.log")
	rootCmd.PersistentFlags().StringP("language", "l", "",
		"lexer to use (default: detected from file name)")
	rootCmd.PersistentFlags().StringP("theme", "t", "",
		"color theme")
	rootCmd.Flags().BoolP("follow", "f", false,
		"re-highlight when the file changes on disk")
	rootCmd.Flags().Bool("no-streaming", false,
		"highlight once after all input is read")
	rootCmd.Flags().BoolP("line-numbers", "n", false,
		"show line numbers")

	_ = viper.BindPFlag("language", rootCmd.PersistentFlags().Lookup("language"))
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("follow", rootCmd.Flags().Lookup("follow"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("theme", defaults.Theme)
	viper.SetDefault("streaming", defaults.Streaming)
	viper.SetDefault("stream.chunk_size", defaults.Stream.ChunkSize)
	viper.SetDefault("stream.chunk_delay", defaults.Stream.ChunkDelay)
	viper.SetDefault("stream.follow_debounce", defaults.Stream.FollowDebounce)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.show_line_numbers", defaults.UI.ShowLineNums)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .glint/config.yaml (current directory)
		// 2. ~/.config/glint/config.yaml (user config)
		if _, err := os.Stat(".glint/config.yaml"); err == nil {
			viper.SetConfigFile(".glint/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "glint"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "glint", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	if debugMode || os.Getenv("GLINT_DEBUG") != "" {
		cleanup, err := log.Init("glint-debug.log")
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		defer cleanup()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fileName := ""
	if len(args) == 1 {
		fileName = args[0]
	}

	if noStreaming, _ := cmd.Flags().GetBool("no-streaming"); noStreaming {
		cfg.Streaming = false
	}
	if lineNums, _ := cmd.Flags().GetBool("line-numbers"); lineNums {
		cfg.UI.ShowLineNums = true
	}
	if cfg.Follow && fileName == "" {
		return fmt.Errorf("--follow requires a file argument")
	}

	language := resolveLanguage(cfg.Language, fileName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := engine.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading highlight engine: %w", err)
	}

	provider, err := newTracingProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	ctrl := stream.New(eng, stream.WithTracer(provider.Tracer()))
	defer ctrl.Dispose()

	if err := ctrl.Configure(ctx, stream.Config{
		Enabled:      true,
		Language:     language,
		Theme:        cfg.Theme,
		Replacements: highlight.ColorReplacements(cfg.Replacements),
	}); err != nil {
		return fmt.Errorf("configuring highlighter: %w", err)
	}

	input, teaInput, err := openInput(fileName)
	if err != nil {
		return err
	}
	if teaInput != nil {
		defer func() { _ = teaInput.Close() }()
	}

	feedErr := make(chan error, 1)
	go func() { feedErr <- feed(ctx, ctrl, input, fileName) }()

	model := viewer.New(ctx, ctrl, viewer.Options{
		FileName:      fileName,
		Language:      language,
		Theme:         cfg.Theme,
		ShowStatusBar: cfg.UI.ShowStatusBar,
		ShowLineNums:  cfg.UI.ShowLineNums,
		ConfigPath:    viper.ConfigFileUsed(),
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if teaInput != nil {
		opts = append(opts, tea.WithInput(teaInput))
	}
	p := tea.NewProgram(model, opts...)

	_, err = p.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	select {
	case ferr := <-feedErr:
		if ferr != nil && ferr != context.Canceled {
			log.ErrorErr(log.CatStream, "Feeder stopped with error", ferr)
		}
	default:
	}
	return nil
}

// resolveLanguage picks the lexer: explicit config or flag wins, then the
// file extension, then plain text.
func resolveLanguage(configured, fileName string) string {
	if configured != "" {
		return configured
	}
	if fileName != "" {
		return engine.DetectLanguage(fileName)
	}
	return ""
}

// newTracingProvider fills in the default trace path before handing the
// config to the tracing subsystem.
func newTracingProvider(tcfg tracing.Config) (*tracing.Provider, error) {
	if tcfg.Enabled && tcfg.Exporter == "file" && tcfg.FilePath == "" {
		tcfg.FilePath = config.DefaultTracesFilePath()
	}
	return tracing.NewProvider(tcfg)
}

// openInput returns the source to highlight and, when the source is stdin,
// a terminal to read key presses from. Without a controlling terminal the
// TUI cannot run; callers should use the render command for plain pipes.
func openInput(fileName string) (io.ReadCloser, *os.File, error) {
	if fileName != "" {
		f, err := os.Open(fileName) // #nosec G304 -- user-supplied path is the point
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", fileName, err)
		}
		return f, nil, nil
	}

	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, nil, fmt.Errorf("stdin is piped but no terminal is available for keys; use 'glint render' for non-interactive output: %w", err)
	}
	return os.Stdin, tty, nil
}

// feed pushes input into the controller. Static files are replayed in
// chunks so the incremental path is exercised; stdin streams as it arrives;
// follow mode re-reads the file after each change.
func feed(ctx context.Context, ctrl *stream.Controller, input io.ReadCloser, fileName string) error {
	defer func() { _ = input.Close() }()

	if cfg.Follow && fileName != "" {
		return feedFollow(ctx, ctrl, fileName)
	}
	if !cfg.Streaming {
		data, err := io.ReadAll(input)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		ctrl.Update(ctx, string(data))
		return nil
	}
	return feedStream(ctx, ctrl, input)
}

// feedStream reads input incrementally, publishing the accumulated text
// after every chunk.
func feedStream(ctx context.Context, ctrl *stream.Controller, input io.Reader) error {
	chunkSize := cfg.Stream.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 64
	}

	var text []byte
	buf := make([]byte, chunkSize)
	for {
		n, err := input.Read(buf)
		if n > 0 {
			text = append(text, buf[:n]...)
			ctrl.Update(ctx, string(text))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if cfg.Stream.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Stream.ChunkDelay):
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// feedFollow emits the file's contents now and again after every change.
func feedFollow(ctx context.Context, ctrl *stream.Controller, fileName string) error {
	data, err := os.ReadFile(fileName) // #nosec G304 -- user-supplied path is the point
	if err != nil {
		return fmt.Errorf("reading %s: %w", fileName, err)
	}
	ctrl.Update(ctx, string(data))

	follower, err := watcher.New(watcher.Config{
		Path:        fileName,
		DebounceDur: cfg.Stream.FollowDebounce,
	})
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = follower.Stop() }()

	changes, err := follower.Start()
	if err != nil {
		return fmt.Errorf("watching %s: %w", fileName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text := <-changes:
			ctrl.Update(ctx, text)
		}
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
