package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/pkg/cli"
)

const appName = "kittentts"

var (
	// Global flags
	cfgFile      string
	contextName  string
	outputFormat string
	verbose      bool
	overrides    flagOverrides

	// Global configuration
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "kittentts",
	Short: "On-device text-to-speech with KittenTTS",
	Long: `kittentts - Text-to-speech on the local CPU.

Text is converted to phonemes with espeak-ng, tokenized and run through the
KittenTTS ONNX model. The model, voice table and tokenizer are read from a
directory, an HTTP base URL or an S3 prefix.

Configuration is stored in ~/.config/kittentts/ and supports multiple
contexts, similar to kubectl's context management.

Examples:
  # Point a context at a model directory and check it
  kittentts ctx add local --resources ~/models/kitten-nano
  kittentts init

  # Synthesize to a file, or straight to the speakers
  kittentts synth "Hello from the kitten." -o hello.wav
  kittentts speak --voice expr-voice-3-m "Good morning."

  # Serve the HTTP API
  kittentts serve --listen :8080
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it. SIGINT
// and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.config/kittentts/config.yaml)")
	pf.StringVarP(&contextName, "context", "c", "", "context name to use")
	pf.StringVar(&outputFormat, "format", "", "result format: yaml, json or table")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	overrides.register(pf)

	rootCmd.AddCommand(ctxCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	slog.SetDefault(newLogger(os.Stderr, verbose, false))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s config: %v\n", appName, err)
	}
}

// newLogger builds the process logger: text records on a terminal, JSON
// records for log files.
func newLogger(w io.Writer, verbose, json bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// getConfig returns the global configuration
func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// getSettings resolves the selected context, then applies flag overrides
// and defaults.
func getSettings() (*settings, error) {
	ctx := &cli.Context{}
	if cfg, err := getConfig(); err == nil {
		if ctx, err = cfg.ResolveContext(contextName); err != nil {
			return nil, err
		}
	} else if contextName != "" {
		return nil, err
	}
	paths, err := cli.NewPaths(appName)
	if err != nil {
		return nil, err
	}
	return resolveSettings(ctx, &overrides, paths)
}

// outputResult prints a command result in the --format format.
func outputResult(result any) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.Output(result, cli.OutputOptions{Format: format})
}
