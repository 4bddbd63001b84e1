package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xih/designer-search-sub000/pkg/cli"
	"github.com/xih/designer-search-sub000/pkg/kitten"
	"github.com/xih/designer-search-sub000/pkg/kitten/httpapi"
)

const (
	shutdownTimeout = 10 * time.Second

	initRetryBase = time.Second
	initRetryMax  = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the synthesis HTTP and WebSocket API",
	Long: `Serve the engine over HTTP.

The listener starts right away; /healthz reports 503 until the engine has
loaded. A failed load is retried with exponential backoff up to 30s.
Requests are logged at debug level (-v).

Routes:
  GET  /healthz
  GET  /v1/voices
  POST /v1/synthesize  {"text": "...", "voice": "...", "speed": 1.0, "sample_rate": 24000}
  GET  /v1/ws          one JSON request per text frame, one WAV per binary frame

Examples:
  kittentts serve --listen :8080
  kittentts serve --log-file ~/.config/kittentts/logs/serve.log -v`,
	RunE: runServe,
}

var serveFlags struct {
	listen  string
	logFile string
	maxText int
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.listen, "listen", "", "listen address (default from context, else "+DefaultListen+")")
	f.StringVar(&serveFlags.logFile, "log-file", "", "write JSON logs to a rotated file instead of stderr")
	f.IntVar(&serveFlags.maxText, "max-text", httpapi.DefaultMaxTextLength, "largest accepted text, in bytes")
}

// newLogFile returns a size-rotated log file writer.
func newLogFile(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
}

// initWithRetry calls load until it succeeds, backing off exponentially
// from base up to limit between attempts. It gives up when ctx is done or
// the engine has been closed.
func initWithRetry(ctx context.Context, load func(context.Context) error, logger *slog.Logger, base, limit time.Duration) error {
	for attempt := 1; ; attempt++ {
		err := load(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, kitten.ErrClosed) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff := base << uint(min(attempt-1, 16))
		if backoff > limit || backoff <= 0 {
			backoff = limit
		}
		logger.Warn("serve: engine init failed, retrying",
			"attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := getSettings()
	if err != nil {
		return err
	}
	if serveFlags.listen != "" {
		s.Listen = serveFlags.listen
	}

	logger := slog.Default()
	if serveFlags.logFile != "" {
		w := newLogFile(serveFlags.logFile)
		defer w.Close()
		logger = newLogger(w, verbose, true)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, s, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              s.Listen,
		Handler:           httpapi.New(a.engine, httpapi.WithLogger(logger), httpapi.WithMaxTextLength(serveFlags.maxText)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		start := time.Now()
		if err := initWithRetry(ctx, a.engine.Init, logger, initRetryBase, initRetryMax); err != nil {
			logger.Error("serve: engine init abandoned", "error", err)
			return
		}
		logger.Info("serve: engine ready",
			"voices", len(a.engine.Voices()),
			"took", cli.FormatDuration(time.Since(start)))
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Info("serve: listening", "addr", s.Listen, "resources", s.Resources)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("serve: shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		fmt.Fprintf(os.Stderr, "serve: shutdown: %v\n", err)
	}
	return nil
}
