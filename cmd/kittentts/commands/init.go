package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xih/designer-search-sub000/pkg/cli"
	"github.com/xih/designer-search-sub000/pkg/kitten"
	"github.com/xih/designer-search-sub000/pkg/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Load the engine and check its resources",
	Long: `Check that the current context can run: the resource files exist,
espeak-ng is installed and the engine initializes.

Examples:
  kittentts init
  kittentts -c bucket init --backend portable`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		r := doctor(cmd.Context(), s, slog.Default())
		fmt.Fprintln(os.Stdout, r.Render())
		if !r.OK() {
			return errors.New("engine is not ready")
		}
		return nil
	},
}

// doctor runs the readiness checks for s.
func doctor(ctx context.Context, s *settings, logger *slog.Logger) cli.Report {
	r := cli.Report{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  "kittentts " + s.Resources,
	}
	if cfg, err := getConfig(); err == nil {
		name := contextName
		if name == "" {
			name = cfg.CurrentContext
		}
		if name == "" {
			name = "(none)"
		}
		r.Checks = append(r.Checks, cli.Check{Name: "config", OK: true, Detail: cfg.Path() + " context " + name})
	}

	fs, err := storage.Open(ctx, s.Resources, s.storageOptions())
	if err != nil {
		r.Checks = append(r.Checks, cli.Check{Name: "resources", Detail: err.Error()})
		return r
	}
	r.Checks = append(r.Checks,
		fileCheck(ctx, fs, "model", s.Model, true),
		fileCheck(ctx, fs, "voices", s.Voices, true),
		fileCheck(ctx, fs, "tokenizer", s.Tokenizer, false),
	)

	espeak := &kitten.Espeak{Binary: s.EspeakBinary, Voice: s.EspeakVoice}
	if err := espeak.Available(); err != nil {
		r.Checks = append(r.Checks, cli.Check{Name: "espeak-ng", Detail: err.Error()})
	} else {
		r.Checks = append(r.Checks, cli.Check{Name: "espeak-ng", OK: true, Detail: "found"})
	}

	a, err := openReadyApp(ctx, s, logger, appOptions{})
	if err != nil {
		r.Checks = append(r.Checks, cli.Check{Name: "engine", Detail: err.Error()})
		return r
	}
	defer a.Close()

	r.Checks = append(r.Checks, cli.Check{
		Name:   "engine",
		OK:     true,
		Detail: fmt.Sprintf("%s, %s backend, %s validator", a.engine.State(), s.Backend, s.Validator.Name()),
	})
	voices := a.engine.Voices()
	r.Checks = append(r.Checks, cli.Check{
		Name:   "voices",
		OK:     len(voices) > 0,
		Detail: fmt.Sprintf("%d loaded, default %s", len(voices), a.engine.DefaultVoice()),
	})

	if a.cache != nil {
		st, err := a.cache.Stats(ctx)
		if err != nil {
			r.Checks = append(r.Checks, cli.Check{Name: "cache", Detail: err.Error()})
		} else {
			r.Checks = append(r.Checks, cli.Check{
				Name:   "cache",
				OK:     true,
				Detail: fmt.Sprintf("%s, %d entries (%s)", s.CacheURL, st.Entries, cli.FormatBytes(st.Bytes)),
			})
		}
	}
	return r
}

// fileCheck reports whether a resource file exists. Optional files pass
// when missing.
func fileCheck(ctx context.Context, fs storage.FileStore, name, path string, required bool) cli.Check {
	ok, err := fs.Exists(ctx, path)
	switch {
	case err != nil:
		return cli.Check{Name: name, Detail: err.Error()}
	case ok:
		return cli.Check{Name: name, OK: true, Detail: path}
	case required:
		return cli.Check{Name: name, Detail: path + " not found"}
	default:
		return cli.Check{Name: name, OK: true, Detail: path + " not found, symbols map to padding"}
	}
}
