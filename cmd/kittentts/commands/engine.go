package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xih/designer-search-sub000/pkg/audio/pcm"
	"github.com/xih/designer-search-sub000/pkg/audio/playback"
	"github.com/xih/designer-search-sub000/pkg/kitten"
	"github.com/xih/designer-search-sub000/pkg/kitten/ortmodel"
	"github.com/xih/designer-search-sub000/pkg/kv"
	"github.com/xih/designer-search-sub000/pkg/storage"
)

// app holds everything one command run opens: the resource store, the
// model, the optional cache and the engine on top of them.
type app struct {
	settings  *settings
	logger    *slog.Logger
	resources storage.FileStore
	model     *ortmodel.Model
	store     kv.Store
	cache     *kitten.UtteranceCache
	engine    *kitten.Engine
	speakers  bool
}

type appOptions struct {
	// speakers attaches a player on the default output device.
	speakers bool
}

// openApp wires an engine from s. The engine is not initialized.
func openApp(ctx context.Context, s *settings, logger *slog.Logger, o appOptions) (*app, error) {
	a := &app{settings: s, logger: logger}

	var err error
	a.resources, err = storage.Open(ctx, s.Resources, s.storageOptions())
	if err != nil {
		return nil, fmt.Errorf("open resources %s: %w", s.Resources, err)
	}

	a.model = ortmodel.New(a.resources,
		ortmodel.WithPath(s.Model),
		ortmodel.WithPrimary(s.Backend),
		ortmodel.WithFallback(s.FallbackBackend),
		ortmodel.WithLogger(logger),
	)

	opts := []kitten.Option{
		kitten.WithVoicesPath(s.Voices),
		kitten.WithTokenizerPath(s.Tokenizer),
		kitten.WithDefaultVoice(s.DefaultVoice),
		kitten.WithValidator(s.Validator),
		kitten.WithG2P(&kitten.Espeak{Binary: s.EspeakBinary, Voice: s.EspeakVoice}),
		kitten.WithLogger(logger),
	}

	if s.CacheURL != "" {
		if a.store, err = kv.Open(s.CacheURL, logger); err != nil {
			return nil, fmt.Errorf("open cache %s: %w", s.CacheURL, err)
		}
		a.cache = kitten.NewUtteranceCache(a.store, s.CacheTTL, kitten.WithNamespace(s.cacheNamespace()))
		opts = append(opts, kitten.WithCache(a.cache))
	}

	if o.speakers {
		player, err := newSpeakerPlayer(s.OutputRate, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, kitten.WithPlayer(player))
		a.speakers = true
	}

	a.engine = kitten.New(a.model, a.resources, opts...)
	return a, nil
}

// openReadyApp opens the app and initializes the engine.
func openReadyApp(ctx context.Context, s *settings, logger *slog.Logger, o appOptions) (*app, error) {
	a, err := openApp(ctx, s, logger, o)
	if err != nil {
		return nil, err
	}
	if err := a.engine.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the engine, the cache store and the audio library.
func (a *app) Close() error {
	if a.speakers {
		defer closeSpeakers(a.logger)
	}
	var errs []error
	if a.engine != nil {
		errs = append(errs, a.engine.Close())
	} else if a.model != nil {
		errs = append(errs, a.model.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

func (s *settings) storageOptions() *storage.OpenOptions {
	return &storage.OpenOptions{S3Endpoint: s.S3Endpoint, S3Region: s.S3Region}
}

// cacheNamespace identifies the model that produced cached audio.
func (s *settings) cacheNamespace() string {
	return strings.Join([]string{s.Resources, s.Model, string(s.Backend), string(s.FallbackBackend)}, "|")
}

// outputRate returns the rate audio is delivered at.
func (s *settings) outputRate() int {
	if s.OutputRate == 0 {
		return kitten.SampleRate
	}
	return s.OutputRate
}

// newSpeakerPlayer returns a player on the default output device.
func newSpeakerPlayer(rate int, logger *slog.Logger) (*playback.Player, error) {
	if rate == 0 {
		rate = kitten.SampleRate
	}
	format, err := pcm.FormatForRate(rate)
	if err != nil {
		return nil, err
	}
	return playback.New(openSpeaker,
		playback.WithFormat(format),
		playback.WithLogger(logger),
	), nil
}
