// Package playback plays encoded WAV payloads on an audio output sink.
//
// A Player decodes the container, converts it to the sink's sample rate,
// and writes it in short chunks so that cancellation is noticed between
// chunks. The sink is released on every exit path: drained after a
// complete write, aborted on error or cancellation.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xih/designer-search-sub000/pkg/audio/pcm"
	"github.com/xih/designer-search-sub000/pkg/audio/resampler"
	"github.com/xih/designer-search-sub000/pkg/audio/wav"
)

// Sink is an output device accepting 16-bit mono samples.
type Sink interface {
	// Write blocks until samples are queued.
	Write(samples []int16) (int, error)
	// Close drains queued audio and releases the device.
	Close() error
	// Abort drops queued audio and releases the device.
	Abort() error
}

// Opener opens a sink for the given format.
type Opener func(format pcm.Format) (Sink, error)

// ErrNoSink is returned when a Player has no way to open a sink.
var ErrNoSink = errors.New("playback: no sink opener configured")

// DefaultChunk is the amount of audio written per sink call.
const DefaultChunk = 100 * time.Millisecond

// Player plays WAV payloads.
type Player struct {
	open   Opener
	format pcm.Format
	chunk  time.Duration
	logger *slog.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithFormat sets the format the sink is opened with. Audio at other
// sample rates is resampled. Defaults to pcm.L16Mono24K.
func WithFormat(f pcm.Format) Option {
	return func(p *Player) {
		p.format = f
	}
}

// WithChunk sets the duration of audio written per sink call.
func WithChunk(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.chunk = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) {
		p.logger = l
	}
}

// New creates a Player that opens sinks with open.
func New(open Opener, opts ...Option) *Player {
	p := &Player{
		open:   open,
		format: pcm.L16Mono24K,
		chunk:  DefaultChunk,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Format returns the sink format.
func (p *Player) Format() pcm.Format {
	return p.format
}

// Play decodes data and plays it until it ends, fails, or ctx is done.
func (p *Player) Play(ctx context.Context, data []byte) (err error) {
	if p.open == nil {
		return ErrNoSink
	}

	a, err := wav.Decode(data)
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	mono := a.Mono()
	if rate := p.format.SampleRate(); a.SampleRate != rate {
		mono, err = resampler.L16(mono, a.SampleRate, rate)
		if err != nil {
			return fmt.Errorf("playback: resample %d -> %d: %w", a.SampleRate, rate, err)
		}
	}
	samples := pcm.Int16s(mono)
	if len(samples) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sink, err := p.open(p.format)
	if err != nil {
		return fmt.Errorf("playback: open sink: %w", err)
	}

	completed := false
	defer func() {
		if completed {
			if cerr := sink.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("playback: close sink: %w", cerr)
			}
			return
		}
		if aerr := sink.Abort(); aerr != nil {
			p.logger.Warn("playback: abort sink", "error", aerr)
		}
	}()

	step := int(p.format.SamplesInDuration(p.chunk))
	if step <= 0 {
		step = len(samples)
	}
	for off := 0; off < len(samples); off += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+step, len(samples))
		if _, err := sink.Write(samples[off:end]); err != nil {
			return fmt.Errorf("playback: write: %w", err)
		}
	}
	completed = true

	p.logger.Debug("playback: done",
		"samples", len(samples),
		"duration", p.format.Duration(int64(len(samples)*2)))
	return nil
}
