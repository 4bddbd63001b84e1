package kitten

import (
	"time"

	"github.com/xih/designer-search-sub000/pkg/audio/resampler"
	"github.com/xih/designer-search-sub000/pkg/audio/wav"
)

// Utterance is the result of one synthesis request.
type Utterance struct {
	// ID identifies the request in events and API responses.
	ID    string
	Voice string
	Speed float32

	// Samples are mono float PCM, finite and nominally within [-1, 1].
	Samples    []float32
	SampleRate int

	// Fallback is set when the fallback backend produced Samples.
	Fallback bool
	// Replaced counts non-finite samples replaced with silence.
	Replaced int
	// Normalized is set when quiet output was scaled up.
	Normalized bool
	// Cached is set when the samples came from the utterance cache.
	Cached bool
}

// Duration returns the playing time.
func (u *Utterance) Duration() time.Duration {
	if u.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(u.Samples)) * time.Second / time.Duration(u.SampleRate)
}

// Peak returns the largest absolute sample value.
func (u *Utterance) Peak() float32 {
	return Peak(u.Samples)
}

// WAV encodes the utterance as a 16-bit PCM WAV container.
func (u *Utterance) WAV() ([]byte, wav.Stats) {
	return wav.Encode(u.Samples, u.SampleRate)
}

// Resample returns a copy of the utterance at another sample rate.
func (u *Utterance) Resample(rate int) (*Utterance, error) {
	samples, err := resampler.Samples(u.Samples, u.SampleRate, rate)
	if err != nil {
		return nil, err
	}
	out := *u
	out.Samples = samples
	out.SampleRate = rate
	return &out, nil
}
