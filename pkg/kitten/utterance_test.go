package kitten

import (
	"testing"
	"time"

	"github.com/xih/designer-search-sub000/pkg/audio/wav"
)

func TestUtteranceDuration(t *testing.T) {
	u := &Utterance{Samples: make([]float32, 36000), SampleRate: SampleRate}
	if d := u.Duration(); d != 1500*time.Millisecond {
		t.Errorf("Duration = %v", d)
	}
	if d := (&Utterance{}).Duration(); d != 0 {
		t.Errorf("zero utterance Duration = %v", d)
	}
}

func TestUtteranceWAV(t *testing.T) {
	u := &Utterance{Samples: []float32{0, 0.5, 1.5}, SampleRate: SampleRate}
	data, stats := u.WAV()
	if len(data) != wav.HeaderSize+6 {
		t.Errorf("len = %d", len(data))
	}
	if stats.Clamped != 1 {
		t.Errorf("clamped = %d", stats.Clamped)
	}
	a, err := wav.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if a.SampleRate != SampleRate {
		t.Errorf("rate = %d", a.SampleRate)
	}
}

func TestUtteranceResample(t *testing.T) {
	u := &Utterance{ID: "x", Voice: "v", Samples: make([]float32, 2400), SampleRate: SampleRate}
	out, err := u.Resample(48000)
	if err != nil {
		t.Fatal(err)
	}
	if out.SampleRate != 48000 || len(out.Samples) != 4800 {
		t.Errorf("resampled to %d samples at %d", len(out.Samples), out.SampleRate)
	}
	if out.ID != "x" || out.Voice != "v" {
		t.Error("metadata not carried over")
	}
	if len(u.Samples) != 2400 || u.SampleRate != SampleRate {
		t.Error("original modified")
	}
	if _, err := u.Resample(0); err == nil {
		t.Error("Resample(0) should fail")
	}
}
