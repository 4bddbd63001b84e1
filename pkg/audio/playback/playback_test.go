package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xih/designer-search-sub000/pkg/audio/pcm"
	"github.com/xih/designer-search-sub000/pkg/audio/wav"
)

type fakeSink struct {
	written  []int16
	writes   int
	failAt   int
	closed   int
	aborted  int
	onWrite  func()
	closeErr error
}

func (s *fakeSink) Write(samples []int16) (int, error) {
	s.writes++
	if s.failAt > 0 && s.writes == s.failAt {
		return 0, errors.New("device gone")
	}
	s.written = append(s.written, samples...)
	if s.onWrite != nil {
		s.onWrite()
	}
	return len(samples), nil
}

func (s *fakeSink) Close() error {
	s.closed++
	return s.closeErr
}

func (s *fakeSink) Abort() error {
	s.aborted++
	return nil
}

func opener(s *fakeSink, got *pcm.Format) Opener {
	return func(f pcm.Format) (Sink, error) {
		if got != nil {
			*got = f
		}
		return s, nil
	}
}

func tone(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPlayWritesAllSamplesAndCloses(t *testing.T) {
	data, _ := wav.Encode(tone(24000, 0.5), 24000)
	sink := &fakeSink{}
	var format pcm.Format
	p := New(opener(sink, &format), WithChunk(50*time.Millisecond))

	if err := p.Play(context.Background(), data); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if format != pcm.L16Mono24K {
		t.Errorf("format = %v", format)
	}
	if len(sink.written) != 24000 {
		t.Errorf("written = %d, want 24000", len(sink.written))
	}
	if sink.writes != 20 {
		t.Errorf("writes = %d, want 20", sink.writes)
	}
	if sink.closed != 1 || sink.aborted != 0 {
		t.Errorf("closed = %d, aborted = %d", sink.closed, sink.aborted)
	}
}

func TestPlayResamplesToSinkRate(t *testing.T) {
	data, _ := wav.Encode(tone(2400, 0.25), 24000)
	sink := &fakeSink{}
	p := New(opener(sink, nil), WithFormat(pcm.L16Mono48K))

	if err := p.Play(context.Background(), data); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(sink.written) != 4800 {
		t.Errorf("written = %d, want 4800", len(sink.written))
	}
}

func TestPlayWriteErrorAbortsSink(t *testing.T) {
	data, _ := wav.Encode(tone(24000, 0.1), 24000)
	sink := &fakeSink{failAt: 2}
	p := New(opener(sink, nil))

	err := p.Play(context.Background(), data)
	if err == nil {
		t.Fatal("expected error")
	}
	if sink.aborted != 1 || sink.closed != 0 {
		t.Errorf("closed = %d, aborted = %d", sink.closed, sink.aborted)
	}
}

func TestPlayCloseError(t *testing.T) {
	data, _ := wav.Encode(tone(100, 0.1), 24000)
	sink := &fakeSink{closeErr: errors.New("drain failed")}
	p := New(opener(sink, nil))

	if err := p.Play(context.Background(), data); err == nil {
		t.Fatal("expected close error")
	}
	if sink.closed != 1 {
		t.Errorf("closed = %d", sink.closed)
	}
}

func TestPlayCancel(t *testing.T) {
	data, _ := wav.Encode(tone(24000, 0.1), 24000)
	ctx, cancel := context.WithCancel(context.Background())
	sink := &fakeSink{onWrite: cancel}
	p := New(opener(sink, nil))

	err := p.Play(ctx, data)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if sink.writes != 1 {
		t.Errorf("writes = %d, want 1", sink.writes)
	}
	if sink.aborted != 1 {
		t.Errorf("aborted = %d, want 1", sink.aborted)
	}
}

func TestPlayOpenError(t *testing.T) {
	data, _ := wav.Encode(tone(10, 0.1), 24000)
	p := New(func(pcm.Format) (Sink, error) {
		return nil, errors.New("no device")
	})
	if err := p.Play(context.Background(), data); err == nil {
		t.Fatal("expected error")
	}
}

func TestPlayInvalidContainer(t *testing.T) {
	sink := &fakeSink{}
	p := New(opener(sink, nil))
	if err := p.Play(context.Background(), []byte("not a wav")); !errors.Is(err, wav.ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
	if sink.writes != 0 || sink.closed != 0 {
		t.Error("sink should not be touched")
	}
}

func TestPlayEmpty(t *testing.T) {
	data, _ := wav.Encode(nil, 24000)
	sink := &fakeSink{}
	if err := New(opener(sink, nil)).Play(context.Background(), data); err != nil {
		t.Fatal(err)
	}
	if sink.writes != 0 {
		t.Errorf("writes = %d", sink.writes)
	}
}

func TestPlayNoOpener(t *testing.T) {
	if err := New(nil).Play(context.Background(), nil); !errors.Is(err, ErrNoSink) {
		t.Fatalf("err = %v", err)
	}
}
