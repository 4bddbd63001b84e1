package kitten

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello, world!"},
		{"  multiple   spaces\tand\nnewlines  ", "multiple spaces and newlines"},
		{"It's 5 o'clock - right?", "it's 5 o'clock - right?"},
		{"email@example.com #tag $5 (aside)", "emailexample.com tag 5 aside"},
		{"snake_case stays", "snake_case stays"},
		{"Café déjà vu", "caf dj vu"},
		{"%%%", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPhonemizeUsesNormalizedText(t *testing.T) {
	var got string
	p := NewPhonemizer(G2PFunc(func(_ context.Context, text string) (string, error) {
		got = text
		return "həlˈoʊ", nil
	}), 0)

	ph, err := p.Phonemize(context.Background(), "  HELLO!!  ")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello!!" || ph != "həlˈoʊ" {
		t.Fatalf("engine saw %q, returned %q", got, ph)
	}
}

func TestPhonemizeEmptySkipsEngine(t *testing.T) {
	g := &identityG2P{}
	p := NewPhonemizer(g, 0)
	ph, err := p.Phonemize(context.Background(), " @#$ ")
	if err != nil || ph != "" {
		t.Fatalf("Phonemize = %q, %v", ph, err)
	}
	if g.calls.Load() != 0 {
		t.Errorf("engine called %d times", g.calls.Load())
	}
}

func TestPhonemizeCache(t *testing.T) {
	g := &identityG2P{}
	p := NewPhonemizer(g, 8)
	ctx := context.Background()
	for _, in := range []string{"Hello", "hello", "HELLO ", "world"} {
		if _, err := p.Phonemize(ctx, in); err != nil {
			t.Fatal(err)
		}
	}
	if n := g.calls.Load(); n != 2 {
		t.Errorf("engine calls = %d, want 2", n)
	}
}

func TestPhonemizeError(t *testing.T) {
	boom := errors.New("engine crashed")
	p := NewPhonemizer(&identityG2P{err: boom}, 8)

	_, err := p.Phonemize(context.Background(), "Hello")
	if !errors.Is(err, ErrPhonemization) {
		t.Fatalf("err = %v, want ErrPhonemization", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped engine error", err)
	}
	var pe *PhonemizationError
	if !errors.As(err, &pe) || pe.Text != "hello" {
		t.Errorf("err = %#v", err)
	}
}
