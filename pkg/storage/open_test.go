package storage

import (
	"context"
	"testing"
)

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	for _, loc := range []string{dir, "file://" + dir} {
		fs, err := Open(context.Background(), loc, nil)
		if err != nil {
			t.Fatalf("Open(%q): %v", loc, err)
		}
		l, ok := fs.(*Local)
		if !ok || l.Root() != dir {
			t.Errorf("Open(%q) = %T %v", loc, fs, fs)
		}
	}
}

func TestOpenHTTP(t *testing.T) {
	fs, err := Open(context.Background(), "https://cdn.example.com/kitten", nil)
	if err != nil {
		t.Fatal(err)
	}
	h, ok := fs.(*HTTP)
	if !ok {
		t.Fatalf("got %T", fs)
	}
	if got := h.url("voices.json"); got != "https://cdn.example.com/kitten/voices.json" {
		t.Errorf("url = %q", got)
	}
}

func TestOpenErrors(t *testing.T) {
	for _, loc := range []string{"s3://", "gopher://x"} {
		if _, err := Open(context.Background(), loc, nil); err == nil {
			t.Errorf("Open(%q) should fail", loc)
		}
	}
}

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		in, dir, name string
	}{
		{"out.wav", ".", "out.wav"},
		{"/tmp/a/out.wav", "/tmp/a/", "out.wav"},
		{"s3://bucket/dir/out.wav", "s3://bucket/dir/", "out.wav"},
		{"file:///tmp/out.wav", "file:///tmp/", "out.wav"},
		{"https://h.example/a/b.wav", "https://h.example/a/", "b.wav"},
		{"s3://bucket/dir/", "s3://bucket/dir/", ""},
	}
	for _, tt := range tests {
		dir, name := splitLocation(tt.in)
		if dir != tt.dir || name != tt.name {
			t.Errorf("splitLocation(%q) = %q, %q; want %q, %q", tt.in, dir, name, tt.dir, tt.name)
		}
	}
}
