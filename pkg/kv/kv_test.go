package kv_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/xih/designer-search-sub000/pkg/kv"
)

// backends runs fn against every Store implementation.
func backends(t *testing.T, opts *kv.Options, fn func(t *testing.T, s kv.Store)) {
	t.Run("memory", func(t *testing.T) {
		s := kv.NewMemory(opts)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
	t.Run("badger", func(t *testing.T) {
		s, err := kv.NewBadger(kv.BadgerOptions{Options: opts, InMemory: true})
		if err != nil {
			t.Fatalf("NewBadger: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func mustSet(t *testing.T, s kv.Store, key kv.Key, val string) {
	t.Helper()
	if err := s.Set(context.Background(), key, []byte(val), 0); err != nil {
		t.Fatalf("Set %v: %v", key, err)
	}
}

func listKeys(t *testing.T, s kv.Store, prefix kv.Key) []string {
	t.Helper()
	var got []string
	for entry, err := range s.List(context.Background(), prefix) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		got = append(got, entry.Key.String()+"="+string(entry.Value))
	}
	return got
}

func TestGetSetDelete(t *testing.T) {
	backends(t, nil, func(t *testing.T, s kv.Store) {
		ctx := context.Background()
		key := kv.Key{"utterance", "expr-voice-2-f", "1", "abc"}

		if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		mustSet(t, s, key, "hello")
		got, err := s.Get(ctx, key)
		if err != nil || string(got) != "hello" {
			t.Fatalf("Get = %q, %v", got, err)
		}

		mustSet(t, s, key, "world")
		got, _ = s.Get(ctx, key)
		if string(got) != "world" {
			t.Fatalf("Get after overwrite = %q", got)
		}

		if err := s.Delete(ctx, key); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, kv.Key{"no", "such"}); err != nil {
			t.Fatalf("Delete missing: %v", err)
		}
	})
}

func TestList(t *testing.T) {
	backends(t, nil, func(t *testing.T, s kv.Store) {
		mustSet(t, s, kv.Key{"utterance", "v1", "1", "a"}, "1")
		mustSet(t, s, kv.Key{"utterance", "v1", "1.5", "b"}, "2")
		mustSet(t, s, kv.Key{"utterance", "v2", "1", "c"}, "3")
		mustSet(t, s, kv.Key{"phonemes", "x"}, "4")

		got := listKeys(t, s, kv.Key{"utterance", "v1"})
		want := []string{"utterance:v1:1:a=1", "utterance:v1:1.5:b=2"}
		if !slices.Equal(got, want) {
			t.Fatalf("List utterance:v1 = %v, want %v", got, want)
		}
		if n := len(listKeys(t, s, nil)); n != 4 {
			t.Fatalf("List all = %d entries, want 4", n)
		}
	})
}

func TestListPrefixBoundary(t *testing.T) {
	backends(t, nil, func(t *testing.T, s kv.Store) {
		mustSet(t, s, kv.Key{"ab", "1"}, "yes")
		mustSet(t, s, kv.Key{"abc", "2"}, "no")
		mustSet(t, s, kv.Key{"ab", "3"}, "yes")

		got := listKeys(t, s, kv.Key{"ab"})
		want := []string{"ab:1=yes", "ab:3=yes"}
		if !slices.Equal(got, want) {
			t.Fatalf("List ab = %v, want %v", got, want)
		}
	})
}

func TestDeletePrefix(t *testing.T) {
	backends(t, nil, func(t *testing.T, s kv.Store) {
		ctx := context.Background()
		mustSet(t, s, kv.Key{"utterance", "v1", "a"}, "1")
		mustSet(t, s, kv.Key{"utterance", "v2", "b"}, "2")
		mustSet(t, s, kv.Key{"other", "c"}, "3")

		n, err := s.DeletePrefix(ctx, kv.Key{"utterance"})
		if err != nil {
			t.Fatalf("DeletePrefix: %v", err)
		}
		if n != 2 {
			t.Errorf("deleted = %d, want 2", n)
		}
		got := listKeys(t, s, nil)
		if !slices.Equal(got, []string{"other:c=3"}) {
			t.Errorf("remaining = %v", got)
		}
	})
}

func TestCustomSeparator(t *testing.T) {
	backends(t, &kv.Options{Separator: '/'}, func(t *testing.T, s kv.Store) {
		mustSet(t, s, kv.Key{"path", "to", "value"}, "data")
		// Key.String() always uses ':' for display.
		got := listKeys(t, s, kv.Key{"path", "to"})
		if !slices.Equal(got, []string{"path:to:value=data"}) {
			t.Fatalf("List = %v", got)
		}
	})
}

func TestValueIsolation(t *testing.T) {
	backends(t, nil, func(t *testing.T, s kv.Store) {
		ctx := context.Background()
		key := kv.Key{"iso"}
		original := []byte("original")
		if err := s.Set(ctx, key, original, 0); err != nil {
			t.Fatal(err)
		}
		original[0] = 'X'

		got, _ := s.Get(ctx, key)
		if got[0] != 'o' {
			t.Fatal("store value was mutated via original slice")
		}
		got[0] = 'Y'
		got2, _ := s.Get(ctx, key)
		if got2[0] != 'o' {
			t.Fatal("store value was mutated via returned slice")
		}
	})
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	s := kv.NewMemory(nil)
	now := time.Unix(1000, 0)
	s.SetClock(func() time.Time { return now })

	if err := s.Set(ctx, kv.Key{"short"}, []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, kv.Key{"forever"}, []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, kv.Key{"short"}); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, kv.Key{"short"}); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	if got := listKeys(t, s, nil); !slices.Equal(got, []string{"forever=y"}) {
		t.Fatalf("List after expiry = %v", got)
	}
}

func TestBadgerOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	mustSet(t, s, kv.Key{"persist"}, "yes")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, kv.Key{"persist"})
	if err != nil || string(got) != "yes" {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}
}

func TestBadgerRequiresDir(t *testing.T) {
	if _, err := kv.NewBadger(kv.BadgerOptions{}); err == nil {
		t.Fatal("expected error without Dir")
	}
}

func TestOpen(t *testing.T) {
	s, err := kv.Open("memory://", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*kv.Memory); !ok {
		t.Errorf("memory:// opened %T", s)
	}
	s.Close()

	s, err = kv.Open("badger://"+t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*kv.Badger); !ok {
		t.Errorf("badger:// opened %T", s)
	}
	s.Close()

	s, err = kv.Open("badger://:memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	for _, url := range []string{"redis://x", "badger://", ""} {
		if _, err := kv.Open(url, nil); !errors.Is(err, kv.ErrUnsupportedURL) {
			t.Errorf("Open(%q) = %v, want ErrUnsupportedURL", url, err)
		}
	}
}
