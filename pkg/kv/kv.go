// Package kv provides the key-value stores used for persistent caches.
// Keys are hierarchical paths (e.g., ["utterance", "expr-voice-2-f", "1",
// "<hash>"]) encoded with a configurable separator (default ':').
//
// Entries may carry a time-to-live; expired entries behave as if they were
// never written. The package includes a BadgerDB-backed implementation for
// on-disk caches and an in-memory implementation for tests and
// short-lived processes. Use [Open] to pick one from a URL.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("kv: not found")

	// ErrUnsupportedURL is returned by Open for unknown URL schemes.
	ErrUnsupportedURL = errors.New("kv: unsupported store URL")
)

// Key is a hierarchical path represented as a slice of string segments.
//
// Segments must not contain the configured separator character.
type Key []string

// String returns the key joined with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry is a key-value pair returned by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, replacing any existing value. A positive
	// ttl makes the entry expire after that duration.
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates over all live entries under prefix in lexicographic
	// order of the encoded key. An empty prefix lists everything.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// DeletePrefix removes every entry under prefix and reports how many
	// were removed.
	DeletePrefix(ctx context.Context, prefix Key) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// DefaultSeparator is the default separator byte used to encode key segments.
const DefaultSeparator byte = ':'

// Options configures key encoding.
type Options struct {
	// Separator joins key segments. Default is ':' if zero.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

func (o *Options) encode(k Key) []byte {
	return []byte(strings.Join(k, string(o.sep())))
}

func (o *Options) decode(b []byte) Key {
	return strings.Split(string(b), string(o.sep()))
}

// prefix returns the encoded scan prefix for a key prefix. The separator is
// appended so that "a:b" does not match "a:bc"; an empty key scans all.
func (o *Options) prefix(k Key) []byte {
	if len(k) == 0 {
		return nil
	}
	return append(o.encode(k), o.sep())
}
