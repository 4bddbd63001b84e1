package kv

import (
	"fmt"
	"log/slog"
	"strings"
)

// Open opens a Store from a URL:
//
//	memory://            in-memory store
//	badger:///abs/path   on-disk BadgerDB at /abs/path
//	badger://rel/path    on-disk BadgerDB at rel/path
//	badger://:memory:    BadgerDB without persistence
func Open(url string, logger *slog.Logger) (Store, error) {
	switch {
	case url == "memory://":
		return NewMemory(nil), nil
	case strings.HasPrefix(url, "badger://"):
		dir := strings.TrimPrefix(url, "badger://")
		if dir == ":memory:" {
			return NewBadger(BadgerOptions{InMemory: true, Logger: logger})
		}
		if dir == "" {
			return nil, fmt.Errorf("%w: %q has no directory", ErrUnsupportedURL, url)
		}
		return NewBadger(BadgerOptions{Dir: dir, Logger: logger})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, url)
	}
}
