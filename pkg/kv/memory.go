package kv

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func (e memoryEntry) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	opts *Options
	now  func() time.Time
}

// NewMemory creates a new in-memory Store.
// Pass nil for default options.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		data: make(map[string]memoryEntry),
		opts: opts,
		now:  time.Now,
	}
}

// SetClock replaces the time source used for expiry. Tests use it to step
// past TTLs without sleeping.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	k := string(m.opts.encode(key))
	m.mu.RLock()
	e, ok := m.data[k]
	now := m.now()
	m.mu.RUnlock()
	if !ok || !e.live(now) {
		return nil, ErrNotFound
	}
	return slices.Clone(e.value), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte, ttl time.Duration) error {
	k := string(m.opts.encode(key))
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[k] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	k := string(m.opts.encode(key))
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	p := string(m.opts.prefix(prefix))

	// Snapshot under the read lock so callers may write while iterating.
	m.mu.RLock()
	now := m.now()
	var keys []string
	values := make(map[string][]byte)
	for k, e := range m.data {
		if strings.HasPrefix(k, p) && e.live(now) {
			keys = append(keys, k)
			values[k] = slices.Clone(e.value)
		}
	}
	m.mu.RUnlock()
	slices.Sort(keys)

	return func(yield func(Entry, error) bool) {
		for _, k := range keys {
			if !yield(Entry{Key: m.opts.decode([]byte(k)), Value: values[k]}, nil) {
				return
			}
		}
	}
}

func (m *Memory) DeletePrefix(_ context.Context, prefix Key) (int, error) {
	p := string(m.opts.prefix(prefix))
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for k, e := range m.data {
		if strings.HasPrefix(k, p) {
			if e.live(now) {
				n++
			}
			delete(m.data, k)
		}
	}
	return n, nil
}

func (m *Memory) Close() error {
	return nil
}
