package kitten

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/xih/designer-search-sub000/pkg/storage"
)

// memStore is an in-memory storage.FileStore that counts reads per path.
type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
	reads map[string]int
}

func newMemStore(files map[string]string) *memStore {
	s := &memStore{files: make(map[string][]byte), reads: make(map[string]int)}
	for k, v := range files {
		s.files[k] = []byte(v)
	}
	return s
}

func (s *memStore) put(path, data string) {
	s.mu.Lock()
	s.files[path] = []byte(data)
	s.mu.Unlock()
}

func (s *memStore) readCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[path]
}

func (s *memStore) Read(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[path]++
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Write(context.Context, string) (io.WriteCloser, error) {
	return nil, storage.ErrReadOnly
}

func (s *memStore) Delete(context.Context, string) error {
	return storage.ErrReadOnly
}

func (s *memStore) Exists(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok, nil
}

// fakeModel returns canned waveforms and records its calls.
type fakeModel struct {
	mu        sync.Mutex
	initErr   error
	inits     int
	primary   func(Inputs) ([]float32, error)
	fallback  func(Inputs) ([]float32, error)
	primaries int
	fallbacks int
	inputs    []Inputs
	closed    bool

	active    atomic.Int32
	maxActive atomic.Int32
}

func constant(samples ...float32) func(Inputs) ([]float32, error) {
	return func(Inputs) ([]float32, error) {
		return slices.Clone(samples), nil
	}
}

func (m *fakeModel) Init(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inits++
	return m.initErr
}

func (m *fakeModel) enter() func() {
	n := m.active.Add(1)
	for {
		cur := m.maxActive.Load()
		if n <= cur || m.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	return func() { m.active.Add(-1) }
}

func (m *fakeModel) RunPrimary(_ context.Context, in Inputs) ([]float32, error) {
	defer m.enter()()
	m.mu.Lock()
	m.primaries++
	m.inputs = append(m.inputs, in)
	run := m.primary
	m.mu.Unlock()
	if run == nil {
		return []float32{0.3, -0.3}, nil
	}
	return run(in)
}

func (m *fakeModel) RunFallback(_ context.Context, in Inputs) ([]float32, error) {
	defer m.enter()()
	m.mu.Lock()
	m.fallbacks++
	run := m.fallback
	m.mu.Unlock()
	if run == nil {
		return nil, fmt.Errorf("no fallback backend")
	}
	return run(in)
}

func (m *fakeModel) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *fakeModel) counts() (primaries, fallbacks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.primaries, m.fallbacks
}

// identityG2P returns the normalized text as its phonemes.
type identityG2P struct {
	calls atomic.Int32
	err   error
}

func (g *identityG2P) Phonemes(_ context.Context, text string) (string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return "", g.err
	}
	return text, nil
}

// recorder is an Observer that remembers event names.
type recorder struct {
	*LogObserver
	mu     sync.Mutex
	events []string
}

func newRecorder() *recorder {
	return &recorder{LogObserver: NewLogObserver(slog.New(slog.DiscardHandler))}
}

func (r *recorder) Event(ctx context.Context, name string, attrs ...slog.Attr) {
	r.mu.Lock()
	r.events = append(r.events, name)
	r.mu.Unlock()
	r.LogObserver.Event(ctx, name, attrs...)
}

func (r *recorder) saw(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.events, name)
}

const (
	testVoices    = `{"expr-voice-2-f": [[0.1, 0.2, 0.3]], "expr-voice-3-m": [0.4, 0.5, 0.6]}`
	testTokenizer = `{"model": {"vocab": {"$": 1, "a": 2, "b": 3, " ": 4}}}`
)

func testResources() *memStore {
	return newMemStore(map[string]string{
		DefaultVoicesPath:    testVoices,
		DefaultTokenizerPath: testTokenizer,
	})
}
