package ortmodel

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/xih/designer-search-sub000/pkg/kitten"
	"github.com/xih/designer-search-sub000/pkg/onnx"
	"github.com/xih/designer-search-sub000/pkg/storage"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", Accelerated, false},
		{"accelerated", Accelerated, false},
		{" Portable ", Portable, false},
		{"gpu", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseBackend(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestBackendOptions(t *testing.T) {
	if o := Accelerated.Options(); o.GraphOptimization != onnx.GraphOptimizationAll || o.Sequential {
		t.Errorf("accelerated = %+v", o)
	}
	o := Portable.Options()
	if o.GraphOptimization != onnx.GraphOptimizationDisabled || !o.Sequential || o.IntraOpThreads != 1 || !o.DisableMemArena {
		t.Errorf("portable = %+v", o)
	}
	if Backend("").String() != "accelerated" {
		t.Errorf("zero backend = %q", Backend("").String())
	}
}

func TestCheckOutputs(t *testing.T) {
	if err := checkOutputs([]string{"duration", OutputName}); err != nil {
		t.Errorf("checkOutputs = %v", err)
	}
	if err := checkOutputs([]string{"audio"}); !errors.Is(err, kitten.ErrMissingModelOutput) {
		t.Errorf("checkOutputs = %v, want ErrMissingModelOutput", err)
	}
}

func localStore(t *testing.T, files map[string]string) storage.FileStore {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fs, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

// countingStore counts reads of the wrapped store.
type countingStore struct {
	storage.FileStore
	reads atomic.Int32
}

func (c *countingStore) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	c.reads.Add(1)
	return c.FileStore.Read(ctx, path)
}

type fakeSession struct {
	out    []float32
	closed bool
}

func (s *fakeSession) run(kitten.Inputs) ([]float32, error) { return s.out, nil }
func (s *fakeSession) close()                               { s.closed = true }

// fakeBuilder stands in for the ONNX Runtime session constructor.
type fakeBuilder struct {
	builds   map[Backend]int
	failNext map[Backend]int
	sessions []*fakeSession
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{builds: map[Backend]int{}, failNext: map[Backend]int{}}
}

func (f *fakeBuilder) build(data []byte, b Backend) (runner, error) {
	f.builds[b]++
	if f.failNext[b] > 0 {
		f.failNext[b]--
		return nil, errors.New("session build failed")
	}
	s := &fakeSession{out: []float32{float32(len(data))}}
	if b == Portable {
		s.out = []float32{-1}
	}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func fakeModel(t *testing.T) (*Model, *countingStore, *fakeBuilder) {
	t.Helper()
	fs := &countingStore{FileStore: localStore(t, map[string]string{DefaultModelPath: "graph"})}
	b := newFakeBuilder()
	m := New(fs)
	m.newSession = b.build
	return m, fs, b
}

func TestInitFetchesOnce(t *testing.T) {
	m, fs, b := fakeModel(t)
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := m.Init(ctx); err != nil {
			t.Fatalf("Init #%d: %v", i+1, err)
		}
	}
	if n := fs.reads.Load(); n != 1 {
		t.Errorf("model reads = %d, want 1", n)
	}
	if n := b.builds[Accelerated]; n != 1 {
		t.Errorf("primary builds = %d, want 1", n)
	}
	out, err := m.RunPrimary(ctx, kitten.Inputs{})
	if err != nil || len(out) != 1 || out[0] != float32(len("graph")) {
		t.Errorf("RunPrimary = %v, %v", out, err)
	}
}

func TestInitRetriesFailedBuild(t *testing.T) {
	m, fs, b := fakeModel(t)
	defer m.Close()
	b.failNext[Accelerated] = 1
	ctx := context.Background()

	if err := m.Init(ctx); !errors.Is(err, kitten.ErrResourceUnavailable) {
		t.Fatalf("first Init = %v", err)
	}
	if _, err := m.RunFallback(ctx, kitten.Inputs{}); !errors.Is(err, kitten.ErrNotInitialized) {
		t.Errorf("RunFallback after failed Init = %v", err)
	}
	if err := m.Init(ctx); err != nil {
		t.Fatalf("second Init = %v", err)
	}
	if n := fs.reads.Load(); n != 2 {
		t.Errorf("model reads = %d, want 2", n)
	}
}

func TestFallbackBuiltOnce(t *testing.T) {
	m, _, b := fakeModel(t)
	ctx := context.Background()
	if err := m.Init(ctx); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		out, err := m.RunFallback(ctx, kitten.Inputs{})
		if err != nil {
			t.Fatalf("RunFallback #%d: %v", i+1, err)
		}
		if len(out) != 1 || out[0] != -1 {
			t.Errorf("RunFallback #%d = %v", i+1, out)
		}
	}
	if n := b.builds[Portable]; n != 1 {
		t.Errorf("fallback builds = %d, want 1", n)
	}

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	for i, s := range b.sessions {
		if !s.closed {
			t.Errorf("session %d not closed", i)
		}
	}
}

func TestFallbackRetriedAfterFailedBuild(t *testing.T) {
	m, _, b := fakeModel(t)
	defer m.Close()
	b.failNext[Portable] = 1
	ctx := context.Background()
	if err := m.Init(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := m.RunFallback(ctx, kitten.Inputs{}); err == nil {
		t.Fatal("first RunFallback should fail")
	}
	if _, err := m.RunFallback(ctx, kitten.Inputs{}); err != nil {
		t.Fatalf("second RunFallback = %v", err)
	}
	if _, err := m.RunFallback(ctx, kitten.Inputs{}); err != nil {
		t.Fatalf("third RunFallback = %v", err)
	}
	if n := b.builds[Portable]; n != 2 {
		t.Errorf("fallback builds = %d, want 2", n)
	}
}

func TestRunBeforeInit(t *testing.T) {
	m := New(localStore(t, nil))
	in := kitten.Inputs{Tokens: []int64{1, 1}, Style: []float32{0}, Speed: 1}
	if _, err := m.RunPrimary(context.Background(), in); !errors.Is(err, kitten.ErrNotInitialized) {
		t.Errorf("RunPrimary = %v", err)
	}
	if _, err := m.RunFallback(context.Background(), in); !errors.Is(err, kitten.ErrNotInitialized) {
		t.Errorf("RunFallback = %v", err)
	}
}

func TestInitMissingModel(t *testing.T) {
	m := New(localStore(t, nil), WithPath("missing.onnx"))
	defer m.Close()

	err := m.Init(context.Background())
	if !errors.Is(err, kitten.ErrResourceUnavailable) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Init = %v", err)
	}
	var re *kitten.ResourceError
	if !errors.As(err, &re) || re.Resource != "model" || re.Path != "missing.onnx" {
		t.Errorf("error = %#v", err)
	}
}

func TestInitInvalidModel(t *testing.T) {
	m := New(localStore(t, map[string]string{DefaultModelPath: "not a model"}))
	defer m.Close()

	if err := m.Init(context.Background()); !errors.Is(err, kitten.ErrResourceUnavailable) {
		t.Fatalf("Init = %v", err)
	}
}

func TestClose(t *testing.T) {
	m := New(localStore(t, nil))
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := m.Init(context.Background()); !errors.Is(err, kitten.ErrClosed) {
		t.Errorf("Init after Close = %v", err)
	}
	if _, err := m.RunPrimary(context.Background(), kitten.Inputs{}); !errors.Is(err, kitten.ErrClosed) {
		t.Errorf("RunPrimary after Close = %v", err)
	}
}

// TestModelFile runs a real model when KITTEN_MODEL points at one.
func TestModelFile(t *testing.T) {
	path := os.Getenv("KITTEN_MODEL")
	if path == "" {
		t.Skip("KITTEN_MODEL not set")
	}
	fs, err := storage.NewLocal(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	m := New(fs, WithPath(filepath.Base(path)))
	defer m.Close()
	ctx := context.Background()
	if err := m.Init(ctx); err != nil {
		t.Fatal(err)
	}

	in := kitten.Inputs{Tokens: []int64{0, 50, 83, 54, 0}, Style: make([]float32, 256), Speed: 1}
	for name, run := range map[string]func(context.Context, kitten.Inputs) ([]float32, error){
		"primary":  m.RunPrimary,
		"fallback": m.RunFallback,
	} {
		out, err := run(ctx, in)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(out) == 0 {
			t.Errorf("%s: empty waveform", name)
		}
	}
}
