// Package ortmodel runs the KittenTTS acoustic model on ONNX Runtime.
//
// A Model owns two sessions over the same model bytes. The primary session
// is built by Init on the primary backend. The fallback session uses the
// fallback backend and is built on the first RunFallback, then reused.
//
// The graph takes int64 "input_ids" [1,N], float "style" [1,D] and float
// "speed" [1], and produces the float "waveform" output.
package ortmodel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/xih/designer-search-sub000/pkg/kitten"
	"github.com/xih/designer-search-sub000/pkg/onnx"
	"github.com/xih/designer-search-sub000/pkg/storage"
)

// Graph tensor names.
const (
	InputTokens = "input_ids"
	InputStyle  = "style"
	InputSpeed  = "speed"
	OutputName  = "waveform"
)

// DefaultModelPath is the model file inside the resource store.
const DefaultModelPath = "kitten_tts_nano_v0_1.onnx"

// maxModelSize bounds the model download.
const maxModelSize = 512 << 20

// Option configures a Model.
type Option func(*Model)

// WithPath sets the model path inside the resource store.
func WithPath(path string) Option {
	return func(m *Model) {
		m.path = path
	}
}

// WithPrimary sets the backend of the primary session. Default: Accelerated.
func WithPrimary(b Backend) Option {
	return func(m *Model) {
		m.primaryBackend = b
	}
}

// WithFallback sets the backend of the fallback session. Default: Portable.
func WithFallback(b Backend) Option {
	return func(m *Model) {
		m.fallbackBackend = b
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// Model implements [kitten.Model] with ONNX Runtime sessions.
//
// Model is safe for concurrent use, although the engine serializes calls.
type Model struct {
	fs              storage.FileStore
	path            string
	primaryBackend  Backend
	fallbackBackend Backend
	logger          *slog.Logger

	// newSession builds a session over the model bytes. Tests replace it.
	newSession func(data []byte, b Backend) (runner, error)

	mu      sync.Mutex
	data    []byte
	primary runner
	closed  bool

	// fbMu guards the lazily built fallback session.
	fbMu     sync.Mutex
	fallback runner

	envMu sync.Mutex
	env   *onnx.Env
}

// runner is one built session.
type runner interface {
	run(in kitten.Inputs) ([]float32, error)
	close()
}

var _ kitten.Model = (*Model)(nil)

// New creates a Model that loads its graph from fs.
func New(fs storage.FileStore, opts ...Option) *Model {
	m := &Model{
		fs:              fs,
		path:            DefaultModelPath,
		primaryBackend:  Accelerated,
		fallbackBackend: Portable,
		logger:          slog.Default(),
	}
	m.newSession = m.ortSession
	for _, o := range opts {
		o(m)
	}
	return m
}

// Path returns the model path inside the resource store.
func (m *Model) Path() string { return m.path }

// Init fetches the model and builds the primary session. It is a no-op once
// it has succeeded. Failures match [kitten.ErrResourceUnavailable].
func (m *Model) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return kitten.ErrClosed
	}
	if m.primary != nil {
		return nil
	}

	data, err := storage.ReadAll(ctx, m.fs, m.path, maxModelSize)
	if err != nil {
		return &kitten.ResourceError{Resource: "model", Path: m.path, Err: err}
	}
	s, err := m.newSession(data, m.primaryBackend)
	if err != nil {
		return &kitten.ResourceError{Resource: "model", Path: m.path, Err: err}
	}
	m.data = data
	m.primary = s
	m.logger.Debug("ortmodel: primary session ready",
		"path", m.path,
		"backend", m.primaryBackend.String(),
		"bytes", len(data))
	return nil
}

// RunPrimary runs the primary session.
func (m *Model) RunPrimary(ctx context.Context, in kitten.Inputs) ([]float32, error) {
	m.mu.Lock()
	s, closed := m.primary, m.closed
	m.mu.Unlock()
	switch {
	case closed:
		return nil, kitten.ErrClosed
	case s == nil:
		return nil, kitten.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.run(in)
}

// RunFallback runs the fallback session, building it on first use. A
// failed build is not remembered and is attempted again on the next call.
func (m *Model) RunFallback(ctx context.Context, in kitten.Inputs) ([]float32, error) {
	m.mu.Lock()
	data, closed := m.data, m.closed
	m.mu.Unlock()
	switch {
	case closed:
		return nil, kitten.ErrClosed
	case data == nil:
		return nil, kitten.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.fbMu.Lock()
	defer m.fbMu.Unlock()
	if m.fallback == nil {
		s, err := m.newSession(data, m.fallbackBackend)
		if err != nil {
			return nil, fmt.Errorf("ortmodel: build %s session: %w", m.fallbackBackend, err)
		}
		m.fallback = s
		m.logger.Info("ortmodel: fallback session ready", "backend", m.fallbackBackend.String())
	}
	return m.fallback.run(in)
}

// Close releases both sessions and the runtime environment.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	m.fbMu.Lock()
	if m.fallback != nil {
		m.fallback.close()
		m.fallback = nil
	}
	m.fbMu.Unlock()

	if m.primary != nil {
		m.primary.close()
		m.primary = nil
	}
	m.data = nil

	m.envMu.Lock()
	if m.env != nil {
		m.env.Close()
		m.env = nil
	}
	m.envMu.Unlock()
	return nil
}

// ortSession builds an ONNX Runtime session, creating the shared runtime
// environment on first use.
func (m *Model) ortSession(data []byte, b Backend) (runner, error) {
	m.envMu.Lock()
	if m.env == nil {
		env, err := onnx.NewEnv("kittentts")
		if err != nil {
			m.envMu.Unlock()
			return nil, err
		}
		m.env = env
	}
	env := m.env
	m.envMu.Unlock()
	return newSession(env, data, b)
}

// session is one ONNX Runtime session with its output names.
type session struct {
	s       *onnx.Session
	outputs []string
}

func newSession(env *onnx.Env, data []byte, b Backend) (*session, error) {
	s, err := env.NewSessionWithOptions(data, b.Options())
	if err != nil {
		return nil, err
	}
	outputs, err := s.OutputNames()
	if err != nil {
		s.Close()
		return nil, err
	}
	return &session{s: s, outputs: outputs}, nil
}

func (s *session) close() {
	s.s.Close()
}

func (s *session) run(in kitten.Inputs) ([]float32, error) {
	if err := checkOutputs(s.outputs); err != nil {
		return nil, err
	}

	ids, err := onnx.NewInt64Tensor([]int64{1, int64(len(in.Tokens))}, in.Tokens)
	if err != nil {
		return nil, fmt.Errorf("ortmodel: %s: %w", InputTokens, err)
	}
	defer ids.Close()
	style, err := onnx.NewTensor([]int64{1, int64(len(in.Style))}, in.Style)
	if err != nil {
		return nil, fmt.Errorf("ortmodel: %s: %w", InputStyle, err)
	}
	defer style.Close()
	speed, err := onnx.NewTensor([]int64{1}, []float32{in.Speed})
	if err != nil {
		return nil, fmt.Errorf("ortmodel: %s: %w", InputSpeed, err)
	}
	defer speed.Close()

	outs, err := s.s.Run(
		[]string{InputTokens, InputStyle, InputSpeed},
		[]*onnx.Tensor{ids, style, speed},
		[]string{OutputName},
	)
	if err != nil {
		return nil, fmt.Errorf("ortmodel: run: %w", err)
	}
	defer func() {
		for _, t := range outs {
			t.Close()
		}
	}()
	return outs[0].FloatData()
}

// checkOutputs reports ErrMissingModelOutput when the graph has no waveform
// output.
func checkOutputs(names []string) error {
	if slices.Contains(names, OutputName) {
		return nil
	}
	return fmt.Errorf("%w: %q not in %v", kitten.ErrMissingModelOutput, OutputName, names)
}
