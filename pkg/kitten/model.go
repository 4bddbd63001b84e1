package kitten

import "context"

// Inputs are the tensors of one inference call.
type Inputs struct {
	// Tokens is the token sequence, shape [1, len(Tokens)].
	Tokens []int64
	// Style is the voice embedding, shape [1, len(Style)].
	Style []float32
	// Speed is the speaking rate multiplier, shape [1].
	Speed float32
}

// Model runs the neural network on a primary backend and, on demand, on a
// fallback backend.
//
// Implementations need not be safe for concurrent inference; the Engine
// serializes calls.
type Model interface {
	// Init loads the model and builds the primary session. Calls after a
	// success are no-ops.
	Init(ctx context.Context) error

	// RunPrimary runs inference on the primary backend and returns the
	// waveform. A model without a waveform output fails with
	// ErrMissingModelOutput.
	RunPrimary(ctx context.Context, in Inputs) ([]float32, error)

	// RunFallback runs inference on the fallback backend, building its
	// session on first use.
	RunFallback(ctx context.Context, in Inputs) ([]float32, error)

	// Close releases all sessions.
	Close() error
}
