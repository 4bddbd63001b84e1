package ortmodel

import (
	"fmt"
	"strings"

	"github.com/xih/designer-search-sub000/pkg/onnx"
)

// Backend names an ONNX Runtime execution configuration.
type Backend string

const (
	// Accelerated applies every graph optimization and runs operators in
	// parallel across all cores.
	Accelerated Backend = "accelerated"

	// Portable disables graph rewrites and runs on a single sequential
	// thread. It is slower but avoids kernels that misbehave on some CPUs.
	Portable Backend = "portable"
)

// ParseBackend returns the backend with the given name. Matching ignores
// case; an empty name is Accelerated.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(Accelerated):
		return Accelerated, nil
	case string(Portable):
		return Portable, nil
	}
	return "", fmt.Errorf("ortmodel: unknown backend %q (want %q or %q)", name, Accelerated, Portable)
}

// Options returns the session options for b.
func (b Backend) Options() *onnx.SessionOptions {
	if b == Portable {
		return onnx.PortableOptions()
	}
	return onnx.AcceleratedOptions()
}

func (b Backend) String() string {
	if b == "" {
		return string(Accelerated)
	}
	return string(b)
}
