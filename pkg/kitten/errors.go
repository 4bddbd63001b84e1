package kitten

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrResourceUnavailable is returned when a model, voice table or
	// vocabulary cannot be fetched or parsed.
	ErrResourceUnavailable = errors.New("kitten: resource unavailable")

	// ErrNotInitialized is returned by operations that need a ready engine.
	ErrNotInitialized = errors.New("kitten: engine not initialized")

	// ErrUnknownVoice is returned when a voice name is not in the voice table.
	ErrUnknownVoice = errors.New("kitten: unknown voice")

	// ErrPhonemization is matched by every *PhonemizationError.
	ErrPhonemization = errors.New("kitten: phonemization failed")

	// ErrMissingModelOutput is returned when the model has no waveform output.
	ErrMissingModelOutput = errors.New("kitten: model has no waveform output")

	// ErrPlayback is matched by every *PlaybackError.
	ErrPlayback = errors.New("kitten: playback failed")

	// ErrInvalidSpeed is returned for negative or non-finite speeds.
	ErrInvalidSpeed = errors.New("kitten: invalid speed")

	// ErrRuntimeFault is returned when the inference runtime panics. The
	// engine moves to StateFailed and must be initialized again.
	ErrRuntimeFault = errors.New("kitten: inference runtime fault")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kitten: engine closed")
)

// ResourceError describes a resource that could not be loaded.
type ResourceError struct {
	// Resource is "model", "voices" or "vocabulary".
	Resource string
	Path     string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("kitten: load %s from %s: %v", e.Resource, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrResourceUnavailable.
func (e *ResourceError) Is(target error) bool {
	return target == ErrResourceUnavailable
}

// PhonemizationError wraps a grapheme-to-phoneme engine failure.
type PhonemizationError struct {
	// Text is the normalized text handed to the engine.
	Text string
	Err  error
}

func (e *PhonemizationError) Error() string {
	return fmt.Sprintf("kitten: phonemize %q: %v", e.Text, e.Err)
}

func (e *PhonemizationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPhonemization.
func (e *PhonemizationError) Is(target error) bool {
	return target == ErrPhonemization
}

// PlaybackError wraps an audio output failure.
type PlaybackError struct {
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("kitten: playback: %v", e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPlayback.
func (e *PlaybackError) Is(target error) bool {
	return target == ErrPlayback
}
