package kitten

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/xih/designer-search-sub000/pkg/storage"
)

// DefaultVoice is used when a request names no voice.
const DefaultVoice = "expr-voice-2-f"

// VoiceSet holds named style embeddings. It is immutable and safe for
// concurrent use.
type VoiceSet struct {
	voices map[string][]float32
	names  []string
}

// NewVoiceSet builds a VoiceSet from flat embeddings. The vectors are copied.
func NewVoiceSet(voices map[string][]float32) *VoiceSet {
	cp := make(map[string][]float32, len(voices))
	for name, vec := range voices {
		cp[name] = slices.Clone(vec)
	}
	return &VoiceSet{voices: cp, names: sortedKeys(cp)}
}

// ParseVoices parses a voice table of the form {"name": [..]} or
// {"name": [[..]]}. A nested entry uses its first vector.
func ParseVoices(data []byte) (*VoiceSet, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse voices: %w", err)
	}
	voices := make(map[string][]float32, len(raw))
	for name, msg := range raw {
		vec, err := parseEmbedding(msg)
		if err != nil {
			return nil, fmt.Errorf("parse voices: %q: %w", name, err)
		}
		voices[name] = vec
	}
	return &VoiceSet{voices: voices, names: sortedKeys(voices)}, nil
}

func parseEmbedding(msg json.RawMessage) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(msg, &flat); err == nil {
		return flat, nil
	}
	// An empty list parses as flat above, so nested is never empty here.
	var nested [][]float32
	if err := json.Unmarshal(msg, &nested); err != nil {
		return nil, fmt.Errorf("want a number list or a list of number lists: %w", err)
	}
	return nested[0], nil
}

func sortedKeys(m map[string][]float32) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadVoices fetches and parses the voice table at path. Failures match
// ErrResourceUnavailable.
func LoadVoices(ctx context.Context, fs storage.FileStore, path string) (*VoiceSet, error) {
	data, err := storage.ReadAll(ctx, fs, path, maxResourceSize)
	if err != nil {
		return nil, &ResourceError{Resource: "voices", Path: path, Err: err}
	}
	s, err := ParseVoices(data)
	if err != nil {
		return nil, &ResourceError{Resource: "voices", Path: path, Err: err}
	}
	return s, nil
}

// Resolve returns the embedding for name. The returned slice must not be
// modified. The length is not checked against the model's style input.
func (s *VoiceSet) Resolve(name string) ([]float32, error) {
	vec, ok := s.voices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	return vec, nil
}

// Names returns the voice names in sorted order.
func (s *VoiceSet) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of voices.
func (s *VoiceSet) Len() int {
	return len(s.voices)
}
