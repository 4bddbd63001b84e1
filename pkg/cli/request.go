package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// SynthRequest is one entry of a batch synthesis file.
type SynthRequest struct {
	Text  string  `yaml:"text" json:"text"`
	Voice string  `yaml:"voice,omitempty" json:"voice,omitempty"`
	Speed float32 `yaml:"speed,omitempty" json:"speed,omitempty"`

	// Output is the destination of the WAV file: a path or a storage URL.
	Output string `yaml:"output" json:"output"`
}

// Batch is a batch synthesis file:
//
//	voice: expr-voice-3-m
//	requests:
//	  - text: Hello there.
//	    output: hello.wav
//	  - text: Goodbye.
//	    speed: 1.2
//	    output: s3://clips/bye.wav
//
// Top-level Voice and Speed apply to requests that leave them empty.
type Batch struct {
	Voice    string         `yaml:"voice,omitempty" json:"voice,omitempty"`
	Speed    float32        `yaml:"speed,omitempty" json:"speed,omitempty"`
	Requests []SynthRequest `yaml:"requests" json:"requests"`
}

// Resolved returns the requests with batch defaults applied.
func (b *Batch) Resolved() ([]SynthRequest, error) {
	out := make([]SynthRequest, 0, len(b.Requests))
	for i, r := range b.Requests {
		if strings.TrimSpace(r.Text) == "" {
			return nil, fmt.Errorf("request %d: text is required", i)
		}
		if r.Output == "" {
			return nil, fmt.Errorf("request %d: output is required", i)
		}
		if r.Voice == "" {
			r.Voice = b.Voice
		}
		if r.Speed == 0 {
			r.Speed = b.Speed
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadRequest loads a request from a YAML or JSON file into the provided struct.
// A path of "-" reads stdin.
func LoadRequest(path string, v any) error {
	if path == "-" {
		return LoadRequestFromReader(os.Stdin, v)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest parses request data based on file extension or content
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		// YAML is a superset of JSON.
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}
	}
	return nil
}

// LoadRequestFromReader loads a request from r, trying JSON then YAML.
func LoadRequestFromReader(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		if err2 := yaml.Unmarshal(data, v); err2 != nil {
			return fmt.Errorf("failed to parse input (tried JSON and YAML)")
		}
	}
	return nil
}
