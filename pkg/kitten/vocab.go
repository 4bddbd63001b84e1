package kitten

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/xih/designer-search-sub000/pkg/storage"
)

// maxResourceSize caps JSON resource files.
const maxResourceSize = 64 << 20

// Vocabulary maps single-character symbols to token IDs. It is immutable
// and safe for concurrent use.
type Vocabulary struct {
	ids      map[rune]int64
	fallback int64
}

// NewVocabulary builds a Vocabulary from a symbol table. Symbols longer than
// one character can never match a character-level lookup and are skipped.
// The fallback ID is the ID of unk when unk is in the table, else 0.
func NewVocabulary(symbols map[string]int64, unk string) *Vocabulary {
	v := &Vocabulary{ids: make(map[rune]int64, len(symbols))}
	for s, id := range symbols {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) {
			continue
		}
		v.ids[r] = id
	}
	if id, ok := symbols[unk]; ok && unk != "" {
		v.fallback = id
	}
	return v
}

// EmptyVocabulary returns a vocabulary in which every symbol is unknown.
func EmptyVocabulary() *Vocabulary {
	return &Vocabulary{ids: map[rune]int64{}}
}

// ID returns the token ID of r and whether it is in the vocabulary.
func (v *Vocabulary) ID(r rune) (int64, bool) {
	id, ok := v.ids[r]
	return id, ok
}

// Lookup returns the token ID of r, or the fallback ID if r is unknown.
func (v *Vocabulary) Lookup(r rune) int64 {
	if id, ok := v.ids[r]; ok {
		return id
	}
	return v.fallback
}

// Fallback returns the ID substituted for unknown symbols.
func (v *Vocabulary) Fallback() int64 {
	return v.fallback
}

// Len returns the number of symbols.
func (v *Vocabulary) Len() int {
	return len(v.ids)
}

type tokenizerFile struct {
	Model *struct {
		Vocab    map[string]int64 `json:"vocab"`
		UnkToken *string          `json:"unk_token"`
	} `json:"model"`
}

// ParseVocabulary parses a tokenizer definition of the form
// {"model": {"vocab": {"a": 1, ...}, "unk_token": "?"}}.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var f tokenizerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}
	if f.Model == nil || f.Model.Vocab == nil {
		return nil, errors.New("parse tokenizer: missing model.vocab")
	}
	for s, id := range f.Model.Vocab {
		if id < 0 {
			return nil, fmt.Errorf("parse tokenizer: negative id %d for %q", id, s)
		}
	}
	var unk string
	if f.Model.UnkToken != nil {
		unk = *f.Model.UnkToken
	}
	return NewVocabulary(f.Model.Vocab, unk), nil
}

// LoadVocabulary fetches and parses the tokenizer definition at path.
// Failures match ErrResourceUnavailable.
func LoadVocabulary(ctx context.Context, fs storage.FileStore, path string) (*Vocabulary, error) {
	data, err := storage.ReadAll(ctx, fs, path, maxResourceSize)
	if err != nil {
		return nil, &ResourceError{Resource: "vocabulary", Path: path, Err: err}
	}
	v, err := ParseVocabulary(data)
	if err != nil {
		return nil, &ResourceError{Resource: "vocabulary", Path: path, Err: err}
	}
	return v, nil
}

// VocabLoader loads a vocabulary once. After the first success Load returns
// the cached vocabulary without fetching again; failures are not cached.
type VocabLoader struct {
	fs   storage.FileStore
	path string

	mu    sync.Mutex
	vocab *Vocabulary
}

// NewVocabLoader creates a loader for the tokenizer definition at path.
func NewVocabLoader(fs storage.FileStore, path string) *VocabLoader {
	return &VocabLoader{fs: fs, path: path}
}

// Load returns the vocabulary, fetching it on the first successful call.
func (l *VocabLoader) Load(ctx context.Context) (*Vocabulary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.vocab != nil {
		return l.vocab, nil
	}
	v, err := LoadVocabulary(ctx, l.fs, l.path)
	if err != nil {
		return nil, err
	}
	l.vocab = v
	return v, nil
}
