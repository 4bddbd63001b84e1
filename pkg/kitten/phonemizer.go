package kitten

import (
	"context"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	disallowedChars = regexp.MustCompile(`[^\w\s'.,!?-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// NormalizeText prepares raw text for the phoneme engine: lower-case, drop
// characters other than word characters, whitespace and ' . , ! ? -, collapse
// whitespace runs, and trim.
func NormalizeText(raw string) string {
	s := strings.ToLower(raw)
	s = disallowedChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// G2P converts normalized text to a phoneme string for one fixed language.
type G2P interface {
	Phonemes(ctx context.Context, text string) (string, error)
}

// G2PFunc adapts a function to G2P.
type G2PFunc func(ctx context.Context, text string) (string, error)

func (f G2PFunc) Phonemes(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// DefaultPhonemeCacheSize is the number of phoneme strings kept by a
// Phonemizer unless configured otherwise.
const DefaultPhonemeCacheSize = 1024

// Phonemizer normalizes text and converts it to phonemes, remembering
// recent conversions.
type Phonemizer struct {
	g2p   G2P
	cache *lru.Cache[string, string]
}

// NewPhonemizer creates a Phonemizer around g2p. cacheSize <= 0 disables
// the phoneme cache.
func NewPhonemizer(g2p G2P, cacheSize int) *Phonemizer {
	p := &Phonemizer{g2p: g2p}
	if cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		p.cache, _ = lru.New[string, string](cacheSize)
	}
	return p
}

// Phonemize normalizes raw and converts it. Text that normalizes to nothing
// yields "" without calling the engine. Engine failures are returned as
// *PhonemizationError.
func (p *Phonemizer) Phonemize(ctx context.Context, raw string) (string, error) {
	text := NormalizeText(raw)
	if text == "" {
		return "", nil
	}
	if p.cache != nil {
		if ph, ok := p.cache.Get(text); ok {
			return ph, nil
		}
	}
	ph, err := p.g2p.Phonemes(ctx, text)
	if err != nil {
		return "", &PhonemizationError{Text: text, Err: err}
	}
	if p.cache != nil {
		p.cache.Add(text, ph)
	}
	return ph, nil
}
