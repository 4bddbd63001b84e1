package kitten

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xih/designer-search-sub000/pkg/kv"
)

// cachePrefix is the first key segment of every cached utterance.
const cachePrefix = "utterance"

// cacheEntry is the msgpack form of a cached utterance.
type cacheEntry struct {
	Rate     int       `msgpack:"rate"`
	Samples  []float32 `msgpack:"samples"`
	Fallback bool      `msgpack:"fallback"`
}

// UtteranceCache stores synthesized samples in a kv.Store. Entries are
// keyed by voice, speed, a scope digest and the normalized text. The scope
// covers the cache namespace and the voice embedding, so a changed voice
// table or model never serves stale audio.
type UtteranceCache struct {
	store     kv.Store
	ttl       time.Duration
	namespace string
}

// CacheOption configures an UtteranceCache.
type CacheOption func(*UtteranceCache)

// WithNamespace mixes ns into every key. Callers put the model identity
// here (file, backends) so that entries from another model are not hit.
func WithNamespace(ns string) CacheOption {
	return func(c *UtteranceCache) {
		c.namespace = ns
	}
}

// NewUtteranceCache creates a cache on store. A positive ttl expires
// entries after that duration. The store is not closed by the cache.
func NewUtteranceCache(store kv.Store, ttl time.Duration, opts ...CacheOption) *UtteranceCache {
	c := &UtteranceCache{store: store, ttl: ttl}
	for _, o := range opts {
		o(c)
	}
	return c
}

// scope digests the namespace and the voice embedding.
func (c *UtteranceCache) scope(style []float32) string {
	h := sha256.New()
	h.Write([]byte(c.namespace))
	h.Write([]byte{0})
	var buf [4]byte
	for _, v := range style {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

func cacheKey(voice string, speed float32, scope, text string) kv.Key {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return kv.Key{
		cachePrefix,
		strings.ReplaceAll(voice, string(kv.DefaultSeparator), "_"),
		strconv.FormatFloat(float64(speed), 'g', -1, 32),
		scope,
		hex.EncodeToString(sum[:]),
	}
}

// Get returns the cached utterance for the request, or nil on a miss.
// style is the resolved embedding of voice.
func (c *UtteranceCache) Get(ctx context.Context, voice string, speed float32, style []float32, text string) (*Utterance, error) {
	data, err := c.store.Get(ctx, cacheKey(voice, speed, c.scope(style), text))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kitten: cache get: %w", err)
	}
	var e cacheEntry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("kitten: cache decode: %w", err)
	}
	return &Utterance{
		Voice:      voice,
		Speed:      speed,
		Samples:    e.Samples,
		SampleRate: e.Rate,
		Fallback:   e.Fallback,
		Cached:     true,
	}, nil
}

// Put stores an utterance synthesized from text with the style embedding.
func (c *UtteranceCache) Put(ctx context.Context, text string, style []float32, u *Utterance) error {
	data, err := msgpack.Marshal(&cacheEntry{
		Rate:     u.SampleRate,
		Samples:  u.Samples,
		Fallback: u.Fallback,
	})
	if err != nil {
		return fmt.Errorf("kitten: cache encode: %w", err)
	}
	if err := c.store.Set(ctx, cacheKey(u.Voice, u.Speed, c.scope(style), text), data, c.ttl); err != nil {
		return fmt.Errorf("kitten: cache set: %w", err)
	}
	return nil
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Entries int
	Bytes   int64
	// Voices counts entries per voice.
	Voices map[string]int
}

// Stats scans the cache.
func (c *UtteranceCache) Stats(ctx context.Context) (CacheStats, error) {
	st := CacheStats{Voices: make(map[string]int)}
	for e, err := range c.store.List(ctx, kv.Key{cachePrefix}) {
		if err != nil {
			return st, fmt.Errorf("kitten: cache list: %w", err)
		}
		st.Entries++
		st.Bytes += int64(len(e.Value))
		if len(e.Key) > 1 {
			st.Voices[e.Key[1]]++
		}
	}
	return st, nil
}

// Clear removes every cached utterance and returns how many were removed.
func (c *UtteranceCache) Clear(ctx context.Context) (int, error) {
	n, err := c.store.DeletePrefix(ctx, kv.Key{cachePrefix})
	if err != nil {
		return n, fmt.Errorf("kitten: cache clear: %w", err)
	}
	return n, nil
}
