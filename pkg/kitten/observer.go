package kitten

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"
)

// Event names.
const (
	EventInitDone          = "init.done"
	EventInitFailed        = "init.failed"
	EventVocabLoadFailed   = "vocab.load_failed"
	EventFallbackTriggered = "fallback.triggered"
	EventFallbackFailed    = "fallback.failed"
	EventSamplesReplaced   = "samples.replaced"
	EventOutputNormalized  = "output.normalized"
	EventSynthesized       = "synthesis.done"
	EventCacheFailed       = "cache.failed"
	EventRuntimeFault      = "runtime.fault"
)

// Counter names.
const (
	CounterRequests      = "requests"
	CounterFallbacks     = "fallbacks"
	CounterInvalidSample = "samples.invalid"
	CounterNormalized    = "normalized"
	CounterClampedSample = "samples.clamped"
	CounterCacheHits     = "cache.hits"
	CounterCacheMisses   = "cache.misses"
	CounterResourceLoads = "resource.loads"
)

// Observer receives structured events and counter updates from the engine.
// Implementations must be safe for concurrent use.
type Observer interface {
	// Event records a named occurrence with attributes.
	Event(ctx context.Context, name string, attrs ...slog.Attr)
	// Add increments a named counter.
	Add(name string, delta int64)
}

// LogObserver writes events to a slog.Logger and keeps counters in memory.
// Names ending in "failed" or "fault" are logged at warn level, everything
// else at debug.
type LogObserver struct {
	logger *slog.Logger

	mu       sync.Mutex
	counters map[string]int64
}

// NewLogObserver creates a LogObserver. A nil logger uses slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger, counters: make(map[string]int64)}
}

func (o *LogObserver) Event(ctx context.Context, name string, attrs ...slog.Attr) {
	level := slog.LevelDebug
	if strings.HasSuffix(name, "failed") || strings.HasSuffix(name, "fault") {
		level = slog.LevelWarn
	}
	o.logger.LogAttrs(ctx, level, "kitten: "+name, attrs...)
}

func (o *LogObserver) Add(name string, delta int64) {
	o.mu.Lock()
	o.counters[name] += delta
	o.mu.Unlock()
}

// Counter returns the current value of a counter.
func (o *LogObserver) Counter(name string) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counters[name]
}

// Counters returns a snapshot of every counter.
func (o *LogObserver) Counters() map[string]int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return maps.Clone(o.counters)
}
