package kitten

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xih/designer-search-sub000/pkg/storage"
)

// State is the lifecycle state of an Engine.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateSynthesizing
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateSynthesizing:
		return "synthesizing"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Default resource paths inside the resource store.
const (
	DefaultVoicesPath    = "voices.json"
	DefaultTokenizerPath = "tokenizer.json"
)

// Player plays an encoded WAV container, returning when playback ends.
type Player interface {
	Play(ctx context.Context, wav []byte) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithG2P sets the phoneme engine. Defaults to espeak-ng for en-us.
func WithG2P(g G2P) Option {
	return func(e *Engine) {
		e.g2p = g
	}
}

// WithPhonemeCacheSize sets how many phoneme strings are remembered.
// Zero disables the cache.
func WithPhonemeCacheSize(n int) Option {
	return func(e *Engine) {
		e.phonemeCache = n
	}
}

// WithVoicesPath sets the voice table path inside the resource store.
func WithVoicesPath(path string) Option {
	return func(e *Engine) {
		e.voicesPath = path
	}
}

// WithTokenizerPath sets the tokenizer definition path inside the resource
// store.
func WithTokenizerPath(path string) Option {
	return func(e *Engine) {
		e.tokenizerPath = path
	}
}

// WithDefaultVoice sets the voice used when a request names none.
func WithDefaultVoice(name string) Option {
	return func(e *Engine) {
		e.defaultVoice = name
	}
}

// WithValidator sets the primary output validator. Defaults to
// FirstSampleNaN.
func WithValidator(v OutputValidator) Option {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithObserver sets the observer. Defaults to a LogObserver on the engine
// logger.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.obs = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCache enables the utterance cache.
func WithCache(c *UtteranceCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithPlayer sets the player used by Speak.
func WithPlayer(p Player) Option {
	return func(e *Engine) {
		e.player = p
	}
}

// Engine synthesizes speech. Create it with New and call Init before use.
// All methods are safe for concurrent use; inference is serialized.
type Engine struct {
	model     Model
	resources storage.FileStore

	g2p           G2P
	phonemeCache  int
	voicesPath    string
	tokenizerPath string
	defaultVoice  string
	validator     OutputValidator
	obs           Observer
	logger        *slog.Logger
	cache         *UtteranceCache
	player        Player

	phonemizer *Phonemizer
	vocabs     *VocabLoader
	state      atomic.Int32
	initGroup  singleflight.Group

	// mu serializes inference and guards the loaded resources.
	mu     sync.Mutex
	vocab  *Vocabulary
	voices *VoiceSet
}

// New creates an Engine that runs model and loads voices and the tokenizer
// definition from resources.
func New(model Model, resources storage.FileStore, opts ...Option) *Engine {
	e := &Engine{
		model:         model,
		resources:     resources,
		phonemeCache:  DefaultPhonemeCacheSize,
		voicesPath:    DefaultVoicesPath,
		tokenizerPath: DefaultTokenizerPath,
		defaultVoice:  DefaultVoice,
		validator:     FirstSampleNaN{},
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.g2p == nil {
		e.g2p = &Espeak{}
	}
	if e.obs == nil {
		e.obs = NewLogObserver(e.logger)
	}
	e.phonemizer = NewPhonemizer(e.g2p, e.phonemeCache)
	e.vocabs = NewVocabLoader(resources, e.tokenizerPath)
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// IsReady reports whether Init has completed and the engine accepts
// requests.
func (e *Engine) IsReady() bool {
	s := e.State()
	return s == StateReady || s == StateSynthesizing
}

// SampleRate returns the rate of synthesized utterances.
func (e *Engine) SampleRate() int {
	return SampleRate
}

// DefaultVoice returns the voice used when a request names none.
func (e *Engine) DefaultVoice() string {
	return e.defaultVoice
}

// Validator returns the primary output validator.
func (e *Engine) Validator() OutputValidator {
	return e.validator
}

// Init loads the model, the voices and the vocabulary. Calls after a
// success return immediately; concurrent calls share one load. After a
// failure Init may be called again.
//
// A vocabulary that cannot be loaded is not fatal: the engine proceeds with
// an empty vocabulary and emits EventVocabLoadFailed.
func (e *Engine) Init(ctx context.Context) error {
	switch e.State() {
	case StateReady, StateSynthesizing:
		return nil
	case StateClosed:
		return ErrClosed
	}
	_, err, _ := e.initGroup.Do("init", func() (any, error) {
		return nil, e.init(ctx)
	})
	return err
}

func (e *Engine) init(ctx context.Context) error {
	if e.IsReady() {
		return nil
	}
	if !e.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) &&
		!e.state.CompareAndSwap(int32(StateFailed), int32(StateInitializing)) {
		if e.State() == StateClosed {
			return ErrClosed
		}
		return nil
	}

	var (
		voices *VoiceSet
		vocab  *Vocabulary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.model.Init(gctx); err != nil {
			return fmt.Errorf("kitten: init model: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		v, err := LoadVoices(gctx, e.resources, e.voicesPath)
		if err != nil {
			return err
		}
		voices = v
		return nil
	})
	g.Go(func() error {
		v, err := e.vocabs.Load(gctx)
		if err != nil {
			e.obs.Event(ctx, EventVocabLoadFailed,
				slog.String("path", e.tokenizerPath),
				slog.Any("error", err))
			v = EmptyVocabulary()
		}
		vocab = v
		return nil
	})
	if err := g.Wait(); err != nil {
		e.state.CompareAndSwap(int32(StateInitializing), int32(StateFailed))
		e.obs.Event(ctx, EventInitFailed, slog.Any("error", err))
		return err
	}

	if _, err := voices.Resolve(e.defaultVoice); err != nil {
		e.logger.Warn("kitten: default voice not in voice table",
			"voice", e.defaultVoice,
			"voices", voices.Len())
	}

	e.mu.Lock()
	e.vocab = vocab
	e.voices = voices
	ready := e.state.CompareAndSwap(int32(StateInitializing), int32(StateReady))
	e.mu.Unlock()
	if !ready {
		return ErrClosed
	}

	e.obs.Add(CounterResourceLoads, 1)
	e.obs.Event(ctx, EventInitDone,
		slog.Int("voices", voices.Len()),
		slog.Int("vocabulary", vocab.Len()),
		slog.String("validator", e.validator.Name()))
	return nil
}

// Voices returns the available voice names in sorted order, or nil before
// Init.
func (e *Engine) Voices() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voices == nil {
		return nil
	}
	return e.voices.Names()
}

func (e *Engine) params(voice string, speed float32) (string, float32, error) {
	if voice == "" {
		voice = e.defaultVoice
	}
	if speed == 0 {
		speed = 1
	}
	if speed < 0 || math.IsNaN(float64(speed)) || math.IsInf(float64(speed), 0) {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
	}
	return voice, speed, nil
}

func (e *Engine) checkReady() error {
	switch e.State() {
	case StateReady, StateSynthesizing:
		return nil
	case StateClosed:
		return ErrClosed
	}
	return ErrNotInitialized
}

// Synthesize converts text to speech. An empty voice selects the default
// voice and a zero speed means 1.0.
//
// Phonemization, voice lookup and inference failures fail the request.
// Invalid model output is recovered: rejected primary output is recomputed
// on the fallback backend, remaining non-finite samples become silence,
// and quiet output is normalized.
func (e *Engine) Synthesize(ctx context.Context, text, voice string, speed float32) (*Utterance, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	voice, speed, err := e.params(voice, speed)
	if err != nil {
		return nil, err
	}
	style, err := e.style(voice)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	e.obs.Add(CounterRequests, 1)

	if u := e.cached(ctx, id, text, voice, speed, style); u != nil {
		return u, nil
	}

	phonemes, err := e.phonemizer.Phonemize(ctx, text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkReady(); err != nil {
		return nil, err
	}

	tokens := Tokenize(phonemes, e.vocab)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.state.Store(int32(StateSynthesizing))
	u, err := e.infer(ctx, id, Inputs{Tokens: tokens, Style: style, Speed: speed})
	if errors.Is(err, ErrRuntimeFault) {
		e.state.Store(int32(StateFailed))
		e.obs.Event(ctx, EventRuntimeFault,
			slog.String("request_id", id),
			slog.Any("error", err))
	} else {
		e.state.CompareAndSwap(int32(StateSynthesizing), int32(StateReady))
	}
	if err != nil {
		return nil, err
	}
	u.Voice = voice
	u.Speed = speed

	e.obs.Event(ctx, EventSynthesized,
		slog.String("request_id", id),
		slog.String("voice", voice),
		slog.Int("tokens", len(tokens)),
		slog.Int("samples", len(u.Samples)),
		slog.Bool("fallback", u.Fallback))

	if e.cache != nil {
		if err := e.cache.Put(ctx, text, style, u); err != nil {
			e.obs.Event(ctx, EventCacheFailed, slog.String("request_id", id), slog.Any("error", err))
		}
	}
	return u, nil
}

// style resolves a voice in the loaded voice table.
func (e *Engine) style(voice string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voices == nil {
		return nil, ErrNotInitialized
	}
	return e.voices.Resolve(voice)
}

func (e *Engine) cached(ctx context.Context, id, text, voice string, speed float32, style []float32) *Utterance {
	if e.cache == nil {
		return nil
	}
	u, err := e.cache.Get(ctx, voice, speed, style, text)
	if err != nil {
		e.obs.Event(ctx, EventCacheFailed, slog.String("request_id", id), slog.Any("error", err))
		return nil
	}
	if u == nil {
		e.obs.Add(CounterCacheMisses, 1)
		return nil
	}
	e.obs.Add(CounterCacheHits, 1)
	u.ID = id
	return u
}

// infer runs the model and post-processes its output. It must be called
// with e.mu held.
func (e *Engine) infer(ctx context.Context, id string, in Inputs) (*Utterance, error) {
	samples, err := guard(ctx, e.model.RunPrimary, in)
	if err != nil {
		return nil, fmt.Errorf("kitten: inference: %w", err)
	}

	u := &Utterance{ID: id, SampleRate: SampleRate}
	if !e.validator.Valid(samples) {
		e.obs.Add(CounterFallbacks, 1)
		e.obs.Event(ctx, EventFallbackTriggered,
			slog.String("request_id", id),
			slog.String("validator", e.validator.Name()))
		fb, ferr := guard(ctx, e.model.RunFallback, in)
		switch {
		case ferr == nil:
			samples = fb
			u.Fallback = true
		case errors.Is(ferr, ErrRuntimeFault):
			// The cleaned primary output is still returned, but the runtime
			// is not trusted again until Init.
			e.obs.Event(ctx, EventFallbackFailed, slog.String("request_id", id), slog.Any("error", ferr))
			e.state.Store(int32(StateFailed))
		default:
			e.obs.Event(ctx, EventFallbackFailed, slog.String("request_id", id), slog.Any("error", ferr))
		}
	}

	if n := Sanitize(samples); n > 0 {
		u.Replaced = n
		e.obs.Add(CounterInvalidSample, int64(n))
		e.obs.Event(ctx, EventSamplesReplaced,
			slog.String("request_id", id),
			slog.Int("replaced", n),
			slog.Int("samples", len(samples)))
	}
	if peak := Peak(samples); NormalizeQuiet(samples) {
		u.Normalized = true
		e.obs.Add(CounterNormalized, 1)
		e.obs.Event(ctx, EventOutputNormalized,
			slog.String("request_id", id),
			slog.Float64("peak", float64(peak)))
	}
	u.Samples = samples
	return u, nil
}

// guard calls run, converting a panic in the runtime into ErrRuntimeFault.
func guard(ctx context.Context, run func(context.Context, Inputs) ([]float32, error), in Inputs) (out []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrRuntimeFault, r)
		}
	}()
	return run(ctx, in)
}

// Encode serializes an utterance to WAV, counting clamped samples.
func (e *Engine) Encode(u *Utterance) []byte {
	data, stats := u.WAV()
	if stats.Clamped > 0 {
		e.obs.Add(CounterClampedSample, int64(stats.Clamped))
	}
	return data
}

// Speak synthesizes text and plays it, returning when playback ends.
// Playback failures are returned as *PlaybackError.
func (e *Engine) Speak(ctx context.Context, text, voice string, speed float32) error {
	if e.player == nil {
		return &PlaybackError{Err: errors.New("no player configured")}
	}
	u, err := e.Synthesize(ctx, text, voice, speed)
	if err != nil {
		return err
	}
	if err := e.player.Play(ctx, e.Encode(u)); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		return &PlaybackError{Err: err}
	}
	return nil
}

// Close waits for in-flight inference and releases the model. The cache
// store is owned by the caller and stays open.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if State(e.state.Swap(int32(StateClosed))) == StateClosed {
		return nil
	}
	return e.model.Close()
}
