package commands

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/xih/designer-search-sub000/pkg/cli"
	"github.com/xih/designer-search-sub000/pkg/kitten"
	"github.com/xih/designer-search-sub000/pkg/kitten/ortmodel"
)

// DefaultListen is the serve address when neither flag nor context set one.
const DefaultListen = ":8080"

// flagOverrides holds the persistent flags that override context values.
// Empty values leave the context value in place.
type flagOverrides struct {
	resources       string
	model           string
	backend         string
	fallbackBackend string
	validator       string
	espeak          string
	cacheURL        string
	noCache         bool
}

func (o *flagOverrides) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.resources, "resources", "", "resource location: directory, http(s):// or s3://bucket/prefix")
	fs.StringVar(&o.model, "model", "", "model file name inside the resources")
	fs.StringVar(&o.backend, "backend", "", "primary backend: accelerated or portable")
	fs.StringVar(&o.fallbackBackend, "fallback-backend", "", "fallback backend: accelerated or portable")
	fs.StringVar(&o.validator, "validator", "", "output validator: first-sample or full-scan")
	fs.StringVar(&o.espeak, "espeak", "", "espeak-ng executable")
	fs.StringVar(&o.cacheURL, "cache", "", "utterance cache: memory:// or badger:///path")
	fs.BoolVar(&o.noCache, "no-cache", false, "disable the utterance cache")
}

// settings is the effective configuration of one command run.
type settings struct {
	Resources    string
	Model        string
	Voices       string
	Tokenizer    string
	DefaultVoice string

	Backend         ortmodel.Backend
	FallbackBackend ortmodel.Backend
	Validator       kitten.OutputValidator

	EspeakBinary string
	EspeakVoice  string

	S3Endpoint string
	S3Region   string

	CacheURL string
	CacheTTL time.Duration

	OutputRate int
	Listen     string
}

// resolveSettings merges flags over ctx over defaults.
func resolveSettings(ctx *cli.Context, o *flagOverrides, paths *cli.Paths) (*settings, error) {
	s := &settings{
		Resources:    pick(o.resources, ctx.Resources, paths.DataDir()),
		Model:        pick(o.model, ctx.Model, ortmodel.DefaultModelPath),
		Voices:       pick(ctx.Voices, kitten.DefaultVoicesPath),
		Tokenizer:    pick(ctx.Tokenizer, kitten.DefaultTokenizerPath),
		DefaultVoice: pick(ctx.DefaultVoice, kitten.DefaultVoice),
		OutputRate:   ctx.OutputRate,
		Listen:       pick(ctx.Listen, DefaultListen),
	}

	var err error
	if s.Backend, err = ortmodel.ParseBackend(pick(o.backend, ctx.Backend, string(ortmodel.Accelerated))); err != nil {
		return nil, err
	}
	if s.FallbackBackend, err = ortmodel.ParseBackend(pick(o.fallbackBackend, ctx.FallbackBackend, string(ortmodel.Portable))); err != nil {
		return nil, err
	}
	if s.Validator, err = kitten.ParseValidator(pick(o.validator, ctx.Validator)); err != nil {
		return nil, err
	}

	if ctx.Espeak != nil {
		s.EspeakBinary, s.EspeakVoice = ctx.Espeak.Binary, ctx.Espeak.Voice
	}
	s.EspeakBinary = pick(o.espeak, s.EspeakBinary)
	if ctx.S3 != nil {
		s.S3Endpoint, s.S3Region = ctx.S3.Endpoint, ctx.S3.Region
	}

	if !o.noCache {
		if ctx.Cache != nil {
			s.CacheURL = ctx.Cache.URL
		}
		s.CacheURL = pick(o.cacheURL, s.CacheURL)
		if s.CacheTTL, err = ctx.CacheTTL(); err != nil {
			return nil, fmt.Errorf("cache.ttl: %w", err)
		}
	}
	if s.OutputRate < 0 {
		return nil, fmt.Errorf("output_rate: negative rate %d", s.OutputRate)
	}
	return s, nil
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
