package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory, relative to the
	// user's home directory.
	DefaultBaseDir = ".config"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name (e.g., "kittentts")
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Context is one named engine setup: where the model resources live and
// how they run.
type Context struct {
	// Name is the context name
	Name string `yaml:"name"`

	// Resources locates the model, voices and tokenizer files: a directory,
	// file://, http(s):// or s3://bucket/prefix.
	Resources string `yaml:"resources,omitempty"`

	// Model, Voices and Tokenizer are file names inside Resources.
	Model     string `yaml:"model,omitempty"`
	Voices    string `yaml:"voices,omitempty"`
	Tokenizer string `yaml:"tokenizer,omitempty"`

	// DefaultVoice is used when a request names no voice.
	DefaultVoice string `yaml:"default_voice,omitempty"`

	// Backend and FallbackBackend are "accelerated" or "portable".
	Backend         string `yaml:"backend,omitempty"`
	FallbackBackend string `yaml:"fallback_backend,omitempty"`

	// Validator decides when primary output is recomputed: "first-sample"
	// or "full-scan".
	Validator string `yaml:"validator,omitempty"`

	Espeak *EspeakConfig `yaml:"espeak,omitempty"`
	S3     *S3Config     `yaml:"s3,omitempty"`
	Cache  *CacheConfig  `yaml:"cache,omitempty"`

	// OutputRate resamples exported and played audio. Zero keeps 24000 Hz.
	OutputRate int `yaml:"output_rate,omitempty"`

	// Listen is the serve address.
	Listen string `yaml:"listen,omitempty"`

	// Extra stores settings not covered above.
	Extra map[string]string `yaml:"extra,omitempty"`
}

// EspeakConfig selects the espeak-ng phonemizer.
type EspeakConfig struct {
	Binary string `yaml:"binary,omitempty"`
	Voice  string `yaml:"voice,omitempty"`
}

// S3Config overrides the S3 client for s3:// resources.
type S3Config struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Region   string `yaml:"region,omitempty"`
}

// CacheConfig enables the utterance cache.
type CacheConfig struct {
	// URL is a kv store URL: "memory://" or "badger:///path".
	URL string `yaml:"url,omitempty"`
	// TTL is a Go duration string. Empty keeps entries until cleared.
	TTL string `yaml:"ttl,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		ctx.Name = name
	}
	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds or replaces a context. The first context added becomes
// the current one.
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = name
	}
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// GetCurrentContext returns the current context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}
	return c.GetContext(c.CurrentContext)
}

// ResolveContext returns the context by name, or the current context if
// name is empty. With no name and no current context it returns an empty
// context so that flags and defaults alone can drive a command.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name != "" {
		return c.GetContext(name)
	}
	if c.CurrentContext == "" {
		return &Context{}, nil
	}
	return c.GetCurrentContext()
}

// ListContexts returns all context names in sorted order.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GetExtra returns an extra value for the context
func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra sets an extra value for the context
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// ContextKeys lists the keys accepted by Context.Set.
var ContextKeys = []string{
	"resources", "model", "voices", "tokenizer", "default_voice",
	"backend", "fallback_backend", "validator",
	"espeak.binary", "espeak.voice", "s3.endpoint", "s3.region",
	"cache.url", "cache.ttl", "output_rate", "listen",
}

// Set assigns a setting by its YAML key, using dots for nested settings
// (e.g. "cache.url"). Unknown keys are stored in Extra.
func (ctx *Context) Set(key, value string) error {
	switch key {
	case "resources":
		ctx.Resources = value
	case "model":
		ctx.Model = value
	case "voices":
		ctx.Voices = value
	case "tokenizer":
		ctx.Tokenizer = value
	case "default_voice":
		ctx.DefaultVoice = value
	case "backend":
		ctx.Backend = value
	case "fallback_backend":
		ctx.FallbackBackend = value
	case "validator":
		ctx.Validator = value
	case "espeak.binary", "espeak.voice":
		if ctx.Espeak == nil {
			ctx.Espeak = &EspeakConfig{}
		}
		if key == "espeak.binary" {
			ctx.Espeak.Binary = value
		} else {
			ctx.Espeak.Voice = value
		}
	case "s3.endpoint", "s3.region":
		if ctx.S3 == nil {
			ctx.S3 = &S3Config{}
		}
		if key == "s3.endpoint" {
			ctx.S3.Endpoint = value
		} else {
			ctx.S3.Region = value
		}
	case "cache.url":
		if ctx.Cache == nil {
			ctx.Cache = &CacheConfig{}
		}
		ctx.Cache.URL = value
	case "cache.ttl":
		if value != "" {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("cache.ttl: %w", err)
			}
		}
		if ctx.Cache == nil {
			ctx.Cache = &CacheConfig{}
		}
		ctx.Cache.TTL = value
	case "output_rate":
		rate, err := strconv.Atoi(value)
		if err != nil || rate < 0 {
			return fmt.Errorf("output_rate: want a non-negative integer, got %q", value)
		}
		ctx.OutputRate = rate
	case "listen":
		ctx.Listen = value
	default:
		if strings.Contains(key, ".") || key == "" {
			return fmt.Errorf("unknown setting %q", key)
		}
		ctx.SetExtra(key, value)
	}
	return nil
}

// CacheTTL returns the configured cache entry lifetime, or zero.
func (ctx *Context) CacheTTL() (time.Duration, error) {
	if ctx.Cache == nil || ctx.Cache.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(ctx.Cache.TTL)
}
