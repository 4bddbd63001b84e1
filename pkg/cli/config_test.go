package cli

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfigWithPath("testapp", filepath.Join(t.TempDir(), "testapp", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}
	return cfg
}

func TestLoadConfigWithPath_NewConfig(t *testing.T) {
	cfg := newTestConfig(t)
	if cfg.AppName != "testapp" {
		t.Errorf("AppName = %q, want %q", cfg.AppName, "testapp")
	}
	if cfg.Contexts == nil {
		t.Error("Contexts should be initialized")
	}
	if _, err := os.Stat(cfg.Path()); err != nil {
		t.Errorf("config file should be created: %v", err)
	}
	if cfg.Dir() != filepath.Dir(cfg.Path()) {
		t.Errorf("Dir() = %q", cfg.Dir())
	}
}

func TestLoadConfigWithPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("contexts: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigWithPath("testapp", path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_AddContext(t *testing.T) {
	cfg := newTestConfig(t)
	if err := cfg.AddContext("local", &Context{Resources: "/models/kitten"}); err != nil {
		t.Fatalf("AddContext error: %v", err)
	}
	ctx := cfg.Contexts["local"]
	if ctx == nil || ctx.Name != "local" || ctx.Resources != "/models/kitten" {
		t.Fatalf("context = %+v", ctx)
	}
	if cfg.CurrentContext != "local" {
		t.Errorf("first context should become current, got %q", cfg.CurrentContext)
	}

	cfg.AddContext("remote", &Context{Resources: "s3://models/kitten"})
	if cfg.CurrentContext != "local" {
		t.Errorf("CurrentContext = %q, want %q", cfg.CurrentContext, "local")
	}
}

func TestConfig_DeleteContext(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AddContext("ctx1", &Context{})
	cfg.AddContext("ctx2", &Context{})

	if err := cfg.DeleteContext("ctx2"); err != nil {
		t.Fatalf("DeleteContext error: %v", err)
	}
	if _, ok := cfg.Contexts["ctx2"]; ok {
		t.Error("context should be deleted")
	}
	if err := cfg.DeleteContext("ctx1"); err != nil {
		t.Fatalf("DeleteContext error: %v", err)
	}
	if cfg.CurrentContext != "" {
		t.Errorf("CurrentContext should be cleared, got %q", cfg.CurrentContext)
	}
	if err := cfg.DeleteContext("nonexistent"); err == nil {
		t.Error("DeleteContext should fail for non-existent context")
	}
}

func TestConfig_UseContext(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AddContext("dev", &Context{})
	cfg.AddContext("prod", &Context{Backend: "portable"})

	if err := cfg.UseContext("prod"); err != nil {
		t.Fatalf("UseContext error: %v", err)
	}
	ctx, err := cfg.GetCurrentContext()
	if err != nil || ctx.Backend != "portable" {
		t.Errorf("GetCurrentContext = %+v, %v", ctx, err)
	}
	if err := cfg.UseContext("nonexistent"); err == nil {
		t.Error("UseContext should fail for non-existent context")
	}
}

func TestConfig_ResolveContext(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := cfg.ResolveContext("")
	if err != nil || ctx == nil {
		t.Fatalf("ResolveContext without contexts = %v, %v", ctx, err)
	}
	if _, err := cfg.GetCurrentContext(); err == nil {
		t.Error("GetCurrentContext should fail when none is set")
	}

	cfg.AddContext("dev", &Context{DefaultVoice: "expr-voice-3-m"})
	cfg.AddContext("prod", &Context{DefaultVoice: "expr-voice-4-f"})

	if ctx, _ := cfg.ResolveContext(""); ctx.Name != "dev" {
		t.Errorf("ResolveContext(\"\") = %q, want dev", ctx.Name)
	}
	if ctx, _ := cfg.ResolveContext("prod"); ctx.DefaultVoice != "expr-voice-4-f" {
		t.Errorf("ResolveContext(prod) = %+v", ctx)
	}
	if _, err := cfg.ResolveContext("nonexistent"); err == nil {
		t.Error("ResolveContext should fail for unknown names")
	}
}

func TestConfig_ListContexts(t *testing.T) {
	cfg := newTestConfig(t)
	for _, name := range []string{"prod", "dev", "staging"} {
		cfg.AddContext(name, &Context{})
	}
	if got := cfg.ListContexts(); !slices.Equal(got, []string{"dev", "prod", "staging"}) {
		t.Errorf("ListContexts = %v", got)
	}
}

func TestConfig_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath("testapp", path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := &Context{
		Resources:       "https://example.com/kitten",
		Backend:         "accelerated",
		FallbackBackend: "portable",
		Cache:           &CacheConfig{URL: "badger:///tmp/kitten", TTL: "24h"},
		OutputRate:      48000,
	}
	if err := cfg.AddContext("remote", ctx); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfigWithPath("testapp", path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.GetContext("remote")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "remote" || got.Resources != ctx.Resources || got.FallbackBackend != "portable" || got.OutputRate != 48000 {
		t.Errorf("loaded context = %+v", got)
	}
	if got.Cache == nil || got.Cache.URL != "badger:///tmp/kitten" {
		t.Errorf("loaded cache = %+v", got.Cache)
	}
	if loaded.CurrentContext != "remote" {
		t.Errorf("CurrentContext = %q", loaded.CurrentContext)
	}
}

func TestContext_Set(t *testing.T) {
	ctx := &Context{}
	settings := map[string]string{
		"resources":     "s3://models/kitten",
		"default_voice": "expr-voice-5-m",
		"espeak.binary": "/opt/espeak/bin/espeak-ng",
		"espeak.voice":  "en-gb",
		"s3.endpoint":   "http://localhost:9000",
		"cache.url":     "memory://",
		"cache.ttl":     "90m",
		"output_rate":   "16000",
		"color":         "blue",
	}
	for k, v := range settings {
		if err := ctx.Set(k, v); err != nil {
			t.Fatalf("Set(%q) error: %v", k, err)
		}
	}
	if ctx.Resources != "s3://models/kitten" || ctx.DefaultVoice != "expr-voice-5-m" || ctx.OutputRate != 16000 {
		t.Errorf("context = %+v", ctx)
	}
	if ctx.Espeak.Binary != "/opt/espeak/bin/espeak-ng" || ctx.Espeak.Voice != "en-gb" || ctx.S3.Endpoint != "http://localhost:9000" {
		t.Errorf("nested = %+v %+v", ctx.Espeak, ctx.S3)
	}
	if ttl, err := ctx.CacheTTL(); err != nil || ttl != 90*time.Minute {
		t.Errorf("CacheTTL = %v, %v", ttl, err)
	}
	if ctx.GetExtra("color") != "blue" || ctx.GetExtra("missing") != "" {
		t.Errorf("extra = %v", ctx.Extra)
	}
}

func TestContext_SetInvalid(t *testing.T) {
	ctx := &Context{}
	for k, v := range map[string]string{
		"cache.ttl":   "tomorrow",
		"output_rate": "-1",
		"espeak.rate": "2",
		"":            "x",
	} {
		if err := ctx.Set(k, v); err == nil {
			t.Errorf("Set(%q, %q) should fail", k, v)
		}
	}
}

func TestContext_CacheTTLUnset(t *testing.T) {
	if ttl, err := (&Context{}).CacheTTL(); ttl != 0 || err != nil {
		t.Errorf("CacheTTL = %v, %v", ttl, err)
	}
}
