package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider %q, got %q", ProviderGoogle, cfg.Provider)
	}
	if cfg.Model != "gemini-2.5-flash" {
		t.Errorf("expected default model gemini-2.5-flash, got %q", cfg.Model)
	}
	if cfg.Format != "png" {
		t.Errorf("expected default format png, got %q", cfg.Format)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Timeout() != 2*time.Minute {
		t.Errorf("expected 2m timeout, got %v", cfg.Timeout())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.umlgen.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Quality = QualityMax
	original.Format = "svg"
	original.DataDir = filepath.Join(dir, "data")
	original.RateLimitRPM = 30
	original.RememberCredential = false
	original.Log.Format = "json"

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Quality != original.Quality {
		t.Errorf("quality: got %q, want %q", loaded.Quality, original.Quality)
	}
	if loaded.Format != "svg" {
		t.Errorf("format: got %q", loaded.Format)
	}
	if loaded.RateLimitRPM != 30 {
		t.Errorf("rate_limit_rpm: got %d", loaded.RateLimitRPM)
	}
	if loaded.RememberCredential {
		t.Error("remember_credential should round-trip as false")
	}
	if loaded.Log.Format != "json" {
		t.Errorf("log.format: got %q", loaded.Log.Format)
	}
	if loaded.DBPath() != filepath.Join(dir, "data", "umlgen.db") {
		t.Errorf("DBPath: got %q", loaded.DBPath())
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	t.Setenv("UMLGEN_PROVIDER", "anthropic")
	t.Setenv("UMLGEN_LOG_LEVEL", "debug")
	t.Setenv("UMLGEN_RENDER_URL", "http://localhost:8081")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderAnthropic {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderAnthropic)
	}
	if loaded.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("model should follow the provider preset, got %q", loaded.Model)
	}
	if loaded.Log.Level != "debug" {
		t.Errorf("log.level: got %q", loaded.Log.Level)
	}
	if loaded.RenderURL != "http://localhost:8081" {
		t.Errorf("render_url: got %q", loaded.RenderURL)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"UMLGEN_PROVIDER":           "provider",
		"UMLGEN_RATE_LIMIT_RPM":     "rate_limit_rpm",
		"UMLGEN_LOG_FORMAT":         "log.format",
		"UMLGEN_GENERATION_TIMEOUT": "generation_timeout",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }, true},
		{"empty provider", func(c *Config) { c.Provider = "" }, true},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"invalid quality", func(c *Config) { c.Quality = "ultra" }, true},
		{"invalid format", func(c *Config) { c.Format = "gif" }, true},
		{"uppercase format", func(c *Config) { c.Format = "SVG" }, false},
		{"empty render url", func(c *Config) { c.RenderURL = "" }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"negative timeout", func(c *Config) { c.GenerationTimeout = -1 }, true},
		{"negative rpm", func(c *Config) { c.RateLimitRPM = -5 }, true},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset(ProviderGoogle, QualityMax)
	if p.Model != "gemini-2.5-pro" {
		t.Errorf("expected gemini-2.5-pro, got %q", p.Model)
	}

	p = GetPreset(ProviderOpenAI, QualityMax)
	if p.Model != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %q", p.Model)
	}

	// Unknown combination falls back.
	p = GetPreset("unknown", QualityLite)
	if p.Model != "gemini-2.5-flash" {
		t.Errorf("expected fallback to gemini-2.5-flash, got %q", p.Model)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	for _, ok := range []string{"1", "8080", "65535"} {
		if err := validatePort(ok); err != nil {
			t.Errorf("validatePort(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "abc", "0", "70000"} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) should fail", bad)
		}
	}
}
