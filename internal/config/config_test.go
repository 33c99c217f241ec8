package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	defer Reset()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AI.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Expected default model gemini-2.5-flash, got %s", cfg.AI.Gemini.Model)
	}
	if !reflect.DeepEqual(cfg.AI.Gemini.FallbackModels, DefaultFallbackModels) {
		t.Errorf("Expected default fallback list, got %v", cfg.AI.Gemini.FallbackModels)
	}
	if cfg.Generation.MinChars != 1600 || cfg.Generation.MaxChars != 2000 {
		t.Errorf("Unexpected length target %d-%d", cfg.Generation.MinChars, cfg.Generation.MaxChars)
	}
	if cfg.Generation.QuotaRetries != 2 {
		t.Errorf("Expected 2 quota retries, got %d", cfg.Generation.QuotaRetries)
	}
	if cfg.Server.SessionTTL != 2*time.Hour {
		t.Errorf("Expected 2h session TTL, got %v", cfg.Server.SessionTTL)
	}
	if cfg.Templates.Backend != "sqlite" {
		t.Errorf("Expected sqlite template backend, got %s", cfg.Templates.Backend)
	}
	if cfg.AI.Gemini.APIKey != "" {
		t.Errorf("Expected no API key, got %q", cfg.AI.Gemini.APIKey)
	}
}

func TestLoadEnvironmentKeys(t *testing.T) {
	Reset()
	defer Reset()
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "from-alt")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AI.Gemini.APIKey != "from-alt" {
		t.Errorf("Expected alternate env key to be used, got %q", cfg.AI.Gemini.APIKey)
	}
	if cfg.AI.OpenAI.APIKey != "sk-test" {
		t.Errorf("Expected OpenAI key, got %q", cfg.AI.OpenAI.APIKey)
	}
}

func TestLoadConfigFile(t *testing.T) {
	Reset()
	defer Reset()
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	content := `
ai:
  gemini:
    model: gemini-2.0-flash
    fallback_models: [gemini-1.5-flash]
generation:
  transient_delay: 500ms
  reference_date: "2025-11"
text:
  script: latin
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AI.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Expected model from file, got %s", cfg.AI.Gemini.Model)
	}
	if !reflect.DeepEqual(cfg.AI.Gemini.FallbackModels, []string{"gemini-1.5-flash"}) {
		t.Errorf("Expected fallback list from file, got %v", cfg.AI.Gemini.FallbackModels)
	}
	if got := Duration(cfg.Generation.TransientDelay, time.Second); got != 500*time.Millisecond {
		t.Errorf("Expected 500ms transient delay, got %v", got)
	}
	ref := cfg.Generation.ReferenceTime()
	if ref.Year() != 2025 || ref.Month() != time.November {
		t.Errorf("Expected reference date 2025-11, got %v", ref)
	}
	if cfg.App.ConfigFile != path {
		t.Errorf("Expected config file %s, got %s", path, cfg.App.ConfigFile)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Generation: Generation{MinChars: 1600, MaxChars: 2000},
			Templates:  Templates{Backend: "sqlite"},
			Visual:     Visual{Provider: "solid"},
			Logging:    Logging{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Templates.Backend = "firestore" }, "Unknown templates backend"},
		{"postgres without url", func(c *Config) { c.Templates.Backend = "postgres" }, "no connection string"},
		{"openai images without key", func(c *Config) { c.Visual.Provider = "openai" }, "OPENAI_API_KEY"},
		{"inverted lengths", func(c *Config) { c.Generation.MaxChars = 10 }, "max_chars"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging format"},
		{"temperature too high", func(c *Config) { c.AI.Gemini.Temperature = 3 }, "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPostProcessRejectsBadValues(t *testing.T) {
	cfg := &Config{Generation: Generation{TransientDelay: "soon"}}
	if err := postProcessConfig(cfg); err == nil {
		t.Error("Expected error for invalid duration")
	}

	cfg = &Config{Generation: Generation{ReferenceDate: "February"}}
	if err := postProcessConfig(cfg); err == nil {
		t.Error("Expected error for invalid reference date")
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		level string
		want  string
	}{
		{"configured level", false, "warn", "warn"},
		{"debug flag wins", true, "warn", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{App: App{Debug: tt.debug}, Logging: Logging{Level: tt.level}}
			if got := cfg.LogLevel(); got != tt.want {
				t.Errorf("LogLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}
