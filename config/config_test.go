package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/generation"
)

func validConfig() Config {
	cfg := Config{}
	cfg.Engine.BaseURL = "http://engine.local"
	cfg.Providers = []generation.HTTPConfig{
		{Name: "primary", BaseURL: "http://provider.local"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Name != "flowkitd" {
		t.Errorf("name = %q, want flowkitd", cfg.Name)
	}
	if cfg.Environment != "development" {
		t.Errorf("environment = %q, want development", cfg.Environment)
	}
	if !cfg.Debug {
		t.Error("expected debug=true for development")
	}
	if cfg.Catalog.TTL <= 0 {
		t.Error("expected catalog TTL default")
	}
	if cfg.Template.ExactIntegrations == 0 {
		t.Error("expected template weight defaults")
	}
	if cfg.Repair.MaxAttempts <= 0 {
		t.Error("expected repair max attempts default")
	}
	if cfg.Tracing.ServiceName != "flowkitd" {
		t.Errorf("tracing service name = %q, want flowkitd", cfg.Tracing.ServiceName)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "environment must be one of"},
		{"missing engine url", func(c *Config) { c.Engine.BaseURL = "" }, "engine.base_url is required"},
		{"no providers", func(c *Config) { c.Providers = nil }, "at least one generation provider"},
		{"unnamed provider", func(c *Config) { c.Providers[0].Name = "" }, "providers[0].name is required"},
		{"duplicate provider", func(c *Config) {
			c.Providers = append(c.Providers, c.Providers[0])
		}, "duplicate provider name"},
		{"postgres without dsn", func(c *Config) {
			c.Store.Driver = "postgres"
			c.Store.DSN = ""
		}, "dsn is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("error = %q, want containing %q", err.Error(), tc.errMsg)
			}
		})
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: flowkitd
environment: staging
engine:
  base_url: http://engine.local
providers:
  - name: primary
    base_url: http://provider.local
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	var cfg Config
	if err := Load(&cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("environment = %q, want staging", cfg.Environment)
	}
	if cfg.Engine.BaseURL != "http://engine.local" {
		t.Errorf("engine base url = %q", cfg.Engine.BaseURL)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Name != "primary" {
		t.Errorf("providers = %+v", cfg.Providers)
	}
}

func TestLoadMissingFileSucceeds(t *testing.T) {
	var cfg Config
	if err := Load(&cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("Load() with missing file should succeed, got %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FLOWKIT_ENGINE_BASE_URL", "http://from-env.local")

	var cfg Config
	if err := Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.BaseURL != "http://from-env.local" {
		t.Errorf("engine base url = %q, want env override", cfg.Engine.BaseURL)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)

	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("config file = %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("env file = %q", lc.EnvFile)
	}
}

func TestKeyVariants(t *testing.T) {
	variants := keyVariants("engine_base_url")
	want := map[string]bool{
		"engine_base_url": true,
		"engine.base.url": true,
		"engine.base_url": true,
	}
	for _, v := range variants {
		delete(want, v)
	}
	if len(want) != 0 {
		t.Errorf("missing variants: %v (got %v)", want, variants)
	}
}
