package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.NewsAPI.APIKeyEnv != "NEWS_API_KEY" {
		t.Errorf("expected NEWS_API_KEY env var, got %q", cfg.NewsAPI.APIKeyEnv)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Errorf("expected model 'gemini-1.5-flash', got %q", cfg.Gemini.Model)
	}
	if cfg.Pipeline.TargetTotal != 10 {
		t.Errorf("expected target total 10, got %d", cfg.Pipeline.TargetTotal)
	}
	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
gemini:
  model: gemini-1.5-pro
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Gemini.Model != "gemini-1.5-pro" {
		t.Errorf("expected model 'gemini-1.5-pro', got %q", cfg.Gemini.Model)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.NewsAPI.BaselinePageSize != 5 {
		t.Errorf("expected default baseline page size, got %d", cfg.NewsAPI.BaselinePageSize)
	}
	if cfg.Gemini.PacingSeconds != 2 {
		t.Errorf("expected default pacing, got %d", cfg.Gemini.PacingSeconds)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestAPIKeysFromEnv(t *testing.T) {
	cfg, err := parse(nil)
	if err != nil {
		t.Fatalf("failed to parse empty config: %v", err)
	}

	t.Setenv("NEWS_API_KEY", "")
	if _, err := cfg.NewsAPIKey(); !errors.Is(err, ErrConfigurationMissing) {
		t.Errorf("expected ErrConfigurationMissing, got %v", err)
	}

	t.Setenv("NEWS_API_KEY", "abc123")
	key, err := cfg.NewsAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "abc123" {
		t.Errorf("expected key from env, got %q", key)
	}

	t.Setenv("GOOGLE_API_KEY", "")
	_, err = cfg.GeminiKey()
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Errorf("expected ErrConfigurationMissing, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "GOOGLE_API_KEY") {
		t.Errorf("error should name the missing variable: %v", err)
	}
}

func TestPacing(t *testing.T) {
	cfg := &Config{Gemini: GeminiConfig{PacingSeconds: 3}}
	if got := cfg.Pacing(); got != 3*time.Second {
		t.Errorf("expected 3s pacing, got %v", got)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8000\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	resolved, err := ResolveConfigPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != path {
		t.Errorf("expected %q, got %q", path, resolved)
	}

	if _, err := ResolveConfigPath(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}
