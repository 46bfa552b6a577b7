package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// ErrConfigurationMissing marks a missing credential or setting that a
// run cannot proceed without.
var ErrConfigurationMissing = errors.New("configuration missing")

type Config struct {
	NewsAPI  NewsAPIConfig  `yaml:"newsapi"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Feeds    []Feed         `yaml:"feeds"`
	Output   Output         `yaml:"output"`
	Server   Server         `yaml:"server"`
}

type NewsAPIConfig struct {
	APIKeyEnv        string `yaml:"api_key_env"`
	BaselinePageSize int    `yaml:"baseline_page_size"`
	ExpandedPageSize int    `yaml:"expanded_page_size"`
	BroadPageSize    int    `yaml:"broad_page_size"`
	BroadQuery       string `yaml:"broad_query"`
}

type GeminiConfig struct {
	APIKeyEnv     string `yaml:"api_key_env"`
	Model         string `yaml:"model"`
	PacingSeconds int    `yaml:"pacing_seconds"`
}

type PipelineConfig struct {
	TargetTotal     int `yaml:"target_total"`
	BaselineTop     int `yaml:"baseline_top"`
	MinContentChars int `yaml:"min_content_chars"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for newslens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newslens")
}

// DataDir returns the XDG data directory for newslens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newslens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newslens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newslens init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		NewsAPI: NewsAPIConfig{
			APIKeyEnv:        "NEWS_API_KEY",
			BaselinePageSize: 5,
			ExpandedPageSize: 2,
			BroadPageSize:    10,
			BroadQuery:       "technology",
		},
		Gemini: GeminiConfig{
			APIKeyEnv:     "GOOGLE_API_KEY",
			Model:         "gemini-1.5-flash",
			PacingSeconds: 2,
		},
		Pipeline: PipelineConfig{
			TargetTotal:     10,
			BaselineTop:     10,
			MinContentChars: 200,
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// NewsAPIKey reads the NewsAPI credential from the configured env var.
func (c *Config) NewsAPIKey() (string, error) {
	key := os.Getenv(c.NewsAPI.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: set %s to your NewsAPI key", ErrConfigurationMissing, c.NewsAPI.APIKeyEnv)
	}
	return key, nil
}

// GeminiKey reads the Gemini credential from the configured env var.
func (c *Config) GeminiKey() (string, error) {
	key := os.Getenv(c.Gemini.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: set %s to your Gemini key", ErrConfigurationMissing, c.Gemini.APIKeyEnv)
	}
	return key, nil
}

// Pacing returns the interval between generation calls.
func (c *Config) Pacing() time.Duration {
	return time.Duration(c.Gemini.PacingSeconds) * time.Second
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
