package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all myelin configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Station    StationConfig    `yaml:"station"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type StationConfig struct {
	ID string `yaml:"id"`
}

type ClassifierConfig struct {
	Provider       string `yaml:"provider"` // "http", "keyword"
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// Timeout returns the classifier call timeout as a duration.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type EvolutionConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval returns the evolution cycle interval as a duration.
func (e EvolutionConfig) Interval() time.Duration {
	if e.IntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(e.IntervalMinutes) * time.Minute
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37901,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Station: StationConfig{
			ID: "station-1",
		},
		Classifier: ClassifierConfig{
			Provider:       "keyword",
			TimeoutSeconds: 5,
		},
		Evolution: EvolutionConfig{
			IntervalMinutes: 15,
		},
	}
}

// DefaultPath returns the default config file path: ~/.myelin/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".myelin", "config.yaml"), nil
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadOrDefault loads the default config file if present, otherwise
// returns defaults. Environment overrides always apply.
func LoadOrDefault() Config {
	path, err := DefaultPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if cfg, loadErr := Load(path); loadErr == nil {
				return cfg
			}
		}
	}
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MYELIN_STATION"); v != "" {
		c.Station.ID = v
	}
	if v := os.Getenv("MYELIN_CLASSIFIER_URL"); v != "" {
		c.Classifier.Provider = "http"
		c.Classifier.URL = v
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
