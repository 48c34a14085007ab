package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 37901 {
		t.Errorf("Port = %d, want 37901", cfg.Server.Port)
	}
	if cfg.Classifier.Provider != "keyword" {
		t.Errorf("Classifier.Provider = %q, want keyword", cfg.Classifier.Provider)
	}
	if cfg.Evolution.Interval() != 15*time.Minute {
		t.Errorf("Evolution.Interval = %v, want 15m", cfg.Evolution.Interval())
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "127.0.0.1:37901" {
		t.Errorf("ListenAddr = %q", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 4000
station:
  id: st-test
classifier:
  provider: http
  url: http://localhost:9000
  timeout: 2
evolution:
  interval_minutes: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Port = %d, want 4000", cfg.Server.Port)
	}
	// Defaults survive for unset fields
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want default 127.0.0.1", cfg.Server.Bind)
	}
	if cfg.Station.ID != "st-test" {
		t.Errorf("Station.ID = %q, want st-test", cfg.Station.ID)
	}
	if cfg.Classifier.Timeout() != 2*time.Second {
		t.Errorf("Classifier.Timeout = %v, want 2s", cfg.Classifier.Timeout())
	}
	if cfg.Evolution.Interval() != 5*time.Minute {
		t.Errorf("Evolution.Interval = %v, want 5m", cfg.Evolution.Interval())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MYELIN_STATION", "st-env")
	t.Setenv("MYELIN_CLASSIFIER_URL", "http://classifier:8080")

	cfg := LoadOrDefault()
	if cfg.Station.ID != "st-env" {
		t.Errorf("Station.ID = %q, want st-env", cfg.Station.ID)
	}
	if cfg.Classifier.Provider != "http" || cfg.Classifier.URL != "http://classifier:8080" {
		t.Errorf("Classifier = %+v, want http provider with env url", cfg.Classifier)
	}
}
