package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/claimlens/pkg/analysis"
)

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	def := DefaultConfig()
	if cfg.DatabasePath != def.DatabasePath {
		t.Errorf("db path = %q, want default %q", cfg.DatabasePath, def.DatabasePath)
	}
	if cfg.Thresholds != def.Thresholds {
		t.Errorf("thresholds = %+v, want defaults", cfg.Thresholds)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.DatabasePath = "/data/custom.db"
	cfg.Title = "Custom Analytics"
	cfg.Views.ProviderLimit = 30
	cfg.Thresholds.ZScore = 2.5

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.DatabasePath != "/data/custom.db" {
		t.Errorf("db path = %q", loaded.DatabasePath)
	}
	if loaded.Title != "Custom Analytics" {
		t.Errorf("title = %q", loaded.Title)
	}
	if loaded.Views.ProviderLimit != 30 {
		t.Errorf("provider limit = %d", loaded.Views.ProviderLimit)
	}
	if loaded.Thresholds.ZScore != 2.5 {
		t.Errorf("z-score = %v", loaded.Thresholds.ZScore)
	}
}

func TestLoadFrom_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "title: Only A Title\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Title != "Only A Title" {
		t.Errorf("title = %q", cfg.Title)
	}
	// Unspecified fields keep their defaults.
	if cfg.Views.ProviderSortBy != analysis.DefaultProviderSortBy {
		t.Errorf("sort by = %q, want default", cfg.Views.ProviderSortBy)
	}
	if cfg.Thresholds != analysis.DefaultThresholds() {
		t.Errorf("thresholds = %+v, want defaults", cfg.Thresholds)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("invalid YAML accepted")
	}
}

func TestConfigDir_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	if got := ConfigDir(); got != filepath.Join("/tmp/xdg-test", "cl") {
		t.Errorf("ConfigDir = %q", got)
	}
	if got := ConfigPath(); got != filepath.Join("/tmp/xdg-test", "cl", "config.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
}
