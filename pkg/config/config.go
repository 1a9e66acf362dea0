// Package config handles loading and saving cl configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/cl/config.yaml
//   - State:  ~/.local/state/cl/ (refresh timestamps)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/claimlens/pkg/analysis"
)

// ViewConfig holds the default request parameters per analysis view.
type ViewConfig struct {
	ProviderSortBy    string   `yaml:"provider_sort_by,omitempty"`
	ProviderLimit     int      `yaml:"provider_limit,omitempty"`
	GeographicMetric  string   `yaml:"geographic_metric,omitempty"`
	RiskProviderTypes string   `yaml:"risk_provider_types,omitempty"` // top5, top10, all
	RiskLimit         int      `yaml:"risk_limit,omitempty"`
	CompareBy         string   `yaml:"compare_by,omitempty"` // provider_type, state
	CompareMetrics    []string `yaml:"compare_metrics,omitempty"`
}

// Config is the top-level configuration for cl.
type Config struct {
	// DatabasePath points at the provider billing SQLite database.
	DatabasePath string `yaml:"database_path,omitempty"`

	// Title heads generated reports.
	Title string `yaml:"title,omitempty"`

	Views ViewConfig `yaml:"views,omitempty"`

	// Thresholds override the statistical cutoffs. Zero-valued fields keep
	// the reference defaults.
	Thresholds analysis.Thresholds `yaml:"thresholds,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DatabasePath: filepath.Join("data", "medicare.db"),
		Title:        "Medicare Provider Analytics",
		Views: ViewConfig{
			ProviderSortBy:    analysis.DefaultProviderSortBy,
			ProviderLimit:     analysis.DefaultProviderLimit,
			GeographicMetric:  analysis.DefaultGeographicMetric,
			RiskProviderTypes: "top5",
			RiskLimit:         analysis.DefaultRiskLimit,
			CompareBy:         "provider_type",
			CompareMetrics:    analysis.DefaultComparativeMetrics,
		},
		Thresholds: analysis.DefaultThresholds(),
	}
}

// ConfigDir returns the XDG config directory for cl.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cl")
}

// StateDir returns the XDG state directory for cl.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "cl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "cl")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DatabasePath = expandHome(cfg.DatabasePath)
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
