package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is read from ~/.dashctl.yaml. Every field is optional.
type Config struct {
	APIURL    string        `yaml:"api_url"`
	StorePath string        `yaml:"store_path"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DefaultConfig points at a local API and keeps state under the home dir.
func DefaultConfig() Config {
	cfg := Config{
		APIURL:  "http://localhost:8080",
		Timeout: 30 * time.Second,
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.APIURL = v
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.StorePath = filepath.Join(home, ".dashctl", "local.db")
	} else {
		cfg.StorePath = ".dashctl.db"
	}
	return cfg
}

// DefaultConfigPath is ~/.dashctl.yaml, or empty when there is no home.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dashctl.yaml")
}

// LoadConfig overlays the file at path on the defaults. A missing file is
// not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg, nil
}
