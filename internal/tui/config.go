package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ClientConfig holds terminal client settings, loaded from
// ~/.taskdeck.yaml when present.
type ClientConfig struct {
	// BackendURL is the base URL of the API server.
	BackendURL string `yaml:"backend_url"`
}

// DefaultBackendURL is used when no config file or environment
// override is present.
const DefaultBackendURL = "http://127.0.0.1:8000"

// configFileName is looked up in the user's home directory.
const configFileName = ".taskdeck.yaml"

// LoadClientConfig resolves client settings in order of precedence:
// the BACKEND_URL environment variable, then ~/.taskdeck.yaml, then
// the built-in default. A missing config file is not an error.
func LoadClientConfig() (*ClientConfig, error) {
	cfg := &ClientConfig{BackendURL: DefaultBackendURL}

	home, err := os.UserHomeDir()
	if err == nil {
		if loaded, err := loadConfigFile(filepath.Join(home, configFileName)); err != nil {
			return nil, err
		} else if loaded != nil && loaded.BackendURL != "" {
			cfg.BackendURL = loaded.BackendURL
		}
	}

	if url := os.Getenv("BACKEND_URL"); url != "" {
		cfg.BackendURL = url
	}

	return cfg, nil
}

// loadConfigFile parses a yaml config file. Returns (nil, nil) if the
// file does not exist.
func loadConfigFile(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
