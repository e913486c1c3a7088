package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv is consulted when the config file carries no Jina API key.
const APIKeyEnv = "JINA_API_KEY"

// ConfigPath returns the default configuration file path: ~/.deepsearch/config.json.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// DataDir returns the deepsearch data directory: ~/.deepsearch.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deepsearch"
	}
	return filepath.Join(home, ".deepsearch")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads and parses the config file at path.
// If path is empty, ConfigPath() is used. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON.
// On parse failure it logs a warning and returns DefaultConfig().
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnv(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		slog.Warn("failed to parse config, using defaults", "path", path, "err", err)
		cfg = DefaultConfig()
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if strings.TrimSpace(cfg.Tools.DeepSearch.APIKey) != "" {
		return
	}
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		cfg.Tools.DeepSearch.APIKey = key
	}
}

// Save writes cfg to path as indented JSON, or YAML when path ends in .yaml/.yml.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
