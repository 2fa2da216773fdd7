package common

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSocketConfig reads a YAML file on top of DefaultSocketConfig.
// ${VAR} references in the file are expanded from the environment before parsing.
func LoadSocketConfig(path string) (SocketConfig, error) {
	cfg := DefaultSocketConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := ParseSocketConfig(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseSocketConfig decodes YAML into cfg, fields missing in data keep their value
func ParseSocketConfig(data []byte, cfg *SocketConfig) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return err
	}
	return cfg.Validate()
}
