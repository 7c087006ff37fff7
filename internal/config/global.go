package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML file named by PREGRIND_CONFIG. Every
// field is overridden by the matching environment variable.
type fileConfig struct {
	Verbose   int      `yaml:"verbose"`
	Flags     []string `yaml:"flags"`
	LogPath   string   `yaml:"log_path"`
	Disable   bool     `yaml:"disable"`
	Blacklist string   `yaml:"blacklist"`
	Patterns  []string `yaml:"patterns"`
	Tool      string   `yaml:"tool"`
	Journal   string   `yaml:"journal"`
	Preload   string   `yaml:"preload"`
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return fc, nil
}
