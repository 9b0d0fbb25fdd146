package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/sublime-tools/monorepo/internal/fileutil"
)

// configFileNames are the names FindConfig/LoadFromDir search for, in
// viper auto-detected format order.
var configFileNames = []string{"monorepo.yaml", "monorepo.yml", "monorepo.json", "monorepo.toml"}

// Load loads the configuration from an exact file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal %s: %w", configPath, err)
	}

	result := cfg.WithDefaults()
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// LoadFromDir loads the configuration from a directory, checking
// .monorepo/ first and then the directory itself.
func LoadFromDir(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("monorepo")
	v.AddConfigPath(filepath.Join(dir, ".monorepo"))
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config from %s: %w", dir, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	result := cfg.WithDefaults()
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindConfig walks up from startDir looking for a monorepo config
// file under a .monorepo/ subdirectory, stopping at the filesystem root.
func FindConfig(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, ".monorepo", name)
			if fileutil.PathExists(candidate) {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("config: no monorepo config found in %s or its parent directories", startDir)
}

// WriteConfig marshals cfg to YAML and writes it atomically.
func WriteConfig(cfg *Config, configPath string) error {
	return fileutil.WriteYAMLFile(configPath, cfg, 0644)
}
