package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name searched for in standard locations.
const FileName = "magicmaker.yaml"

// Overrides carries command-line values. Zero values leave the loaded
// config untouched.
type Overrides struct {
	ConfigPath string
	Debug      bool
	OutputDir  string
	ModelName  string
	ModelIntro string
	UnitSize   float64
}

// Load loads configuration with priority: defaults < file < flags.
func Load(o Overrides) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Explicit path takes priority over the search
	configPath := o.ConfigPath
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply applies CLI overrides to the config.
func (o Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.OutputDir != "" {
		cfg.Export.OutputDir = o.OutputDir
	}
	if o.ModelName != "" {
		cfg.Export.ModelName = o.ModelName
	}
	if o.ModelIntro != "" {
		cfg.Export.ModelIntro = o.ModelIntro
	}
	if o.UnitSize > 0 {
		cfg.Calibration.UnitSize = o.UnitSize
	}
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + FileName,
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MagicMaker")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MagicMaker")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "magic-maker")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "magic-maker")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
