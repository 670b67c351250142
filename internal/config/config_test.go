package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/magic-maker/pkg/calibrate"
	m "github.com/Faultbox/magic-maker/pkg/math"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Export.OutputDir != "." {
		t.Errorf("expected output dir '.', got %s", cfg.Export.OutputDir)
	}
	if cfg.Calibration.UnitSize != 14.0/30.0 {
		t.Errorf("expected unit size 14/30, got %f", cfg.Calibration.UnitSize)
	}
	if cfg.Calibration.Targets != nil {
		t.Error("expected no explicit targets by default")
	}
	if cfg.Labels.Aliases["Cockpit"] != "cockpit" {
		t.Errorf("expected Cockpit alias 'cockpit', got %q", cfg.Labels.Aliases["Cockpit"])
	}
	if cfg.Labels.NoLabel != "no label" {
		t.Errorf("expected no_label 'no label', got %s", cfg.Labels.NoLabel)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
export:
  output_dir: "/srv/talkit"
  model_name: "plane"
  model_intro: "A small plane"

calibration:
  unit_size: 2
  targets:
    a: [2, 0, 0]
    b: [0, 0, 0]
    c: [0, 0, 2]
    d: [0, 2, 0]

labels:
  aliases:
    Wing: "wing"
  no_label: "unlabelled"

watch:
  debounce: 2s

logging:
  level: "debug"
  log_file: "magic.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.OutputDir != "/srv/talkit" {
		t.Errorf("expected output dir /srv/talkit, got %s", cfg.Export.OutputDir)
	}
	if cfg.Export.ModelName != "plane" {
		t.Errorf("expected model name plane, got %s", cfg.Export.ModelName)
	}
	if cfg.Calibration.UnitSize != 2 {
		t.Errorf("expected unit size 2, got %f", cfg.Calibration.UnitSize)
	}
	if cfg.Calibration.Targets == nil || cfg.Calibration.Targets.D != [3]float64{0, 2, 0} {
		t.Errorf("expected explicit targets, got %+v", cfg.Calibration.Targets)
	}

	// File aliases are merged into the defaults.
	if cfg.Labels.Aliases["Wing"] != "wing" {
		t.Errorf("expected Wing alias, got %v", cfg.Labels.Aliases)
	}
	if cfg.Labels.Aliases["Jet engine"] != "engine" {
		t.Errorf("expected default aliases to survive, got %v", cfg.Labels.Aliases)
	}
	if cfg.Labels.NoLabel != "unlabelled" {
		t.Errorf("expected no_label 'unlabelled', got %s", cfg.Labels.NoLabel)
	}
	if cfg.Labels.PlaceholderContent != "This face has no content." {
		t.Errorf("expected default placeholder, got %s", cfg.Labels.PlaceholderContent)
	}

	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("expected debounce 2s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "magic.log" {
		t.Errorf("expected log file 'magic.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
calibration:
  unit_size: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/magicmaker.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero unit size", func(c *Config) { c.Calibration.UnitSize = 0 }},
		{"negative unit size", func(c *Config) { c.Calibration.UnitSize = -1 }},
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"empty no_label", func(c *Config) { c.Labels.NoLabel = "" }},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestTargets(t *testing.T) {
	cfg := Default()
	cfg.Calibration.UnitSize = 3

	got := cfg.Targets()
	if got != calibrate.DefaultTargets(3) {
		t.Errorf("expected unit-scaled targets, got %+v", got)
	}

	cfg.Calibration.Targets = &TargetsConfig{
		A: [3]float64{1, 2, 3},
		D: [3]float64{4, 5, 6},
	}
	got = cfg.Targets()
	if got.A != m.V3(1, 2, 3) || got.D != m.V3(4, 5, 6) || got.B != m.V3(0, 0, 0) {
		t.Errorf("expected explicit targets, got %+v", got)
	}
}

func TestLabelSet(t *testing.T) {
	cfg := Default()
	labels := cfg.LabelSet()

	if labels.Canonical("Cockpit") != "cockpit" {
		t.Errorf("expected cockpit, got %s", labels.Canonical("Cockpit"))
	}

	// The label set owns its alias table.
	labels.Aliases["Cockpit"] = "changed"
	if cfg.Labels.Aliases["Cockpit"] != "cockpit" {
		t.Error("label set shares its alias map with the config")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("export:\n  model_name: plane\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides Overrides
		verify    func(*testing.T, *Config)
	}{
		{
			name:      "debug",
			overrides: Overrides{Debug: true},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name:      "export metadata",
			overrides: Overrides{OutputDir: "out", ModelName: "jet", ModelIntro: "A jet"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.OutputDir != "out" || cfg.Export.ModelName != "jet" || cfg.Export.ModelIntro != "A jet" {
					t.Errorf("unexpected export config %+v", cfg.Export)
				}
			},
		},
		{
			name:      "unit size",
			overrides: Overrides{UnitSize: 0.25},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Calibration.UnitSize != 0.25 {
					t.Errorf("expected unit size 0.25, got %f", cfg.Calibration.UnitSize)
				}
			},
		},
		{
			name:      "empty overrides keep defaults",
			overrides: Overrides{},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.OutputDir != "." || cfg.Logging.Level != "info" {
					t.Errorf("defaults changed: %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.overrides.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
export:
  output_dir: "from-file"
  model_name: "file-model"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(Overrides{ConfigPath: configPath, OutputDir: "from-flag"})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Output dir should be from flag, not file
	if cfg.Export.OutputDir != "from-flag" {
		t.Errorf("expected output dir from flag, got %s", cfg.Export.OutputDir)
	}
	// Model name should be from file since no flag override
	if cfg.Export.ModelName != "file-model" {
		t.Errorf("expected model name from file, got %s", cfg.Export.ModelName)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, []byte("calibration:\n  unit_size: -2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(Overrides{ConfigPath: configPath}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Export.ModelName = "saved"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(Overrides{ConfigPath: path})
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Export.ModelName != "saved" {
		t.Errorf("expected model name 'saved', got %s", loaded.Export.ModelName)
	}
	if loaded.Watch.Debounce != cfg.Watch.Debounce {
		t.Errorf("expected debounce %v, got %v", cfg.Watch.Debounce, loaded.Watch.Debounce)
	}
}
