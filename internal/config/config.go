// Package config handles magic tool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Faultbox/magic-maker/pkg/calibrate"
	"github.com/Faultbox/magic-maker/pkg/catalogue"
	m "github.com/Faultbox/magic-maker/pkg/math"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all tool settings.
type Config struct {
	Export      ExportConfig      `yaml:"export"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Labels      LabelsConfig      `yaml:"labels"`
	Watch       WatchConfig       `yaml:"watch"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ExportConfig holds artifact locations and model metadata.
type ExportConfig struct {
	OutputDir  string `yaml:"output_dir"`
	ModelName  string `yaml:"model_name"`
	ModelIntro string `yaml:"model_intro"`
}

// CalibrationConfig holds the real-world frame settings.
type CalibrationConfig struct {
	UnitSize float64        `yaml:"unit_size" validate:"gt=0"`
	Targets  *TargetsConfig `yaml:"targets,omitempty"` // overrides the unit-scaled defaults
}

// TargetsConfig lists explicit real-world positions for A, B, C and D.
type TargetsConfig struct {
	A [3]float64 `yaml:"a"`
	B [3]float64 `yaml:"b"`
	C [3]float64 `yaml:"c"`
	D [3]float64 `yaml:"d"`
}

// LabelsConfig holds label normalisation settings. Aliases from a config
// file are merged into the default table.
type LabelsConfig struct {
	Aliases            map[string]string `yaml:"aliases"`
	NoLabel            string            `yaml:"no_label" validate:"required"`
	PlaceholderContent string            `yaml:"placeholder_content" validate:"required"`
}

// WatchConfig holds settings for watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			OutputDir: ".",
		},
		Calibration: CalibrationConfig{
			UnitSize: calibrate.DefaultUnitSize,
		},
		Labels: LabelsConfig{
			Aliases:            catalogue.DefaultAliases(),
			NoLabel:            catalogue.DefaultNoLabel,
			PlaceholderContent: catalogue.DefaultPlaceholderContent,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

var validate = validator.New()

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Targets returns the calibration targets: the explicit ones when
// configured, otherwise the defaults scaled by the unit size.
func (c *Config) Targets() calibrate.Targets {
	t := c.Calibration.Targets
	if t == nil {
		return calibrate.DefaultTargets(c.Calibration.UnitSize)
	}
	return calibrate.Targets{
		A: m.FromArray(t.A),
		B: m.FromArray(t.B),
		C: m.FromArray(t.C),
		D: m.FromArray(t.D),
	}
}

// LabelSet returns the label normaliser described by the config.
func (c *Config) LabelSet() catalogue.Labels {
	aliases := make(map[string]string, len(c.Labels.Aliases))
	for k, v := range c.Labels.Aliases {
		aliases[k] = v
	}
	return catalogue.Labels{
		Aliases:     aliases,
		NoLabel:     c.Labels.NoLabel,
		Placeholder: c.Labels.PlaceholderContent,
	}
}
