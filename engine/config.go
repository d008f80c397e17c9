package engine

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"memscan/scantype"
)

// Config tunes the scan driver. The zero value means "pick sensible
// defaults at runtime": worker count from the CPU count, vector width
// from the CPU probe.
type Config struct {
	// Workers is the scan worker pool size, 0 for the CPU count
	Workers int `yaml:"workers" validate:"gte=0,lte=1024"`

	// VectorWidth overrides the probed vector row width
	VectorWidth int `yaml:"vector_width" validate:"omitempty,oneof=16 32 64"`

	// ProgressInterval reports progress every N completed regions,
	// 0 for one percent of the region count
	ProgressInterval int `yaml:"progress_interval" validate:"gte=0"`
}

var validate = validator.New()

// Validate checks the configuration bounds
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", scantype.ErrInvalidArguments, err)
	}
	return nil
}

// LoadConfig reads and validates a YAML config file
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
