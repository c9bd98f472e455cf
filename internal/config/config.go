// Package config holds the converter settings and loads them from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the extraction thresholds and default paths.
type Config struct {
	InputDir        string `yaml:"input_dir"`
	OutputPath      string `yaml:"output_path"`
	DefaultLanguage string `yaml:"default_language"`

	// MinContentLength is the minimum rune count of a chapter's text.
	MinContentLength int `yaml:"min_content_length"`
	// InferredTitleLength truncates a title taken from body text.
	InferredTitleLength int `yaml:"inferred_title_length"`
	// InferredTitleMinSource is the minimum length of a paragraph used as a title source.
	InferredTitleMinSource int `yaml:"inferred_title_min_source"`

	Workers      int   `yaml:"workers"`
	MaxEntrySize int64 `yaml:"max_entry_size"`

	Cover CoverConfig `yaml:"cover"`
}

// CoverConfig controls the optional cover thumbnail export.
type CoverConfig struct {
	MaxWidth    int `yaml:"max_width"`
	JPEGQuality int `yaml:"jpeg_quality"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		InputDir:               "books",
		OutputPath:             "public/data/book.json",
		DefaultLanguage:        "ja",
		MinContentLength:       24,
		InferredTitleLength:    22,
		InferredTitleMinSource: 6,
		MaxEntrySize:           256 * 1024 * 1024,
		Cover: CoverConfig{
			MaxWidth:    600,
			JPEGQuality: 85,
		},
	}
}

// LoadFile reads a YAML file over Default. Keys absent from the file keep
// their defaults; unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML data over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	switch {
	case c.MinContentLength < 0:
		return fmt.Errorf("%w: min_content_length must be >= 0", ErrInvalidConfig)
	case c.InferredTitleLength <= 0:
		return fmt.Errorf("%w: inferred_title_length must be > 0", ErrInvalidConfig)
	case c.InferredTitleMinSource < 0:
		return fmt.Errorf("%w: inferred_title_min_source must be >= 0", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidConfig)
	case c.MaxEntrySize <= 0:
		return fmt.Errorf("%w: max_entry_size must be > 0", ErrInvalidConfig)
	case c.Cover.MaxWidth <= 0:
		return fmt.Errorf("%w: cover.max_width must be > 0", ErrInvalidConfig)
	case c.Cover.JPEGQuality < 1 || c.Cover.JPEGQuality > 100:
		return fmt.Errorf("%w: cover.jpeg_quality must be between 1 and 100", ErrInvalidConfig)
	}
	return nil
}

// WorkerCount resolves Workers, where 0 means one per CPU.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
