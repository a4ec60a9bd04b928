package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-jpeg/codec"
	"github.com/nvr-ai/go-jpeg/rawframe"
)

type Config struct {
	Backend   string         `yaml:"backend"`    // Codec backend name, empty for the build default
	Quality   int            `yaml:"quality"`    // Encoder quality (1-100)
	LogLevel  string         `yaml:"log_level"`  // debug, info, warn or error
	LogFormat string         `yaml:"log_format"` // json or console
	RawFrame  RawFrameConfig `yaml:"rawframe"`
	Bench     BenchConfig    `yaml:"bench"`
}

// Holds raw frame container settings
type RawFrameConfig struct {
	Level uint8 `yaml:"level"` // zstd level (1-4)
}

// Holds benchmark settings
type BenchConfig struct {
	Iterations int `yaml:"iterations"` // Measured runs per operation
	Warmup     int `yaml:"warmup"`     // Discarded runs before measuring
}

// Returns a Config struct with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		Quality:   codec.DefaultQuality,
		LogLevel:  "info",
		LogFormat: "console",
		RawFrame: RawFrameConfig{
			Level: rawframe.DefaultLevel,
		},
		Bench: BenchConfig{
			Iterations: 50,
			Warmup:     5,
		},
	}
}

// Loads configuration from a YAML file. Keys missing from the file keep
// their DefaultConfig values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.Backend != "" {
		if _, err := codec.Lookup(c.Backend); err != nil {
			return fmt.Errorf("backend: %w", err)
		}
	}

	if c.Quality < codec.MinQuality || c.Quality > codec.MaxQuality {
		return fmt.Errorf("quality must be between %d and %d", codec.MinQuality, codec.MaxQuality)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("log_format must be json or console")
	}

	if c.RawFrame.Level < rawframe.FastestLevel || c.RawFrame.Level > rawframe.BestLevel {
		return fmt.Errorf("rawframe.level must be between %d and %d", rawframe.FastestLevel, rawframe.BestLevel)
	}

	if err := validateBenchConfig(&c.Bench); err != nil {
		return fmt.Errorf("invalid bench configuration: %w", err)
	}

	return nil
}

func validateBenchConfig(config *BenchConfig) error {
	if config.Iterations <= 0 {
		return fmt.Errorf("iterations must be greater than 0")
	}

	if config.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative")
	}

	return nil
}

// CodecBackend resolves Backend, falling back to codec.Default.
func (c *Config) CodecBackend() (codec.Backend, error) {
	if c.Backend == "" {
		return codec.Default(), nil
	}
	return codec.Lookup(c.Backend)
}

// NewLogger builds a zap logger for the configured level and format.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	var zc zap.Config
	if c.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = c.LogFormat
	zc.DisableStacktrace = level > zapcore.DebugLevel

	return zc.Build()
}
