// internal/logging/config.go
package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration. No OTEL bridge and no sampling
// machinery: a single-process NLU core emits at most a handful of lines
// per request (one per race path plus the outcome).
type Config struct {
	Level     zapcore.Level   `koanf:"level"`
	Format    string          `koanf:"format"`
	Caller    CallerConfig    `koanf:"caller"`
	Redaction RedactionConfig `koanf:"redaction"`
}

// CallerConfig controls caller information in logs.
type CallerConfig struct {
	Enabled bool `koanf:"enabled"`
	Skip    int  `koanf:"skip"`
}

// RedactionConfig bounds how much of a raw user utterance a log line may
// carry, so bulk exports never capture unbounded spoken text.
type RedactionConfig struct {
	Enabled  bool `koanf:"enabled"`
	MaxRunes int  `koanf:"max_runes"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Caller: CallerConfig{
			Enabled: true,
			Skip:    1,
		},
		Redaction: RedactionConfig{
			Enabled:  true,
			MaxRunes: 64,
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if c.Caller.Enabled && c.Caller.Skip < 0 {
		return fmt.Errorf("caller skip must be >= 0, got %d", c.Caller.Skip)
	}
	if c.Redaction.Enabled && c.Redaction.MaxRunes <= 0 {
		return fmt.Errorf("redaction.max_runes must be > 0 when redaction enabled")
	}
	return nil
}
