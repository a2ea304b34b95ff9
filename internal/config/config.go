// Package config loads nluengine's configuration: tunables, embedding
// provider selection, and the on-disk locations of the vocabulary and
// rule documents.
package config

import (
	"fmt"
	"time"
)

// ServerConfig configures the HTTP transport (pkg/server).
type ServerConfig struct {
	HTTPPort        int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures the zap-backed logger.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"` // "json" or "console"
}

// EmbedConfig mirrors embed.Config's on-disk shape.
type EmbedConfig struct {
	Kind     string `koanf:"kind"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	CacheDir string `koanf:"cache_dir"`
}

// RulesConfig points at the on-disk recognition configuration documents.
type RulesConfig struct {
	VocabularyPath     string `koanf:"vocabulary_path"`
	RuleDir            string `koanf:"rule_dir"`
	DomainExamplesPath string `koanf:"domain_examples_path"`
	IntentExamplesPath string `koanf:"intent_examples_path"`
}

// ThresholdsConfig gates the regex paths (confidence) and the
// embedding-based paths (similarity).
type ThresholdsConfig struct {
	Confidence float64 `koanf:"confidence"`
	Similarity float64 `koanf:"similarity"`
}

// CacheConfig bounds the classifier and intent-matcher result caches.
type CacheConfig struct {
	DomainCacheSize int `koanf:"domain_cache_size"`
	IntentCacheSize int `koanf:"intent_cache_size"`
}

// Config is the root configuration document.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Embed      EmbedConfig      `koanf:"embed"`
	Rules      RulesConfig      `koanf:"rules"`
	Thresholds ThresholdsConfig `koanf:"thresholds"`
	Cache      CacheConfig      `koanf:"cache"`
}

// Validate rejects configurations that would otherwise fail confusingly
// deep inside startup (missing rule directory, nonsensical thresholds).
func (c *Config) Validate() error {
	if c.Rules.VocabularyPath == "" {
		return fmt.Errorf("rules.vocabulary_path is required")
	}
	if c.Rules.RuleDir == "" {
		return fmt.Errorf("rules.rule_dir is required")
	}
	if c.Thresholds.Confidence < 0 || c.Thresholds.Confidence > 1 {
		return fmt.Errorf("thresholds.confidence must be in [0,1], got %v", c.Thresholds.Confidence)
	}
	if c.Thresholds.Similarity < 0 || c.Thresholds.Similarity > 1 {
		return fmt.Errorf("thresholds.similarity must be in [0,1], got %v", c.Thresholds.Similarity)
	}
	return nil
}

// applyDefaults fills in unset recognition tunables (confidence 0.5,
// similarity 0.6) and service defaults (server port, shutdown timeout,
// logging, embedding kind and model, cache sizes). The rule document paths
// and the embedding base_url and cache_dir get no default.
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Encoding == "" {
		cfg.Logging.Encoding = "json"
	}
	if cfg.Embed.Kind == "" {
		cfg.Embed.Kind = "fastembed"
	}
	if cfg.Embed.Model == "" {
		cfg.Embed.Model = "BAAI/bge-small-zh-v1.5"
	}
	if cfg.Thresholds.Confidence == 0 {
		cfg.Thresholds.Confidence = 0.5
	}
	if cfg.Thresholds.Similarity == 0 {
		cfg.Thresholds.Similarity = 0.6
	}
	if cfg.Cache.DomainCacheSize == 0 {
		cfg.Cache.DomainCacheSize = 2048
	}
	if cfg.Cache.IntentCacheSize == 0 {
		cfg.Cache.IntentCacheSize = 2048
	}
}
