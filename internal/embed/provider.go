// Package embed provides the embedding-provider boundary: a single
// Embed(text) -> vector operation, backed by either a local ONNX runtime
// (FastEmbed) or a remote TEI-compatible HTTP endpoint.
package embed

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates empty input text.
	ErrEmptyInput = errors.New("embed: empty input text")
	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("embed: invalid configuration")
	// ErrEmbeddingFailed indicates the underlying provider failed to embed.
	ErrEmbeddingFailed = errors.New("embed: embedding generation failed")
)

// Provider is the core's view of an embedding backend: deterministic,
// fixed-dimension, safe for concurrent calls.
type Provider interface {
	// Embed returns a dense vector for text. Implementations MUST honor
	// ctx cancellation before doing any network or model work.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// Config selects and configures a Provider.
type Config struct {
	// Kind is "fastembed" (default, local ONNX) or "tei" (remote HTTP).
	Kind string `koanf:"kind"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// BaseURL is the TEI server URL (tei only).
	BaseURL string `koanf:"base_url"`
	// CacheDir is the local model cache directory (fastembed only).
	CacheDir string `koanf:"cache_dir"`
}

// New constructs a Provider from Config.
func New(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case "fastembed", "":
		return newFastEmbedProvider(cfg)
	case "tei":
		return newHTTPProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider kind %q", ErrInvalidConfig, cfg.Kind)
	}
}
