package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// httpProvider embeds text via a remote TEI-compatible HTTP endpoint.
type httpProvider struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

// teiRequest is the request body for the TEI /embed endpoint.
type teiRequest struct {
	Inputs   string `json:"inputs"`
	Truncate bool   `json:"truncate"`
}

func newHTTPProvider(cfg Config) (Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url required for tei provider", ErrInvalidConfig)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	dimension, ok := modelDimensions[modelMapping[model]]
	if !ok {
		// Unknown to our local mapping; the remote service still decides
		// the real dimension, but callers need a value before the first
		// call. 512 matches the bge-small family this service defaults to.
		dimension = 512
	}

	return &httpProvider{
		baseURL:   cfg.BaseURL,
		model:     model,
		dimension: dimension,
		client:    &http.Client{},
	}, nil
}

func (p *httpProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	body, err := json.Marshal(teiRequest{Inputs: text, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}

	return vectors[0], nil
}

func (p *httpProvider) Dimension() int { return p.dimension }

func (p *httpProvider) Close() error { return nil }
