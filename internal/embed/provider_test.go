package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownKindFails(t *testing.T) {
	_, err := New(Config{Kind: "quantum"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_TEIRequiresBaseURL(t *testing.T) {
	_, err := New(Config{Kind: "tei"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHTTPProvider_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "打开车窗", req.Inputs)
		_ = json.NewEncoder(w).Encode([][]float32{{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	p, err := New(Config{Kind: "tei", BaseURL: srv.URL})
	require.NoError(t, err)
	defer p.Close()

	vec, err := p.Embed(context.Background(), "打开车窗")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestHTTPProvider_EmptyInput(t *testing.T) {
	p, err := New(Config{Kind: "tei", BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestHTTPProvider_ServerErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := New(Config{Kind: "tei", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "打开车窗")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestHTTPProvider_HonorsCancelledContext(t *testing.T) {
	p, err := New(Config{Kind: "tei", BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Embed(ctx, "打开车窗")
	assert.ErrorIs(t, err, context.Canceled)
}
