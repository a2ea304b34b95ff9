package intentmatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nluengine/nluengine/internal/model"
	"github.com/nluengine/nluengine/internal/vocab"
)

type fakeProvider struct {
	vectors map[string][]float32
	dim     int
}

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, f.dim), nil
}
func (f *fakeProvider) Dimension() int { return f.dim }
func (f *fakeProvider) Close() error   { return nil }

func testVocab(t *testing.T) *vocab.Manager {
	t.Helper()
	vm, err := vocab.New(vocab.Document{
		Groups: map[string]vocab.Group{
			"action_listen": {Alias: "play", Items: []string{"听"}},
		},
	})
	require.NoError(t, err)
	return vm
}

func TestPredict_PicksBestIntentInDomain(t *testing.T) {
	vm := testVocab(t)
	provider := &fakeProvider{
		dim: 2,
		vectors: map[string][]float32{
			"我想听周杰伦的歌": {1, 0},
			"导航去机场":    {0, 1},
			"query":     {1, 0},
		},
	}
	examples := Examples{
		"音乐": {"music.play": {"我想听周杰伦的歌"}},
		"导航": {"navigate.to": {"导航去机场"}},
	}
	m, err := New(context.Background(), provider, vm, examples, 0.6)
	require.NoError(t, err)

	result, err := m.Predict(context.Background(), "query", "音乐")
	require.NoError(t, err)
	assert.Equal(t, "music.play", result.Intent)
	assert.Equal(t, "音乐", result.Domain)
	assert.Equal(t, model.MethodModel, result.Method)
}

func TestPredict_BelowThresholdReturnsUnknown(t *testing.T) {
	vm := testVocab(t)
	provider := &fakeProvider{
		dim: 2,
		vectors: map[string][]float32{
			"我想听周杰伦的歌": {1, 0},
			"query":     {0, 1},
		},
	}
	examples := Examples{"音乐": {"music.play": {"我想听周杰伦的歌"}}}
	m, err := New(context.Background(), provider, vm, examples, 0.6)
	require.NoError(t, err)

	result, err := m.Predict(context.Background(), "query", "音乐")
	require.NoError(t, err)
	assert.Equal(t, model.FallbackIntent, result.Intent)
}

func TestPredict_SlotScanIndependentOfIntent(t *testing.T) {
	vm := testVocab(t)
	provider := &fakeProvider{dim: 2}
	examples := Examples{"音乐": {"music.play": {"占位"}}}
	m, err := New(context.Background(), provider, vm, examples, 0.9)
	require.NoError(t, err)

	result, err := m.Predict(context.Background(), "我想听歌", "音乐")
	require.NoError(t, err)
	assert.Equal(t, "play", result.Semantic["action"])
	assert.Equal(t, "听", result.Entities["action"])
}
