// Package classifier predicts the best domain label for a sentence by
// comparing its embedding against precomputed per-domain centroids.
package classifier

import (
	"context"
	"fmt"
	"sort"

	"github.com/nluengine/nluengine/internal/cache"
	"github.com/nluengine/nluengine/internal/embed"
	"github.com/nluengine/nluengine/internal/model"
	"github.com/nluengine/nluengine/internal/vecmath"
)

const defaultCacheSize = 2048

// Examples maps domain name to its labeled example utterances.
type Examples map[string][]string

// Result is what Classify returns: the chosen domain and the similarity
// that produced it (clamped to [0,1], even when the fallback domain was
// returned because nothing cleared the threshold).
type Result struct {
	Domain     string
	Confidence float64
}

// Classifier holds one centroid per known domain.
type Classifier struct {
	provider  embed.Provider
	threshold float64
	centroids map[string][]float32
	cache     *cache.Cache[Result]
}

// New embeds every example in examples, builds one centroid per domain,
// and returns a ready Classifier. threshold gates classify: a top
// similarity below it yields the fallback domain. An optional cacheSize
// overrides the default bounded result-cache capacity.
func New(ctx context.Context, provider embed.Provider, examples Examples, threshold float64, cacheSize ...int) (*Classifier, error) {
	size := defaultCacheSize
	if len(cacheSize) > 0 && cacheSize[0] > 0 {
		size = cacheSize[0]
	}
	c, err := cache.New[Result](size)
	if err != nil {
		return nil, err
	}

	cls := &Classifier{
		provider:  provider,
		threshold: threshold,
		centroids: make(map[string][]float32, len(examples)),
		cache:     c,
	}

	for domain, texts := range examples {
		vectors := make([][]float32, 0, len(texts))
		for _, text := range texts {
			vec, err := provider.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embedding domain %q example %q: %w", domain, text, err)
			}
			vectors = append(vectors, vec)
		}
		if len(vectors) == 0 {
			continue
		}
		cls.centroids[domain] = vecmath.Centroid(vectors)
	}

	return cls, nil
}

// Classify embeds text and returns the domain whose centroid is most
// similar, with deterministic alphabetical tie-break on equal similarity.
// If the winning similarity is below the configured threshold, the
// fallback domain is returned instead, carrying the observed confidence.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	if cached, ok := c.cache.Get(text); ok {
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("embedding input: %w", err)
	}
	vec = vecmath.Normalize(vec)

	domains := make([]string, 0, len(c.centroids))
	for d := range c.centroids {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	bestDomain := ""
	bestScore := -1.0
	for _, d := range domains {
		score := vecmath.CosineSimilarity(vec, c.centroids[d])
		if score > bestScore {
			bestScore = score
			bestDomain = d
		}
	}

	confidence := model.ClampConfidence(bestScore)
	result := Result{Domain: bestDomain, Confidence: confidence}
	if bestDomain == "" || confidence < c.threshold {
		result.Domain = model.FallbackDomain
	}

	c.cache.Put(text, result)
	return result, nil
}
