// Package intentmatch picks the best intent label within a known domain
// via embedding similarity, and independently fills in semantic slots by
// scanning the raw text against the vocabulary's slot-typed items.
package intentmatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/nluengine/nluengine/internal/cache"
	"github.com/nluengine/nluengine/internal/embed"
	"github.com/nluengine/nluengine/internal/model"
	"github.com/nluengine/nluengine/internal/vecmath"
	"github.com/nluengine/nluengine/internal/vocab"
)

const defaultCacheSize = 2048

// intentKey identifies one (domain, intent) centroid.
type intentKey struct {
	domain string
	intent string
}

// Examples maps domain -> intent -> example utterances.
type Examples map[string]map[string][]string

// Matcher holds one centroid per (domain, intent) pair plus the
// vocabulary's precomputed slot items for independent slot scanning.
type Matcher struct {
	provider  embed.Provider
	threshold float64
	vm        *vocab.Manager
	centroids map[intentKey][]float32
	byDomain  map[string][]intentKey
	cache     *cache.Cache[*model.IntentData]
}

// New embeds every example in examples and builds one centroid per
// (domain, intent) pair. An optional cacheSize overrides the default
// bounded result-cache capacity.
func New(ctx context.Context, provider embed.Provider, vm *vocab.Manager, examples Examples, threshold float64, cacheSize ...int) (*Matcher, error) {
	size := defaultCacheSize
	if len(cacheSize) > 0 && cacheSize[0] > 0 {
		size = cacheSize[0]
	}
	c, err := cache.New[*model.IntentData](size)
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		provider:  provider,
		threshold: threshold,
		vm:        vm,
		centroids: make(map[intentKey][]float32),
		byDomain:  make(map[string][]intentKey),
		cache:     c,
	}

	for domain, intents := range examples {
		for intent, texts := range intents {
			vectors := make([][]float32, 0, len(texts))
			for _, text := range texts {
				vec, err := provider.Embed(ctx, text)
				if err != nil {
					return nil, fmt.Errorf("embedding %q/%q example %q: %w", domain, intent, text, err)
				}
				vectors = append(vectors, vec)
			}
			if len(vectors) == 0 {
				continue
			}
			key := intentKey{domain: domain, intent: intent}
			m.centroids[key] = vecmath.Centroid(vectors)
			m.byDomain[domain] = append(m.byDomain[domain], key)
		}
	}
	for domain := range m.byDomain {
		sort.Slice(m.byDomain[domain], func(i, j int) bool {
			return m.byDomain[domain][i].intent < m.byDomain[domain][j].intent
		})
	}

	return m, nil
}

// Predict embeds text, picks the best-matching intent among those
// registered for domain, and independently fills semantic slots by
// scanning the raw text for vocabulary items.
func (m *Matcher) Predict(ctx context.Context, text, domain string) (*model.IntentData, error) {
	cacheKey := domain + "|" + text
	if cached, ok := m.cache.Get(cacheKey); ok {
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec, err := m.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding input: %w", err)
	}
	vec = vecmath.Normalize(vec)

	bestIntent := model.FallbackIntent
	bestScore := -1.0
	for _, key := range m.byDomain[domain] {
		score := vecmath.CosineSimilarity(vec, m.centroids[key])
		if score > bestScore {
			bestScore = score
			bestIntent = key.intent
		}
	}

	confidence := model.ClampConfidence(bestScore)
	result := &model.IntentData{
		Intent:     model.FallbackIntent,
		Domain:     domain,
		Confidence: confidence,
		RawText:    text,
		Method:     model.MethodModel,
	}
	if bestIntent != "" && confidence >= m.threshold {
		result.Intent = bestIntent
	}

	scanSlots(result, text, m.vm)

	m.cache.Put(cacheKey, result)
	return result, nil
}

// scanSlots performs a greedy leftmost-longest, non-overlapping scan of
// text for vocabulary items belonging to slot-typed groups. Items are
// pre-sorted by descending rune length, so the first match found at any
// starting position is already the longest possible for that position.
// Within a slot, a later match only overwrites an earlier one if it is
// strictly longer.
func scanSlots(result *model.IntentData, text string, vm *vocab.Manager) {
	items := vm.SlotItems()
	runes := []rune(text)
	taken := make([]bool, len(runes))
	slotBestLen := make(map[string]int)

	pos := 0
	for pos < len(runes) {
		matched := false
		for _, item := range items {
			itemRunes := []rune(item.Surface)
			end := pos + len(itemRunes)
			if end > len(runes) {
				continue
			}
			if string(runes[pos:end]) != item.Surface {
				continue
			}
			if anyTaken(taken, pos, end) {
				continue
			}

			if best, ok := slotBestLen[item.Slot]; !ok || len(itemRunes) > best {
				slotBestLen[item.Slot] = len(itemRunes)
				result.SetSlot(item.Slot, item.Alias, item.Surface)
			}
			markTaken(taken, pos, end)
			pos = end
			matched = true
			break
		}
		if !matched {
			pos++
		}
	}
}

func anyTaken(taken []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}

func markTaken(taken []bool, start, end int) {
	for i := start; i < end; i++ {
		taken[i] = true
	}
}
