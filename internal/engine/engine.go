// Package engine races the regex and embedding recognition paths against
// one another and returns the first acceptable result, cancelling
// whatever else is still in flight.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nluengine/nluengine/internal/classifier"
	"github.com/nluengine/nluengine/internal/logging"
	"github.com/nluengine/nluengine/internal/model"
	"github.com/nluengine/nluengine/internal/vocab"
)

// RegexMatcher is the subset of regexrules.Matcher the orchestrator needs.
type RegexMatcher interface {
	Match(ctx context.Context, text string, domain *string, vm *vocab.Manager) (*model.IntentData, bool, error)
}

// DomainClassifier is the subset of classifier.Classifier the orchestrator needs.
type DomainClassifier interface {
	Classify(ctx context.Context, text string) (classifier.Result, error)
}

// IntentPredictor is the subset of intentmatch.Matcher the orchestrator needs.
type IntentPredictor interface {
	Predict(ctx context.Context, text, domain string) (*model.IntentData, error)
}

// Thresholds gates which path results are acceptable.
type Thresholds struct {
	Confidence float64 // gates regex_global / regex_domain
	Similarity float64 // gates model
}

// DefaultThresholds mirrors the tunable defaults.
var DefaultThresholds = Thresholds{Confidence: 0.5, Similarity: 0.6}

// Recorder observes completed recognitions. An Engine built with a nil
// Recorder records nothing.
type Recorder interface {
	RecordRecognition(method model.Method, duration time.Duration, err error)
}

// Engine holds every component the orchestrator races.
type Engine struct {
	vm         *vocab.Manager
	rules      RegexMatcher
	classifier DomainClassifier
	intents    IntentPredictor
	thresholds Thresholds
	recorder   Recorder
	logger     *logging.Logger
}

// New assembles an Engine from its already-constructed components.
// logger and recorder may be nil.
func New(vm *vocab.Manager, rules RegexMatcher, cls DomainClassifier, im IntentPredictor, thresholds Thresholds, recorder Recorder, logger *logging.Logger) *Engine {
	return &Engine{vm: vm, rules: rules, classifier: cls, intents: im, thresholds: thresholds, recorder: recorder, logger: logger}
}

// pathResult is what every race participant sends on completion.
type pathResult struct {
	method model.Method
	data   *model.IntentData
	ok     bool
}

// precedence ranks methods for tie-break among simultaneously-ready
// results: regex_global > regex_domain > model.
func precedence(m model.Method) int {
	switch m {
	case model.MethodRegexGlobal:
		return 0
	case model.MethodRegexDomain:
		return 1
	case model.MethodModel:
		return 2
	default:
		return 99
	}
}

// Recognize maps text to a structured IntentData. If domain is non-nil,
// only the domain-scoped race (regex-within-domain vs. model-within-domain)
// runs. Otherwise the full two-stage race described in the component
// design runs: global regex vs. domain classification, then (once a
// domain is known) domain regex vs. intent model.
func (e *Engine) Recognize(ctx context.Context, text string, domain *string) *model.IntentData {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		result := model.None(text, model.FallbackDomain)
		e.record(result.Method, start, nil)
		return result
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pathResult, 4)

	if domain != nil {
		e.spawnDomainScoped(ctx, events, text, *domain)
		result := e.race(ctx, cancel, events, text, *domain, 2)
		e.record(result.Method, start, nil)
		return result
	}

	e.spawnGlobalRegex(ctx, events, text)
	domainCh := make(chan string, 1)
	go e.classifyDomain(ctx, domainCh, text)

	expected := 1 // G; D's own arrival is tracked via domainCh, not events
	stage2Started := false
	resolvedDomain := model.FallbackDomain

	var pending []pathResult
	for expected > 0 || !stage2Started {
		select {
		case r := <-events:
			expected--
			pending = append(pending, r)
			pending = drainNonBlocking(events, &expected, pending)

			if best, found := bestAcceptable(pending); found {
				cancel()
				e.record(best.method, start, nil)
				return best.data
			}
			pending = pending[:0]

		case d := <-domainCh:
			resolvedDomain = d
			stage2Started = true
			e.spawnDomainScoped(ctx, events, text, resolvedDomain)
			expected += 2

		case <-ctx.Done():
			result := model.None(text, resolvedDomain)
			e.record(result.Method, start, ctx.Err())
			return result
		}
	}

	result := model.None(text, resolvedDomain)
	e.record(result.Method, start, nil)
	return result
}

// drainNonBlocking folds in every event already queued without blocking,
// so a batch of simultaneously-ready results is evaluated together before
// precedence is applied.
func drainNonBlocking(events chan pathResult, expected *int, pending []pathResult) []pathResult {
	for {
		select {
		case r, ok := <-events:
			if !ok {
				return pending
			}
			*expected--
			pending = append(pending, r)
		default:
			return pending
		}
	}
}

func bestAcceptable(batch []pathResult) (pathResult, bool) {
	best := pathResult{}
	found := false
	for _, r := range batch {
		if !r.ok {
			continue
		}
		if !found || precedence(r.method) < precedence(best.method) {
			best = r
			found = true
		}
	}
	return best, found
}

// race drains the fast-path's two-task merge (R, M restricted to a known
// domain) until an acceptable result appears or both finish.
func (e *Engine) race(ctx context.Context, cancel context.CancelFunc, events chan pathResult, text, domain string, count int) *model.IntentData {
	var pending []pathResult
	remaining := count
	for remaining > 0 {
		select {
		case r := <-events:
			remaining--
			pending = append(pending, r)
			pending = drainIntoRemaining(events, &remaining, pending)
			if best, found := bestAcceptable(pending); found {
				cancel()
				return best.data
			}
			pending = pending[:0]
		case <-ctx.Done():
			return model.None(text, domain)
		}
	}
	return model.None(text, domain)
}

func drainIntoRemaining(events chan pathResult, remaining *int, pending []pathResult) []pathResult {
	for {
		select {
		case r := <-events:
			*remaining--
			pending = append(pending, r)
		default:
			return pending
		}
	}
}

func (e *Engine) spawnGlobalRegex(ctx context.Context, events chan pathResult, text string) {
	go func() {
		result, hit, err := e.rules.Match(ctx, text, nil, e.vm)
		if err != nil || !hit {
			e.logPathFailure(ctx, model.MethodRegexGlobal, err)
			events <- pathResult{method: model.MethodRegexGlobal, ok: false}
			return
		}
		result.Method = model.MethodRegexGlobal
		events <- pathResult{method: model.MethodRegexGlobal, data: result, ok: result.Confidence >= e.thresholds.Confidence}
	}()
}

func (e *Engine) spawnDomainScoped(ctx context.Context, events chan pathResult, text, domain string) {
	go func() {
		d := domain
		result, hit, err := e.rules.Match(ctx, text, &d, e.vm)
		if err != nil || !hit {
			e.logPathFailure(ctx, model.MethodRegexDomain, err)
			events <- pathResult{method: model.MethodRegexDomain, ok: false}
			return
		}
		result.Method = model.MethodRegexDomain
		events <- pathResult{method: model.MethodRegexDomain, data: result, ok: result.Confidence >= e.thresholds.Confidence}
	}()
	go func() {
		result, err := e.intents.Predict(ctx, text, domain)
		if err != nil {
			e.logPathFailure(ctx, model.MethodModel, err)
			events <- pathResult{method: model.MethodModel, ok: false}
			return
		}
		events <- pathResult{method: model.MethodModel, data: result, ok: result.Intent != model.FallbackIntent && result.Confidence >= e.thresholds.Similarity}
	}()
}

// classifyDomain resolves text's domain and reports it on domainCh. A
// classifier failure degrades to the fallback domain rather than failing
// the request; an embedding provider error costs the affected path its
// result, never the caller theirs.
func (e *Engine) classifyDomain(ctx context.Context, domainCh chan<- string, text string) {
	result, err := e.classifier.Classify(ctx, text)
	if err != nil {
		e.logPathFailure(ctx, "classify", err)
		domainCh <- model.FallbackDomain
		return
	}
	domainCh <- result.Domain
}

// logPathFailure reports a path that yielded no result. Cancellation is
// silent: an abandoned path losing the race is not a failure.
func (e *Engine) logPathFailure(ctx context.Context, path model.Method, err error) {
	if e.logger == nil || err == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	e.logger.Warn(ctx, "recognition path failed", zap.String("path", string(path)), zap.Error(err))
}

func (e *Engine) record(method model.Method, start time.Time, err error) {
	if e.recorder == nil {
		return
	}
	e.recorder.RecordRecognition(method, time.Since(start), err)
}
