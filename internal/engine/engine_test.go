package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/nluengine/nluengine/internal/classifier"
	"github.com/nluengine/nluengine/internal/model"
	"github.com/nluengine/nluengine/internal/vocab"
)

// sequencedRegex lets tests control what the global vs. domain-scoped
// regex calls return without depending on real pattern compilation.
type sequencedRegex struct {
	global func() (*model.IntentData, bool, error)
	domain func() (*model.IntentData, bool, error)
}

func (s *sequencedRegex) Match(ctx context.Context, text string, domain *string, vm *vocab.Manager) (*model.IntentData, bool, error) {
	if domain == nil {
		if s.global == nil {
			return nil, false, nil
		}
		return s.global()
	}
	if s.domain == nil {
		return nil, false, nil
	}
	return s.domain()
}

type fakeClassifier struct {
	delay  time.Duration
	result classifier.Result
	err    error
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (classifier.Result, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return classifier.Result{}, ctx.Err()
	}
	return f.result, f.err
}

type fakeIntents struct {
	delay  time.Duration
	result *model.IntentData
	err    error
}

func (f *fakeIntents) Predict(ctx context.Context, text, domain string) (*model.IntentData, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRecognize_EmptyText(t *testing.T) {
	e := New(nil, &sequencedRegex{}, &fakeClassifier{result: classifier.Result{Domain: model.FallbackDomain}}, &fakeIntents{result: model.None("", model.FallbackDomain)}, DefaultThresholds, nil, nil)
	result := e.Recognize(context.Background(), "   ", nil)
	assert.Equal(t, model.MethodNone, result.Method)
	assert.Equal(t, model.FallbackDomain, result.Domain)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestRecognize_GlobalRegexWinsOverSlowerPaths(t *testing.T) {
	rules := &sequencedRegex{
		global: func() (*model.IntentData, bool, error) {
			return &model.IntentData{Intent: "vehicle_control", Domain: "车控", Confidence: 0.9}, true, nil
		},
	}
	cls := &fakeClassifier{delay: 50 * time.Millisecond, result: classifier.Result{Domain: "车控", Confidence: 0.9}}
	intents := &fakeIntents{delay: 50 * time.Millisecond, result: model.None("", "车控")}

	e := New(nil, rules, cls, intents, DefaultThresholds, nil, nil)
	result := e.Recognize(context.Background(), "打开车窗", nil)

	assert.Equal(t, model.MethodRegexGlobal, result.Method)
	assert.Equal(t, "vehicle_control", result.Intent)
}

func TestRecognize_FallsThroughToModelWhenRegexMisses(t *testing.T) {
	rules := &sequencedRegex{} // never hits
	cls := &fakeClassifier{result: classifier.Result{Domain: "音乐", Confidence: 0.9}}
	intents := &fakeIntents{result: &model.IntentData{Intent: "music.play", Domain: "音乐", Confidence: 0.8, Method: model.MethodModel}}

	e := New(nil, rules, cls, intents, DefaultThresholds, nil, nil)
	result := e.Recognize(context.Background(), "我想听周杰伦的歌", nil)

	assert.Equal(t, model.MethodModel, result.Method)
	assert.Equal(t, "music.play", result.Intent)
}

func TestRecognize_NoAcceptableResultReturnsNone(t *testing.T) {
	rules := &sequencedRegex{}
	cls := &fakeClassifier{result: classifier.Result{Domain: model.FallbackDomain, Confidence: 0.1}}
	intents := &fakeIntents{result: model.None("", model.FallbackDomain)}

	e := New(nil, rules, cls, intents, DefaultThresholds, nil, nil)
	result := e.Recognize(context.Background(), "今天天气如何", nil)

	assert.Equal(t, model.MethodNone, result.Method)
	assert.Equal(t, model.FallbackIntent, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestRecognize_FastPathSkipsStage1(t *testing.T) {
	rules := &sequencedRegex{
		domain: func() (*model.IntentData, bool, error) {
			return &model.IntentData{Intent: "vehicle_control", Domain: "车控", Confidence: 0.95}, true, nil
		},
	}
	intents := &fakeIntents{delay: 20 * time.Millisecond, result: model.None("", "车控")}
	cls := &fakeClassifier{delay: time.Second} // never reached on the fast path; a call would stall the race for a second

	e := New(nil, rules, cls, intents, DefaultThresholds, nil, nil)
	domain := "车控"
	result := e.Recognize(context.Background(), "打开车窗", &domain)

	assert.Equal(t, model.MethodRegexDomain, result.Method)
}

func TestRecognize_DeadlineReturnsNoneImmediately(t *testing.T) {
	rules := &sequencedRegex{}
	cls := &fakeClassifier{delay: time.Second, result: classifier.Result{Domain: "车控"}}
	intents := &fakeIntents{delay: time.Second}

	e := New(nil, rules, cls, intents, DefaultThresholds, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := e.Recognize(ctx, "打开车窗", nil)
	elapsed := time.Since(start)

	assert.Equal(t, model.MethodNone, result.Method)
	assert.Less(t, elapsed, 200*time.Millisecond)
}
