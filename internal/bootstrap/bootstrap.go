// Package bootstrap loads the on-disk recognition configuration documents
// and wires every recognition component -- vocabulary manager, regex
// matcher, embedding provider, domain classifier, intent matcher -- into
// a ready-to-use engine.Engine. Any error here is a configuration error:
// fatal at startup, and nothing partially initializes.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/nluengine/nluengine/internal/classifier"
	"github.com/nluengine/nluengine/internal/config"
	"github.com/nluengine/nluengine/internal/embed"
	"github.com/nluengine/nluengine/internal/engine"
	"github.com/nluengine/nluengine/internal/intentmatch"
	"github.com/nluengine/nluengine/internal/logging"
	"github.com/nluengine/nluengine/internal/regexrules"
	"github.com/nluengine/nluengine/internal/vocab"
)

// Documents holds the parsed, not-yet-compiled configuration documents.
type Documents struct {
	Vocabulary     vocab.Document
	Rules          []regexrules.RuleFile
	DomainExamples classifier.Examples
	IntentExamples intentmatch.Examples
}

// intentExamplesDoc is the on-disk shape of the intent-examples document.
type intentExamplesDoc struct {
	IntentExamples map[string]struct {
		Description string   `koanf:"description"`
		Examples    []string `koanf:"examples"`
		Domain      string   `koanf:"domain"`
	} `koanf:"intent_examples"`
}

// LoadDocuments reads the vocabulary, rule, domain-example and
// intent-example documents named by cfg.Rules from disk.
func LoadDocuments(cfg config.RulesConfig) (Documents, error) {
	var docs Documents

	if err := loadYAML(cfg.VocabularyPath, &docs.Vocabulary); err != nil {
		return docs, fmt.Errorf("loading vocabulary %s: %w", cfg.VocabularyPath, err)
	}

	entries, err := os.ReadDir(cfg.RuleDir)
	if err != nil {
		return docs, fmt.Errorf("reading rule directory %s: %w", cfg.RuleDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path, err := config.ResolveRulePath(cfg.RuleDir, entry.Name())
		if err != nil {
			return docs, err
		}
		var rf regexrules.RuleFile
		if err := loadYAML(path, &rf); err != nil {
			return docs, fmt.Errorf("loading rule file %s: %w", path, err)
		}
		docs.Rules = append(docs.Rules, rf)
	}

	var domainDoc map[string][]string
	if err := loadYAML(cfg.DomainExamplesPath, &domainDoc); err != nil {
		return docs, fmt.Errorf("loading domain examples %s: %w", cfg.DomainExamplesPath, err)
	}
	docs.DomainExamples = classifier.Examples(domainDoc)

	var intentDoc intentExamplesDoc
	if err := loadYAML(cfg.IntentExamplesPath, &intentDoc); err != nil {
		return docs, fmt.Errorf("loading intent examples %s: %w", cfg.IntentExamplesPath, err)
	}
	docs.IntentExamples = make(intentmatch.Examples)
	for intent, spec := range intentDoc.IntentExamples {
		domain := spec.Domain
		if domain == "" {
			domain = "__unassigned__"
		}
		if docs.IntentExamples[domain] == nil {
			docs.IntentExamples[domain] = make(map[string][]string)
		}
		docs.IntentExamples[domain][intent] = spec.Examples
	}

	return docs, nil
}

func loadYAML(path string, out interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	return k.Unmarshal("", out)
}

// Built holds every wired component plus the pieces that need an explicit
// Close at shutdown.
type Built struct {
	Vocab      *vocab.Manager
	Rules      *regexrules.Matcher
	Classifier *classifier.Classifier
	Intents    *intentmatch.Matcher
	Engine     *engine.Engine
	Provider   embed.Provider
}

// Close releases the embedding provider's resources (ONNX runtime
// session, HTTP client, etc).
func (b *Built) Close() error {
	if b.Provider == nil {
		return nil
	}
	return b.Provider.Close()
}

// Recorder observes completed recognitions; see engine.Recorder.
type Recorder = engine.Recorder

// Build loads every configuration document and wires up a ready-to-use
// engine.Engine, failing loudly (and without partial initialization
// escaping) on any configuration error.
func Build(ctx context.Context, cfg *config.Config, logger *logging.Logger, recorder Recorder) (*Built, error) {
	docs, err := LoadDocuments(cfg.Rules)
	if err != nil {
		return nil, err
	}

	vm, err := vocab.New(docs.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("compiling vocabulary: %w", err)
	}

	rules, err := regexrules.Load(docs.Rules, vm)
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}
	vm.SetDomainGroups(rules.DomainGroupRefs())

	provider, err := embed.New(embed.Config{
		Kind:     cfg.Embed.Kind,
		Model:    cfg.Embed.Model,
		BaseURL:  cfg.Embed.BaseURL,
		CacheDir: cfg.Embed.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing embedding provider: %w", err)
	}

	cls, err := classifier.New(ctx, provider, docs.DomainExamples, cfg.Thresholds.Similarity, cfg.Cache.DomainCacheSize)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("building domain classifier: %w", err)
	}

	im, err := intentmatch.New(ctx, provider, vm, docs.IntentExamples, cfg.Thresholds.Similarity, cfg.Cache.IntentCacheSize)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("building intent matcher: %w", err)
	}

	eng := engine.New(vm, rules, cls, im, engine.Thresholds{
		Confidence: cfg.Thresholds.Confidence,
		Similarity: cfg.Thresholds.Similarity,
	}, recorder, logger)

	if logger != nil {
		logger.Info(ctx, "recognition engine ready",
			zap.Int("domains", len(docs.DomainExamples)),
			zap.Int("rule_files", len(docs.Rules)))
	}

	return &Built{
		Vocab:      vm,
		Rules:      rules,
		Classifier: cls,
		Intents:    im,
		Engine:     eng,
		Provider:   provider,
	}, nil
}
