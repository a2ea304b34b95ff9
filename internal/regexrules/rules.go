// Package regexrules compiles domain-scoped rule files into executable
// regular expressions and matches input text against them, producing
// structured recognition results.
package regexrules

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/nluengine/nluengine/internal/model"
	"github.com/nluengine/nluengine/internal/vocab"
)

// GlobalDomain is the pseudo-domain holding rules that apply across every
// domain; Matcher.Match(ctx, text, nil) iterates it alongside every other
// known domain.
const GlobalDomain = "__global__"

// matchTimeout bounds a single pattern attempt so that a pathological
// rule (runaway backtracking) is skipped for this request instead of
// stalling it; see the per-rule match crash handling in the error
// handling design.
const matchTimeout = 200 * time.Millisecond

var (
	// ErrUnknownGroup is returned at load time when a pattern references a
	// vocabulary group the vocabulary manager does not know about.
	ErrUnknownGroup = vocab.ErrUnknownGroup
	// ErrCompile is returned at load time when an expanded pattern is not a
	// valid regular expression under either compile mode.
	ErrCompile = errors.New("regexrules: pattern does not compile")
)

// RawPattern is the on-disk shape of a single rule within a domain file.
type RawPattern struct {
	Pattern    string   `koanf:"pattern"`
	Intent     string   `koanf:"intent"`
	Action     string   `koanf:"action"`
	Target     string   `koanf:"target"`
	Confidence float64  `koanf:"confidence"`
	Domain     string   `koanf:"domain"`
	GroupNames []string `koanf:"group_names"`
}

// RuleFile is the on-disk shape of one domain-rule document.
type RuleFile struct {
	Domain      string       `koanf:"domain"`
	Description string       `koanf:"description"`
	Patterns    []RawPattern `koanf:"patterns"`
}

// Pattern is one compiled, ready-to-match rule.
type Pattern struct {
	Template      string
	Intent        string
	DefaultAction string
	DefaultTarget string
	Confidence    float64
	Domain        string // declared domain, if any; empty means "use file domain"
	compiled      *regexp2.Regexp
}

// Matcher holds every compiled pattern, indexed by the domain it belongs
// to (including GlobalDomain).
type Matcher struct {
	byDomain  map[string][]*Pattern
	domainIDs []string // sorted, deterministic iteration order
	groupRefs map[string][]string
}

// Load compiles every RuleFile's patterns via vm and returns a ready
// Matcher. A pattern referencing an unknown vocabulary group, or one that
// fails to compile under both RE2 and full (None) mode, aborts loading:
// configuration errors are fatal at startup.
func Load(files []RuleFile, vm *vocab.Manager) (*Matcher, error) {
	m := &Matcher{
		byDomain:  make(map[string][]*Pattern),
		groupRefs: make(map[string][]string),
	}

	for _, f := range files {
		domain := f.Domain
		if domain == "" {
			domain = GlobalDomain
		}
		for _, raw := range f.Patterns {
			expanded, err := vm.Expand(raw.Pattern)
			if err != nil {
				return nil, fmt.Errorf("loading domain %q: %w", domain, err)
			}

			compiled, err := compilePattern(expanded)
			if err != nil {
				return nil, fmt.Errorf("loading domain %q, pattern %q: %w", domain, raw.Pattern, err)
			}

			p := &Pattern{
				Template:      raw.Pattern,
				Intent:        raw.Intent,
				DefaultAction: raw.Action,
				DefaultTarget: raw.Target,
				Confidence:    raw.Confidence,
				Domain:        raw.Domain,
				compiled:      compiled,
			}
			m.byDomain[domain] = append(m.byDomain[domain], p)
			m.groupRefs[domain] = append(m.groupRefs[domain], groupIDsIn(raw.Pattern)...)
		}
	}

	for d := range m.byDomain {
		m.domainIDs = append(m.domainIDs, d)
	}
	sort.Strings(m.domainIDs)

	return m, nil
}

// compilePattern tries regexp2's RE2-compatible syntax first, falling back
// to its default (.NET-like) syntax for patterns RE2 syntax rejects --
// named groups of the form (?<name>...) compile fine under either mode.
// Both modes run on regexp2's backtracking matcher, so every pattern gets
// matchTimeout.
func compilePattern(expanded string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expanded, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(expanded, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCompile, err)
		}
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

func groupIDsIn(template string) []string {
	matches := placeholderRe.FindAllStringSubmatch(template, -1)
	ids := make([]string, 0, len(matches))
	for _, mm := range matches {
		ids = append(ids, mm[1])
	}
	return ids
}

// DomainGroupRefs returns, for every domain the matcher loaded rules for,
// the vocabulary group ids its patterns reference. Used once at startup
// to populate vocab.Manager.SetDomainGroups.
func (m *Matcher) DomainGroupRefs() map[string][]string {
	return m.groupRefs
}

// Match attempts to match text against domain's rules (declaration order,
// first hit wins). If domain is nil, every known domain is tried in
// deterministic sorted order (including GlobalDomain), first hit wins.
//
// It returns (result, true, nil) on a hit, (nil, false, nil) if nothing
// matched, and a non-nil error only if ctx was already cancelled.
func (m *Matcher) Match(ctx context.Context, text string, domain *string, vm *vocab.Manager) (*model.IntentData, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var domains []string
	fileDomain := ""
	if domain != nil {
		domains = []string{*domain}
		fileDomain = *domain
	} else {
		domains = m.domainIDs
	}

	for _, d := range domains {
		for _, p := range m.byDomain[d] {
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			default:
			}

			result, hit := tryMatch(p, text, vm)
			if !hit {
				continue
			}
			resultDomain := p.Domain
			if resultDomain == "" {
				if domain != nil {
					resultDomain = fileDomain
				} else {
					resultDomain = d
				}
			}
			result.Domain = resultDomain
			return result, true, nil
		}
	}
	return nil, false, nil
}

// tryMatch attempts p against text. A match-timeout or any other regexp2
// error is treated as a per-rule failure: the rule is skipped, not the
// whole request.
func tryMatch(p *Pattern, text string, vm *vocab.Manager) (*model.IntentData, bool) {
	match, err := p.compiled.FindStringMatch(text)
	if err != nil || match == nil {
		return nil, false
	}

	result := &model.IntentData{
		Intent:     p.Intent,
		Confidence: model.ClampConfidence(p.Confidence),
		RawText:    text,
	}

	captured := make(map[string]bool, 4)
	for _, slot := range []string{model.SlotAction, model.SlotTarget, model.SlotPosition, model.SlotValue} {
		group := match.GroupByName(slot)
		if group == nil || len(group.Captures) == 0 {
			continue
		}
		surface := group.String()
		if surface == "" {
			continue
		}
		captured[slot] = true
		alias, _, ok := vm.AliasOf(surface)
		if !ok {
			// No alias mapping: the surface still lands in entities, but
			// the semantic key stays absent.
			alias = ""
		}
		result.SetSlot(slot, alias, surface)
	}

	// Defaults are already in alias form and fill in only for groups that
	// never captured at all.
	if !captured[model.SlotAction] && p.DefaultAction != "" {
		result.SetSlot(model.SlotAction, p.DefaultAction, "")
	}
	if !captured[model.SlotTarget] && p.DefaultTarget != "" {
		result.SetSlot(model.SlotTarget, p.DefaultTarget, "")
	}

	return result, true
}
