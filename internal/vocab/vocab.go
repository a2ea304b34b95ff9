// Package vocab compiles vocabulary groups into regex alternations and
// serves as the canonical Chinese surface-string to alias dictionary.
package vocab

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nluengine/nluengine/internal/model"
)

// ErrUnknownGroup is returned when a template references an undeclared group.
var ErrUnknownGroup = errors.New("unknown vocabulary group")

// Group is a named, unordered set of surface strings sharing one alias.
type Group struct {
	ID          string   `koanf:"-"`
	Name        string   `koanf:"name"`
	Description string   `koanf:"description"`
	Items       []string `koanf:"items"`
	Alias       string   `koanf:"alias"`
}

// Document is the on-disk shape of a vocabulary configuration file.
type Document struct {
	Groups map[string]Group `koanf:"groups"`
}

// SlotItem is one vocabulary surface string belonging to a slot-typed group
// (action_*, target_*, position_*, value_*), used by the intent matcher's
// independent slot scan.
type SlotItem struct {
	Surface string
	Alias   string
	Slot    string
	GroupID string
}

type aliasEntry struct {
	alias     string
	groupID   string
	itemRunes int
	groupSize int
}

// Manager is the immutable, load-once vocabulary dictionary.
type Manager struct {
	groups       map[string]Group
	aliasIndex   map[string]aliasEntry
	slotItems    []SlotItem // sorted by descending rune length
	domainGroups map[string][]string
}

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// New builds a Manager from a parsed vocabulary Document.
//
// It precomputes the reverse alias index: when a surface string appears in
// more than one group, the entry with the longer matching item wins; ties
// are broken by the smaller (more specific) group; a remaining tie is
// broken by the lexicographically greater group id, so iteration order is
// deterministic (groups are processed in ascending id order, and the last
// group processed wins full ties).
func New(doc Document) (*Manager, error) {
	m := &Manager{
		groups:     make(map[string]Group, len(doc.Groups)),
		aliasIndex: make(map[string]aliasEntry),
	}

	ids := make([]string, 0, len(doc.Groups))
	for id, g := range doc.Groups {
		g.ID = id
		m.groups[id] = g
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		g := m.groups[id]
		for _, item := range g.Items {
			runes := len([]rune(item))
			existing, ok := m.aliasIndex[item]
			if !ok || betterEntry(runes, len(g.Items), existing) {
				m.aliasIndex[item] = aliasEntry{
					alias:     g.Alias,
					groupID:   id,
					itemRunes: runes,
					groupSize: len(g.Items),
				}
			}
		}
	}

	m.slotItems = buildSlotItems(m.groups)

	return m, nil
}

// betterEntry reports whether a candidate item (with the given rune length,
// belonging to a group of groupSize items) should replace the existing
// alias-index entry.
func betterEntry(candidateRunes, candidateGroupSize int, existing aliasEntry) bool {
	if candidateRunes != existing.itemRunes {
		return candidateRunes > existing.itemRunes
	}
	if candidateGroupSize != existing.groupSize {
		return candidateGroupSize < existing.groupSize
	}
	return true // full tie: later-processed (ascending id order) group wins
}

func buildSlotItems(groups map[string]Group) []SlotItem {
	slotPrefixes := map[string]string{
		"action_":   model.SlotAction,
		"target_":   model.SlotTarget,
		"position_": model.SlotPosition,
		"value_":    model.SlotValue,
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var items []SlotItem
	for _, id := range ids {
		g := groups[id]
		var slot string
		for prefix, s := range slotPrefixes {
			if strings.HasPrefix(id, prefix) {
				slot = s
				break
			}
		}
		if slot == "" {
			continue
		}
		for _, surface := range g.Items {
			items = append(items, SlotItem{
				Surface: surface,
				Alias:   g.Alias,
				Slot:    slot,
				GroupID: id,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return len([]rune(items[i].Surface)) > len([]rune(items[j].Surface))
	})
	return items
}

// Expand substitutes every {{group_id}} placeholder in template with a
// non-capturing alternation of that group's items, regex-escaped and
// ordered longest-item-first so that left-to-right alternation never
// strands a shorter prefix match (e.g. "主驾" must not shadow "主驾驶").
func (m *Manager) Expand(template string) (string, error) {
	var outerErr error
	result := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		id := placeholderRe.FindStringSubmatch(match)[1]
		g, ok := m.groups[id]
		if !ok {
			outerErr = fmt.Errorf("%w: %q (in template %q)", ErrUnknownGroup, id, template)
			return match
		}
		return alternation(g.Items)
	})
	if outerErr != nil {
		return "", outerErr
	}
	if placeholderRe.MatchString(result) {
		return "", fmt.Errorf("expansion of %q left unresolved placeholders: %q", template, result)
	}
	return result, nil
}

func alternation(items []string) string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len([]rune(sorted[i])) > len([]rune(sorted[j]))
	})
	escaped := make([]string, len(sorted))
	for i, it := range sorted {
		escaped[i] = regexp.QuoteMeta(it)
	}
	return "(?:" + strings.Join(escaped, "|") + ")"
}

// AliasOf performs the reverse lookup: given a raw Chinese surface string,
// return its canonical alias and owning group id.
func (m *Manager) AliasOf(surface string) (alias, groupID string, ok bool) {
	e, found := m.aliasIndex[surface]
	if !found {
		return "", "", false
	}
	return e.alias, e.groupID, true
}

// SlotItems returns every vocabulary item belonging to a slot-typed group
// (action_*, target_*, position_*, value_*), sorted by descending rune
// length for greedy leftmost-longest scanning.
func (m *Manager) SlotItems() []SlotItem {
	return m.slotItems
}

// SetDomainGroups records, for each domain, which vocabulary groups its
// regex rules reference. It is informational only and is populated once
// by the rule loader during startup wiring.
func (m *Manager) SetDomainGroups(domainGroups map[string][]string) {
	m.domainGroups = domainGroups
}

// GroupsForDomain returns the vocabulary group ids known to be relevant to
// domain, or nil if none were recorded.
func (m *Manager) GroupsForDomain(domain string) []string {
	return m.domainGroups[domain]
}

// Group returns the group definition for id, if declared.
func (m *Manager) Group(id string) (Group, bool) {
	g, ok := m.groups[id]
	return g, ok
}
