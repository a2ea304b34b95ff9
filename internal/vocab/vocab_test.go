package vocab

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() Document {
	return Document{
		Groups: map[string]Group{
			"action_open": {
				Alias: "open",
				Items: []string{"打开", "开启", "启动", "开"},
			},
			"target_window": {
				Alias: "window",
				Items: []string{"车窗", "窗户", "窗"},
			},
			"position_driver": {
				Alias: "driver",
				Items: []string{"主驾驶", "主驾", "驾驶位"},
			},
		},
	}
}

func TestExpand_LongestAlternativeFirst(t *testing.T) {
	m, err := New(sampleDoc())
	require.NoError(t, err)

	expanded, err := m.Expand("{{position_driver}}")
	require.NoError(t, err)

	idxLong := alternativeIndex(expanded, "主驾驶")
	idxShort := alternativeIndex(expanded, "主驾")
	require.NotEqual(t, -1, idxLong)
	require.NotEqual(t, -1, idxShort)
	assert.Less(t, idxLong, idxShort, "longer alternative must come first")
}

func TestExpand_UnknownGroup(t *testing.T) {
	m, err := New(sampleDoc())
	require.NoError(t, err)

	_, err = m.Expand("{{nonexistent}}")
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestExpand_NoResidualPlaceholders(t *testing.T) {
	m, err := New(sampleDoc())
	require.NoError(t, err)

	expanded, err := m.Expand("(?<action>{{action_open}})(?<target>{{target_window}})")
	require.NoError(t, err)
	assert.NotContains(t, expanded, "{{")
	assert.NotContains(t, expanded, "}}")
}

func TestAliasOf_RoundTrip(t *testing.T) {
	m, err := New(sampleDoc())
	require.NoError(t, err)

	for _, item := range []string{"打开", "开启", "启动", "开", "车窗", "主驾驶", "主驾", "驾驶位"} {
		alias, _, ok := m.AliasOf(item)
		require.True(t, ok, "expected alias for %q", item)
		assert.NotEmpty(t, alias)
	}

	_, _, ok := m.AliasOf("不存在的词")
	assert.False(t, ok)
}

func TestAliasOf_SpecificityWins(t *testing.T) {
	doc := Document{
		Groups: map[string]Group{
			"target_generic": {
				Alias: "generic_window",
				Items: []string{"车窗", "车门", "天窗", "后备箱"},
			},
			"target_specific": {
				Alias: "sunroof",
				Items: []string{"天窗"},
			},
		},
	}
	m, err := New(doc)
	require.NoError(t, err)

	alias, groupID, ok := m.AliasOf("天窗")
	require.True(t, ok)
	assert.Equal(t, "sunroof", alias, "more specific (smaller) group should win on equal item length")
	assert.Equal(t, "target_specific", groupID)
}

func TestSlotItems_OnlySlotPrefixedGroups(t *testing.T) {
	doc := Document{
		Groups: map[string]Group{
			"action_open":  {Alias: "open", Items: []string{"打开"}},
			"misc_filler":  {Alias: "filler", Items: []string{"的"}},
			"value_volume": {Alias: "volume", Items: []string{"音量"}},
		},
	}
	m, err := New(doc)
	require.NoError(t, err)

	items := m.SlotItems()
	require.Len(t, items, 2)
	for _, it := range items {
		assert.NotEqual(t, "misc_filler", it.GroupID)
	}
}

func TestSlotItems_SortedByDescendingLength(t *testing.T) {
	doc := Document{
		Groups: map[string]Group{
			"position_driver": {Alias: "driver", Items: []string{"主驾驶", "主驾", "驾驶位"}},
		},
	}
	m, err := New(doc)
	require.NoError(t, err)

	items := m.SlotItems()
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, len([]rune(items[i-1].Surface)), len([]rune(items[i].Surface)))
	}
}

func TestGroupsForDomain(t *testing.T) {
	m, err := New(sampleDoc())
	require.NoError(t, err)

	assert.Nil(t, m.GroupsForDomain("车控"))
	m.SetDomainGroups(map[string][]string{"车控": {"action_open", "target_window"}})
	assert.Equal(t, []string{"action_open", "target_window"}, m.GroupsForDomain("车控"))
}

// alternativeIndex returns the position of alt among the alternatives of a
// single expanded group "(?:a|b|c)", or -1 if alt is not one of them. A
// plain substring search would find a short item inside a longer one that
// starts with it.
func alternativeIndex(expanded, alt string) int {
	inner := strings.TrimSuffix(strings.TrimPrefix(expanded, "(?:"), ")")
	for i, a := range strings.Split(inner, "|") {
		if a == alt {
			return i
		}
	}
	return -1
}
