package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNone_Defaults(t *testing.T) {
	d := None("今天天气如何", "")

	assert.Equal(t, FallbackIntent, d.Intent)
	assert.Equal(t, FallbackDomain, d.Domain)
	assert.Equal(t, 0.0, d.Confidence)
	assert.Equal(t, MethodNone, d.Method)
	assert.Equal(t, "今天天气如何", d.RawText)
}

func TestSetSlot_NeverInsertsEmptyValues(t *testing.T) {
	d := &IntentData{}

	d.SetSlot(SlotAction, "", "打开")
	assert.NotContains(t, d.Semantic, SlotAction)
	assert.Equal(t, "打开", d.Entities[SlotAction])

	d.SetSlot(SlotTarget, "window", "")
	assert.Equal(t, "window", d.Semantic[SlotTarget])
	assert.NotContains(t, d.Entities, SlotTarget)
}

func TestIntentData_JSONOmitsEmptyMaps(t *testing.T) {
	d := None("", "")

	out, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.NotContains(t, decoded, "semantic")
	assert.NotContains(t, decoded, "entities")
	assert.Equal(t, "unknown", decoded["intent"])
	assert.Equal(t, "通用", decoded["domain"])
	assert.Equal(t, "none", decoded["method"])
}

func TestIntentData_JSONRoundTripIgnoresUnknownFields(t *testing.T) {
	raw := `{"intent":"vehicle_control","domain":"车控","confidence":0.9,"raw_text":"打开车窗","method":"regex_global","future_field":123}`

	var d IntentData
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	assert.Equal(t, "vehicle_control", d.Intent)
	assert.Equal(t, MethodRegexGlobal, d.Method)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.3))
	assert.Equal(t, 1.0, ClampConfidence(1.7))
	assert.Equal(t, 0.42, ClampConfidence(0.42))
}
