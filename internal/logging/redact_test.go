package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTruncateUtterance_ShortTextUnchanged(t *testing.T) {
	cfg := RedactionConfig{Enabled: true, MaxRunes: 64}
	assert.Equal(t, "打开车窗", TruncateUtterance("打开车窗", cfg))
}

func TestTruncateUtterance_LongTextTruncated(t *testing.T) {
	cfg := RedactionConfig{Enabled: true, MaxRunes: 4}
	text := strings.Repeat("主", 10)

	out := TruncateUtterance(text, cfg)

	assert.True(t, strings.HasPrefix(out, strings.Repeat("主", 4)))
	assert.Contains(t, out, "[truncated:10]")
}

func TestTruncateUtterance_DisabledPassesThrough(t *testing.T) {
	cfg := RedactionConfig{Enabled: false, MaxRunes: 1}
	text := strings.Repeat("主", 10)
	assert.Equal(t, text, TruncateUtterance(text, cfg))
}

func TestRawText_BuildsTruncatedField(t *testing.T) {
	cfg := RedactionConfig{Enabled: true, MaxRunes: 64}

	core, observed := observer.New(zapcore.InfoLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	logger.Info(context.Background(), "recognized", RawText("raw_text", "打开车窗", cfg))

	logs := observed.All()
	require.Len(t, logs, 1)
	assertFieldExists(t, logs[0].Context, "raw_text", "打开车窗")
}
