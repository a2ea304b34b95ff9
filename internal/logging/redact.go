// internal/logging/redact.go
package logging

import (
	"strconv"

	"go.uber.org/zap"
)

// TruncateUtterance bounds a raw user utterance to cfg.MaxRunes runes,
// appending a marker with the true length, so a bulk log export never
// carries an unbounded amount of raw spoken text.
func TruncateUtterance(text string, cfg RedactionConfig) string {
	if !cfg.Enabled || cfg.MaxRunes <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= cfg.MaxRunes {
		return text
	}
	return string(runes[:cfg.MaxRunes]) + "...[truncated:" + strconv.Itoa(len(runes)) + "]"
}

// RawText builds a zap field carrying a possibly-truncated utterance,
// for logging recognition attempts without leaking full user input into
// bulk exports.
func RawText(key, text string, cfg RedactionConfig) zap.Field {
	return zap.String(key, TruncateUtterance(text, cfg))
}

// RawText builds a zap field for text using the logger's own redaction
// settings.
func (l *Logger) RawText(key, text string) zap.Field {
	return RawText(key, text, l.config.Redaction)
}
