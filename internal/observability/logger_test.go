package observability

import (
	"context"
	"testing"
)

func TestNewLogger(t *testing.T) {
	l := NewLogger(true)
	if l == nil {
		t.Fatal("expected logger to be created")
	}
}

func TestLoggerWithContext(t *testing.T) {
	l := NewLogger(true)
	ctx := context.WithValue(context.Background(), RequestIDKey, "test-request-id")
	withCtx := l.WithContext(ctx)
	if withCtx == nil {
		t.Fatal("expected logger with context to be created")
	}
}

func TestLoggerWithFields(t *testing.T) {
	l := NewLogger(true)
	withFields := l.WithFields(map[string]interface{}{"key1": "value1", "key2": 123})
	if withFields == nil {
		t.Fatal("expected logger with fields to be created")
	}
}

func TestLoggerSecuritySanitizesExcerpts(t *testing.T) {
	l := NewLogger(true)
	// Should not panic, and should accept a raw (unsanitized) value without
	// leaking control characters into whatever sink backs it.
	l.Security("BLOCKED_CHARACTERS", map[string]interface{}{
		"field":   "name",
		"excerpt": "Robert\x00'); DROP TABLE--",
	})
}
