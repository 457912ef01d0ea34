// Package observability provides the structured-logging, metrics, and
// tracing wrappers shared across the engine. Logger is a
// context/field/error-aware wrapper around zap, matching the rest of
// this module's zap-first logging stack.
package observability

import (
	"context"

	"go.uber.org/zap"

	"sanctions-screening/internal/logsanitize"
)

type contextKey string

// RequestIDKey is the context key under which a correlation/screening ID
// is threaded through request-scoped loggers.
const RequestIDKey contextKey = "request_id"

// Logger wraps a zap.SugaredLogger with fluent With* methods.
type Logger struct {
	z *zap.SugaredLogger
}

// NewLogger builds a Logger backed by a production zap logger, or a
// development one when dev is true.
func NewLogger(dev bool) *Logger {
	var z *zap.Logger
	var err error
	if dev {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z.Sugar()}
}

// WithContext attaches a correlation ID found in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		return &Logger{z: l.z.With("request_id", id)}
	}
	return l
}

// WithFields attaches arbitrary structured fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{z: l.z.With(args...)}
}

// WithError attaches an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{z: l.z.With("error", err)}
}

func (l *Logger) Debug(msg string) { l.z.Debug(msg) }
func (l *Logger) Info(msg string)  { l.z.Info(msg) }
func (l *Logger) Warn(msg string)  { l.z.Warn(msg) }
func (l *Logger) Error(msg string) { l.z.Error(msg) }

// Security logs a security-relevant event (validation rejection, XXE
// block, ...), sanitizing any untrusted excerpt through logsanitize
// before it ever reaches the sink.
func (l *Logger) Security(event string, fields map[string]interface{}) {
	sanitized := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		if s, ok := v.(string); ok {
			sanitized[k] = logsanitize.ForLogging(s, logsanitize.SecurityLogMaxLength)
		} else {
			sanitized[k] = v
		}
	}
	sanitized["security_event"] = event
	l.WithFields(sanitized).Warn("security_event")
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }
