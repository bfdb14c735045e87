package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Redacted replaces secret values in log output
const Redacted = "[REDACTED]"

var (
	sensitiveKeys = map[string]struct{}{
		"password":      {},
		"token":         {},
		"access_token":  {},
		"authorization": {},
		"secret":        {},
	}

	jwtPattern    = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+\S+`)
)

type redactingCore struct {
	zapcore.Core
}

// Redact wraps core so that sensitive fields and token-looking strings never
// reach it.
func Redact(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *redactingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = redactString(entry.Message)
	return c.Core.Write(entry, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch {
		case isSensitiveKey(f.Key):
			out[i] = zap.String(f.Key, Redacted)
		case f.Type == zapcore.StringType:
			out[i] = zap.String(f.Key, redactString(f.String))
		case f.Type == zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok {
				out[i] = zap.String(f.Key, redactString(err.Error()))
			} else {
				out[i] = f
			}
		default:
			out[i] = f
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

func redactString(s string) string {
	s = bearerPattern.ReplaceAllString(s, "Bearer "+Redacted)
	return jwtPattern.ReplaceAllString(s, Redacted)
}
