package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Mask replaces redacted values.
const Mask = "******"

var sensitiveKeys = map[string]bool{
	"credentials":   true,
	"authorization": true,
	"token":         true,
	"password":      true,
	"access_token":  true,
	"api_key":       true,
}

var tokenPattern = regexp.MustCompile(`token=([^;]+)`)

// IsSensitive reports whether a field or header name must never be logged.
func IsSensitive(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}

// Scrub masks token=value pairs in free text.
func Scrub(s string) string {
	return tokenPattern.ReplaceAllString(s, "token="+Mask)
}

// Redact wraps a core so sensitive fields and inline tokens never reach it.
func Redact(core zapcore.Core) zapcore.Core {
	return &redactCore{Core: core}
}

type redactCore struct {
	zapcore.Core
}

func (c *redactCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactCore{Core: c.Core.With(scrubFields(fields))}
}

func (c *redactCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *redactCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = Scrub(entry.Message)
	return c.Core.Write(entry, scrubFields(fields))
}

func scrubFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch {
		case IsSensitive(f.Key):
			out[i] = zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: Mask}
		case f.Type == zapcore.StringType:
			f.String = Scrub(f.String)
			out[i] = f
		default:
			out[i] = f
		}
	}
	return out
}

// Headers copies request headers with sensitive values masked.
func Headers(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if IsSensitive(k) {
			out[k] = Mask
			continue
		}
		out[k] = Scrub(strings.Join(v, ", "))
	}
	return out
}
