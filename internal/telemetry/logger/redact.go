package logger

import (
	"log/slog"
	"strings"

	"github.com/yndnr/textnonce-go/pkg/nonce"
)

// Keys whose values are nonces. Only the time segment is kept.
var nonceKeyPatterns = []string{
	"nonce",
	"token",
	"session_id",
}

// Keys whose values are replaced entirely.
var secretKeyPatterns = []string{
	"password",
	"secret",
	"api_key",
	"apikey",
	"credential",
	"authorization",
	"bearer",
}

const redactedValue = "***REDACTED***"

// redactSensitive masks string attributes by key name and recurses into groups.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		key := strings.ToLower(a.Key)
		if matchesAny(key, secretKeyPatterns) {
			return slog.String(a.Key, redactedValue)
		}
		if matchesAny(key, nonceKeyPatterns) {
			return slog.String(a.Key, MaskNonce(v))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

func matchesAny(key string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

// MaskNonce keeps the time segment of a nonce-shaped value and hides the
// random segment. Values that do not look like nonces are fully redacted.
func MaskNonce(value string) string {
	if !LooksLikeNonce(value) {
		return redactedValue
	}
	if len(value) == nonce.TimeSegmentLength {
		return value
	}
	return value[:nonce.TimeSegmentLength] + "..."
}

// LooksLikeNonce reports whether value has a valid nonce length and only
// alphabet characters.
func LooksLikeNonce(value string) bool {
	if nonce.ValidateLength(len(value)) != nil {
		return false
	}
	for i := 0; i < len(value); i++ {
		if strings.IndexByte(nonce.Alphabet, value[i]) < 0 {
			return false
		}
	}
	return true
}

// RedactString masks value if it looks like a nonce, for callers that build
// messages by hand.
func RedactString(value string) string {
	if LooksLikeNonce(value) {
		return MaskNonce(value)
	}
	return value
}

// IsSensitiveKey reports whether a key name triggers masking.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	return matchesAny(key, secretKeyPatterns) || matchesAny(key, nonceKeyPatterns)
}
