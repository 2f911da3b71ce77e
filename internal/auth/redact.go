package auth

import (
	"strings"
)

// secretSuffixes match normalised key names: lower case, separators removed
var secretSuffixes = []string{"token", "secret", "password", "passwd", "key"}

// IsSecretKey reports whether a bundle field holds a secret. Matching ignores
// case and separators, so access_token, accessToken and Access-Token agree.
func IsSecretKey(key string) bool {
	norm := strings.NewReplacer("_", "", "-", "", ".", "").Replace(strings.ToLower(key))
	for _, suffix := range secretSuffixes {
		if strings.HasSuffix(norm, suffix) {
			return true
		}
	}
	return false
}

// Redact masks a secret for display, keeping a short prefix and suffix
func Redact(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("•", len(secret))
	}
	return secret[:4] + "…" + secret[len(secret)-4:]
}

// RedactBundle returns a copy of b with secret fields masked at any depth
func RedactBundle(b Bundle) Bundle {
	if b == nil {
		return nil
	}
	out, _ := redactValue(map[string]any(b)).(map[string]any)
	return Bundle(out)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case Bundle:
		return redactValue(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if IsSecretKey(k) {
				if s, ok := vv.(string); ok {
					out[k] = Redact(s)
				} else {
					out[k] = "***REDACTED***"
				}
				continue
			}
			out[k] = redactValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = redactValue(t[i])
		}
		return out
	default:
		return v
	}
}
