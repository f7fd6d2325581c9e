package filter

import "strings"

// Sanitize returns a copy of def in which every string value, recursively
// through nested maps, is reduced to printable ASCII (0x20 through 0x7E).
// All other value kinds pass through unchanged. The pass neutralizes control
// characters and non-printable payloads in externally supplied definitions
// and is idempotent, so callers holding already-sanitized definitions may
// skip it.
func Sanitize(def map[string]any) map[string]any {
	sanitized := make(map[string]any, len(def))
	for key, value := range def {
		switch v := value.(type) {
		case map[string]any:
			sanitized[key] = Sanitize(v)
		case string:
			sanitized[key] = sanitizeString(v)
		default:
			sanitized[key] = value
		}
	}
	return sanitized
}

func sanitizeString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= 0x20 && r <= 0x7e {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
