package tracker

import "strings"

// NormalizeCode lowercases and trims a dialect code and drops every
// character outside [a-z0-9_-].
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))

	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
