package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SanitizeDialect lowercases and trims code and keeps only [a-z0-9_-].
func SanitizeDialect(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return -1
	}, code)
}

// Filename builds the canonical recording name gender_dialect_index.wav,
// or dialect_index.wav without a gender.
func Filename(gender, dialect string, index int) string {
	dialect = SanitizeDialect(dialect)
	gender = strings.ToLower(strings.TrimSpace(gender))
	if gender == "" {
		return fmt.Sprintf("%s_%d.wav", dialect, index)
	}
	return fmt.Sprintf("%s_%s_%d.wav", gender, dialect, index)
}

// StagingFilename returns a name unique to one upload attempt, derived from
// the canonical name: gender_dialect_index.<id>.wav. Objects live under it
// until their commit succeeds and they are renamed to the canonical name.
func StagingFilename(gender, dialect string, index int) string {
	base := strings.TrimSuffix(Filename(gender, dialect, index), ".wav")
	return fmt.Sprintf("%s.%s.wav", base, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
