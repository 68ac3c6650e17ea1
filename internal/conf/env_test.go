package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		validate func(string) error
		value    string
		wantErr  bool
	}{
		{"bool true", validateEnvBool, "true", false},
		{"bool padded", validateEnvBool, " 0 ", false},
		{"bool yes", validateEnvBool, "yes", true},
		{"port", validateEnvPort, "5000", false},
		{"port zero", validateEnvPort, "0", true},
		{"port text", validateEnvPort, "http", true},
		{"origins", validateEnvOrigins, "http://localhost:3000,https://example.org", false},
		{"origins wildcard", validateEnvOrigins, "*", false},
		{"origins bare host", validateEnvOrigins, "example.org", true},
		{"size units", validateEnvSize, "50MB", false},
		{"size bytes", validateEnvSize, "52428800", false},
		{"size garbage", validateEnvSize, "lots", true},
		{"selection", validateEnvSelection, "Random", false},
		{"selection unknown", validateEnvSelection, "weighted", true},
		{"database url", validateEnvDatabaseURL, "sqlite://data/db.sqlite", false},
		{"database url scheme", validateEnvDatabaseURL, "mongodb://localhost/x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedactEnvValue(t *testing.T) {
	t.Parallel()

	got := redactEnvValue("DATABASE_URL", "mysql://rec:secret@db/speech")
	assert.NotContains(t, got, "secret")
	assert.Equal(t, "5000", redactEnvValue("PORT", "5000"))
}
