package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDialect(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Dhaka":       "dhaka",
		"  barishal ": "barishal",
		"Cox's Bazar": "coxsbazar",
		"old-dhaka_2": "old-dhaka_2",
		"../../etc":   "etc",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeDialect(in), in)
	}
	assert.Empty(t, SanitizeDialect("চট্টগ্রাম"))
}

func TestFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "female_dhaka_3.wav", Filename("Female", "Dhaka", 3))
	assert.Equal(t, "male_sylhet_120.wav", Filename("male", "sylhet", 120))
	assert.Equal(t, "dhaka_1.wav", Filename("", "dhaka", 1))
}

func TestStagingFilename(t *testing.T) {
	t.Parallel()

	a := StagingFilename("Male", "Dhaka", 4)
	b := StagingFilename("male", "dhaka", 4)

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^male_dhaka_4\.[0-9a-f]{12}\.wav$`, a)
	assert.NoError(t, validateComponent(a))
}

func TestFolderMapper(t *testing.T) {
	t.Parallel()

	m := NewFolderMapper(map[string]string{"Dhaka": "Dhaka", "coxsbazar": "Cox's Bazar"})

	assert.Equal(t, "Dhaka", m.Folder("dhaka"))
	assert.Equal(t, "Cox's Bazar", m.Folder("CoxsBazar"))
	assert.Equal(t, "Rangpur", m.Folder("rangpur"))

	assert.True(t, m.Known("DHAKA"))
	assert.False(t, m.Known("rangpur"))
	assert.Equal(t, []string{"coxsbazar", "dhaka"}, m.Codes())
}
