package storage

import (
	"maps"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FolderMapper resolves dialect codes to storage folder names.
type FolderMapper struct {
	folders map[string]string
}

// NewFolderMapper creates a mapper over a code to folder map.
func NewFolderMapper(folders map[string]string) *FolderMapper {
	m := &FolderMapper{
		folders: make(map[string]string, len(folders)),
	}
	for code, folder := range folders {
		m.folders[SanitizeDialect(code)] = folder
	}
	return m
}

// Folder returns the configured folder of code, or the sanitized code in
// title case ("rangpur" becomes "Rangpur").
func (m *FolderMapper) Folder(code string) string {
	code = SanitizeDialect(code)
	if folder, ok := m.folders[code]; ok {
		return folder
	}
	// A Caser is stateful, so one per call
	return cases.Title(language.Und, cases.NoLower).String(code)
}

// Known reports whether code has a configured folder.
func (m *FolderMapper) Known(code string) bool {
	_, ok := m.folders[SanitizeDialect(code)]
	return ok
}

// Codes returns the configured dialect codes sorted.
func (m *FolderMapper) Codes() []string {
	return slices.Sorted(maps.Keys(m.folders))
}
