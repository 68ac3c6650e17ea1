package seed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

//go:embed dialects.yaml
var defaultDialects []byte

// Sentence is one catalog entry. Files may name the id "sentenceId" or "id".
type Sentence struct {
	SentenceID int    `json:"sentenceId" yaml:"sentenceId" toml:"sentenceId"`
	ID         int    `json:"id" yaml:"id" toml:"id"`
	Text       string `json:"text" yaml:"text" toml:"text"`
}

// Number returns the sentence id, whichever key carried it.
func (s Sentence) Number() int {
	if s.SentenceID != 0 {
		return s.SentenceID
	}
	return s.ID
}

// Dialect is one dialect to initialize.
type Dialect struct {
	Code  string `json:"code" yaml:"code" toml:"code"`
	Name  string `json:"name" yaml:"name" toml:"name"`
	Label string `json:"label" yaml:"label" toml:"label"`
}

// TOML has no top-level arrays, so TOML files wrap the list in a table
// ([[sentences]] or [[dialects]]). JSON and YAML accept either form.
type document struct {
	Sentences []Sentence `json:"sentences" yaml:"sentences" toml:"sentences"`
	Dialects  []Dialect  `json:"dialects" yaml:"dialects" toml:"dialects"`
}

// LoadSentences reads and validates a sentence file.
func LoadSentences(path string) ([]Sentence, error) {
	doc, list, err := load[Sentence](path)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = doc.Sentences
	}
	if err := validateSentences(list); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// LoadDialects reads and validates a dialect file.
func LoadDialects(path string) ([]Dialect, error) {
	doc, list, err := load[Dialect](path)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = doc.Dialects
	}
	if err := validateDialects(list); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// DefaultDialects returns the built-in dialect list.
func DefaultDialects() ([]Dialect, error) {
	var list []Dialect
	if err := yaml.Unmarshal(defaultDialects, &list); err != nil {
		return nil, fmt.Errorf("embedded dialects: %w", err)
	}
	return list, validateDialects(list)
}

// load decodes path by extension, either as a bare list or as a document.
func load[T any](path string) (*document, []T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.New(err).
			Component("seed").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	var (
		doc  document
		list []T
	)
	trimmed := bytes.TrimSpace(data)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if bytes.HasPrefix(trimmed, []byte("[")) {
			err = json.Unmarshal(trimmed, &list)
		} else {
			err = json.Unmarshal(trimmed, &doc)
		}
	case ".yaml", ".yml":
		var node yaml.Node
		if err = yaml.Unmarshal(data, &node); err == nil && len(node.Content) > 0 {
			if node.Content[0].Kind == yaml.SequenceNode {
				err = node.Decode(&list)
			} else {
				err = node.Decode(&doc)
			}
		}
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&doc)
	default:
		return nil, nil, invalid("unsupported seed file type %q", ext)
	}
	if err != nil {
		return nil, nil, invalid("parse %s: %v", path, err)
	}
	return &doc, list, nil
}

func validateSentences(list []Sentence) error {
	if len(list) == 0 {
		return invalid("no sentences")
	}
	seen := make(map[int]bool, len(list))
	for i, s := range list {
		id := s.Number()
		switch {
		case id <= 0:
			return invalid("sentence #%d: id must be positive", i+1)
		case seen[id]:
			return invalid("sentence %d: duplicate id", id)
		case strings.TrimSpace(s.Text) == "":
			return invalid("sentence %d: empty text", id)
		}
		seen[id] = true
	}
	return nil
}

func validateDialects(list []Dialect) error {
	if len(list) == 0 {
		return invalid("no dialects")
	}
	seen := make(map[string]bool, len(list))
	for i, d := range list {
		code := tracker.NormalizeCode(d.Code)
		if code == "" {
			return invalid("dialect #%d: empty code", i+1)
		}
		if seen[code] {
			return invalid("dialect %q: duplicate code", code)
		}
		seen[code] = true
	}
	return nil
}
