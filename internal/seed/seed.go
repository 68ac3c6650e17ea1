// Package seed loads the sentence catalog and the dialect list into the
// database. Seeding replaces the catalog wholesale, so it refuses to run
// over existing recordings unless forced.
package seed

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/datastore/repository"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

// ErrRecordingsExist is returned when seeding would discard recorded progress.
var ErrRecordingsExist = errors.NewStd("recordings exist")

// Result summarizes a seed run.
type Result struct {
	Sentences     int   `json:"sentences"`
	Dialects      int   `json:"dialects"`
	MaxRecordings int   `json:"maxRecordings"`
	Discarded     int64 `json:"discardedRecordings"`
}

// Seeder writes catalog and dialects.
type Seeder struct {
	sentences repository.SentenceRepository
	tracker   *tracker.Tracker
	log       logger.Logger
}

// New creates a Seeder over db.
func New(db *gorm.DB, t *tracker.Tracker) *Seeder {
	return &Seeder{
		sentences: repository.NewSentenceRepository(db),
		tracker:   t,
		log:       logger.Global().Module("seed"),
	}
}

// Seed replaces the catalog with sentences and initializes every dialect
// with the full sentence set. Existing dialects are dropped first. With
// recordings in the ledger it fails with ErrRecordingsExist unless force is set.
func (s *Seeder) Seed(ctx context.Context, sentences []Sentence, dialects []Dialect, force bool) (*Result, error) {
	if err := validateSentences(sentences); err != nil {
		return nil, err
	}
	if err := validateDialects(dialects); err != nil {
		return nil, err
	}

	stats, err := s.tracker.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.TotalRecordings > 0 && !force {
		return nil, errors.New(fmt.Errorf("%d recordings would be discarded: %w", stats.TotalRecordings, ErrRecordingsExist)).
			Component("seed").
			Category(errors.CategoryConflict).
			Build()
	}
	if stats.TotalDialects > 0 || stats.TotalSentences > 0 {
		if err := s.tracker.DeleteAll(ctx); err != nil {
			return nil, err
		}
		s.log.Warn("existing progress data dropped",
			logger.Int64("recordings", stats.TotalRecordings),
			logger.Int("dialects", stats.TotalDialects))
	}

	catalog := make([]entities.Sentence, len(sentences))
	for i, sentence := range sentences {
		catalog[i] = entities.Sentence{ID: sentence.Number(), Text: strings.TrimSpace(sentence.Text)}
	}
	slices.SortFunc(catalog, func(a, b entities.Sentence) int { return a.ID - b.ID })
	if err := s.sentences.ReplaceAll(ctx, catalog); err != nil {
		return nil, errors.New(fmt.Errorf("replace catalog: %w", err)).
			Component("seed").
			Category(errors.CategoryDatabase).
			Build()
	}
	s.log.Info("sentence catalog replaced", logger.Int("sentences", len(catalog)))

	for _, d := range dialects {
		if _, err := s.tracker.InitDialect(ctx, d.Code, d.Name, d.Label); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Sentences:     len(catalog),
		Dialects:      len(dialects),
		MaxRecordings: len(catalog) * len(dialects),
		Discarded:     stats.TotalRecordings,
	}
	s.log.Info("seeding completed",
		logger.Int("sentences", result.Sentences),
		logger.Int("dialects", result.Dialects),
		logger.Int("max_recordings", result.MaxRecordings))
	return result, nil
}

func invalid(format string, args ...any) error {
	return errors.New(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), tracker.ErrInvalidInput)).
		Component("seed").
		Category(errors.CategoryValidation).
		Build()
}
