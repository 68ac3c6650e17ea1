package repository

import (
	"context"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

// SentenceRepository provides access to the sentence catalog.
type SentenceRepository interface {
	// ListIDs returns every sentence id in ascending order.
	ListIDs(ctx context.Context) ([]int, error)

	// Get retrieves a sentence. Returns ErrSentenceNotFound if not found.
	Get(ctx context.Context, id int) (*entities.Sentence, error)

	// GetMany retrieves sentences by id, keyed by id; unknown ids are absent.
	GetMany(ctx context.Context, ids []int) (map[int]*entities.Sentence, error)

	// Count returns the catalog size.
	Count(ctx context.Context) (int64, error)

	// ReplaceAll deletes the catalog and inserts sentences in batches.
	ReplaceAll(ctx context.Context, sentences []entities.Sentence) error

	// DeleteAll removes every sentence.
	DeleteAll(ctx context.Context) error
}
