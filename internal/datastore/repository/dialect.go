package repository

import (
	"context"
	"time"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

// SentenceCounts summarizes a dialect's sentence set.
type SentenceCounts struct {
	Total    int64
	Recorded int64
}

// Unrecorded returns Total - Recorded.
func (c SentenceCounts) Unrecorded() int64 {
	return c.Total - c.Recorded
}

// DialectRepository provides access to dialects and their sentence sets.
type DialectRepository interface {
	// GetByCode retrieves a dialect by normalized code.
	// Returns ErrDialectNotFound if not found.
	GetByCode(ctx context.Context, code string) (*entities.Dialect, error)

	// List returns all dialects ordered by code.
	List(ctx context.Context) ([]entities.Dialect, error)

	// Create inserts a dialect with sentenceIDs as its unrecorded set.
	// Returns ErrDuplicateKey when the code already exists.
	Create(ctx context.Context, dialect *entities.Dialect, sentenceIDs []int) error

	// Delete removes a dialect and its sentence set.
	Delete(ctx context.Context, id uint) error

	// IncrementRecorded adds one to recorded_count, sets last_recorded_at and
	// returns the new count. The update takes the row lock on the dialect.
	IncrementRecorded(ctx context.Context, id uint, at time.Time) (int, error)

	// SetState overwrites the counters and status, used by reset and reconciliation.
	SetState(ctx context.Context, id uint, recorded, total int, status entities.DialectStatus, lastRecordedAt *time.Time) error

	// SetStatus updates status only.
	SetStatus(ctx context.Context, id uint, status entities.DialectStatus) error

	// HasSentence reports whether sentenceID belongs to the dialect's set.
	HasSentence(ctx context.Context, dialectID uint, sentenceID int) (bool, error)

	// IsRecorded reports whether the sentence has a linked recording.
	IsRecorded(ctx context.Context, dialectID uint, sentenceID int) (bool, error)

	// Rows returns the full sentence set ordered by sentence id.
	Rows(ctx context.Context, dialectID uint) ([]entities.DialectSentence, error)

	// Counts returns total and recorded rows of the set.
	Counts(ctx context.Context, dialectID uint) (SentenceCounts, error)

	// FirstUnrecorded returns the lowest unrecorded sentence id, ok=false if none.
	FirstUnrecorded(ctx context.Context, dialectID uint) (id int, ok bool, err error)

	// UnrecordedAt returns the unrecorded sentence at offset in ascending order.
	UnrecordedAt(ctx context.Context, dialectID uint, offset int) (id int, ok bool, err error)

	// LinkRecording marks an unrecorded sentence as recorded. It returns
	// false when the row was already linked (or does not exist).
	LinkRecording(ctx context.Context, dialectID uint, sentenceID int, recordingID uint, at time.Time) (bool, error)

	// UnlinkRecording clears the link of one row.
	UnlinkRecording(ctx context.Context, dialectID uint, sentenceID int) error

	// AddSentences inserts unrecorded rows, ignoring ids already present.
	AddSentences(ctx context.Context, dialectID uint, sentenceIDs []int) error

	// ReplaceSentences drops the set and inserts sentenceIDs as unrecorded.
	ReplaceSentences(ctx context.Context, dialectID uint, sentenceIDs []int) error
}
