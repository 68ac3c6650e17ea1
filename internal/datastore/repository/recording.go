package repository

import (
	"context"
	"time"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

// DialectRecordingCount is one row of RecordingStats.
type DialectRecordingCount struct {
	DialectID uint
	Count     int64
	Latest    *time.Time
}

// RecordingStats aggregates the ledger.
type RecordingStats struct {
	Total      int64
	PerDialect []DialectRecordingCount
}

// RecordingRepository provides access to the recording ledger.
type RecordingRepository interface {
	// Create appends a ledger entry. Returns ErrDuplicateKey when the
	// (dialect, sentence) pair is already recorded.
	Create(ctx context.Context, recording *entities.Recording) error

	// Get retrieves a recording. Returns ErrRecordingNotFound if not found.
	Get(ctx context.Context, id uint) (*entities.Recording, error)

	// Exists reports whether the pair has a ledger entry.
	Exists(ctx context.Context, dialectID uint, sentenceID int) (bool, error)

	// ListByDialect returns a page of entries newest first and the total count.
	ListByDialect(ctx context.Context, dialectID uint, page, limit int) ([]entities.Recording, int64, error)

	// Recent returns the n newest entries of a dialect.
	Recent(ctx context.Context, dialectID uint, n int) ([]entities.Recording, error)

	// AllByDialect returns every entry of a dialect in sequence order.
	AllByDialect(ctx context.Context, dialectID uint) ([]entities.Recording, error)

	// IDsExist returns the subset of ids present in the ledger.
	IDsExist(ctx context.Context, ids []uint) (map[uint]bool, error)

	// LatestRecordedAt returns the newest recorded_at of a dialect, nil when empty.
	LatestRecordedAt(ctx context.Context, dialectID uint) (*time.Time, error)

	// UpdateStorage replaces the storage location after a rename.
	UpdateStorage(ctx context.Context, id uint, filename, storageID, link string) error

	// Stats aggregates counts per dialect.
	Stats(ctx context.Context) (*RecordingStats, error)

	// Count returns the ledger size.
	Count(ctx context.Context) (int64, error)

	// DeleteByDialect removes every entry of a dialect and returns how many.
	DeleteByDialect(ctx context.Context, dialectID uint) (int64, error)

	// DeleteAll empties the ledger.
	DeleteAll(ctx context.Context) (int64, error)
}
