package tracker

import (
	"context"

	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// ResetDialect deletes the dialect's ledger and rebuilds its sentence set
// from the current catalog, all unrecorded. Stored objects are not touched.
func (t *Tracker) ResetDialect(ctx context.Context, code string) (*Progress, error) {
	progress, _, err := t.ResetDialectLedger(ctx, code)
	return progress, err
}

// ResetDialectLedger resets like ResetDialect and also returns the ledger
// entries the reset removed, read in the same transaction. A commit is
// either among them or lands on the fresh sentence set.
func (t *Tracker) ResetDialectLedger(ctx context.Context, code string) (*Progress, []LedgerEntry, error) {
	var (
		progress *Progress
		removed  []LedgerEntry
		deleted  int64
	)

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)

		dialect, err := r.lookup(ctx, code)
		if err != nil {
			return err
		}

		ids, err := r.sentences.ListIDs(ctx)
		if err != nil {
			return databaseError("list catalog", err)
		}
		if len(ids) == 0 {
			return invalidInput("cannot reset dialect %q to an empty sentence catalog", dialect.Code)
		}

		rows, err := r.recordings.AllByDialect(ctx, dialect.ID)
		if err != nil {
			return databaseError("list ledger", err)
		}
		removed = toLedgerEntries(dialect.Code, rows)
		if deleted, err = r.recordings.DeleteByDialect(ctx, dialect.ID); err != nil {
			return databaseError("delete ledger", err)
		}
		if err := r.dialects.ReplaceSentences(ctx, dialect.ID, ids); err != nil {
			return databaseError("rebuild sentence set", err)
		}
		if err := r.dialects.SetState(ctx, dialect.ID, 0, len(ids), entities.DialectStatusInProgress, nil); err != nil {
			return databaseError("reset counters", err)
		}

		dialect.RecordedCount = 0
		dialect.TotalSentences = len(ids)
		dialect.Status = entities.DialectStatusInProgress
		dialect.LastRecordedAt = nil

		progress, err = r.progress(ctx, dialect)
		return err
	})
	if err != nil {
		return nil, nil, passOrWrap("reset dialect", err)
	}

	t.observer.ProgressUpdated(progress.Code, 0, progress.Total)
	t.log.Info("dialect reset",
		logger.String("dialect", progress.Code),
		logger.Int64("deleted_recordings", deleted),
		logger.Int("sentences", progress.Total))
	return progress, removed, nil
}

// DeleteAllRecordings empties the ledger and resets every dialect. It
// returns the number of ledger entries removed.
func (t *Tracker) DeleteAllRecordings(ctx context.Context) (int64, error) {
	dialects, err := t.ListDialects(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, d := range dialects {
		_, removed, err := t.ResetDialectLedger(ctx, d.Code)
		if err != nil {
			return total, err
		}
		total += int64(len(removed))
	}

	// Entries of dialects that no longer exist
	orphans, err := reposFor(t.db.WithContext(ctx)).recordings.DeleteAll(ctx)
	if err != nil {
		return total, databaseError("delete ledger", err)
	}
	return total + orphans, nil
}

// DeleteAll drops the ledger, every dialect and the catalog.
func (t *Tracker) DeleteAll(ctx context.Context) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		if _, err := r.recordings.DeleteAll(ctx); err != nil {
			return err
		}
		dialects, err := r.dialects.List(ctx)
		if err != nil {
			return err
		}
		for i := range dialects {
			if err := r.dialects.Delete(ctx, dialects[i].ID); err != nil {
				return err
			}
		}
		return r.sentences.DeleteAll(ctx)
	})
	if err != nil {
		return databaseError("delete all", err)
	}
	t.log.Warn("all progress data deleted")
	return nil
}
