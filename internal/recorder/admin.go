package recorder

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/events"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/storage"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

// WipeResult reports an administrative wipe of one dialect.
type WipeResult struct {
	DialectCode       string   `json:"dialectCode"`
	Folder            string   `json:"folder"`
	DeletedRecordings int      `json:"deletedRecordings"`
	DeletedFiles      int      `json:"deletedFiles"`
	FailedFiles       int      `json:"failedFiles"`
	FolderRemoved     bool     `json:"folderRemoved"`
	Errors            []string `json:"errors,omitempty"`

	Progress *tracker.Progress `json:"-"`
}

// CleanResult reports a database-wide cleanup.
type CleanResult struct {
	RecordingsOnly    bool  `json:"recordingsOnly"`
	DeletedRecordings int64 `json:"deletedRecordings"`
	DeletedDialects   int   `json:"deletedDialects"`
}

// Admin runs destructive maintenance operations.
type Admin struct {
	tracker   *tracker.Tracker
	store     storage.Store
	folders   *storage.FolderMapper
	publisher events.Publisher
	log       logger.Logger
}

// NewAdmin creates an Admin. publisher may be nil.
func NewAdmin(t *tracker.Tracker, store storage.Store, folders *storage.FolderMapper, publisher events.Publisher) *Admin {
	return &Admin{
		tracker:   t,
		store:     store,
		folders:   folders,
		publisher: publisher,
		log:       GetLogger().With(logger.String("operation", "admin")),
	}
}

// WipeDialect resets a dialect's progress and then deletes the stored
// objects of exactly the ledger entries the reset removed, so a commit racing
// the wipe is either wiped with its object or kept whole. Storage failures
// are collected in the result and leave orphaned objects, never a ledger
// entry without its object.
func (a *Admin) WipeDialect(ctx context.Context, rawCode string) (*WipeResult, error) {
	code := tracker.NormalizeCode(rawCode)
	if code == "" {
		return nil, invalid("dialectName is required")
	}
	if !a.folders.Known(code) {
		return nil, invalid("unknown dialect %q, valid dialects: %v", code, a.folders.Codes())
	}

	progress, entries, err := a.tracker.ResetDialectLedger(ctx, code)
	if err != nil {
		return nil, err
	}

	result := &WipeResult{
		DialectCode:       code,
		Folder:            a.folders.Folder(code),
		DeletedRecordings: len(entries),
		Progress:          progress,
	}
	a.deleteObjects(ctx, entries, result)

	removed, err := a.store.RemoveFolderIfEmpty(ctx, result.Folder)
	if err != nil {
		a.log.Warn("failed to remove dialect folder",
			logger.String("folder", result.Folder),
			logger.Error(err))
		result.Errors = append(result.Errors, fmt.Sprintf("folder %s: %s", result.Folder, errors.ScrubMessage(err.Error())))
	}
	result.FolderRemoved = removed

	a.log.Warn("dialect wiped",
		logger.String("dialect", code),
		logger.Int("deleted_recordings", result.DeletedRecordings),
		logger.Int("deleted_files", result.DeletedFiles),
		logger.Int("failed_files", result.FailedFiles))

	publish(a.publisher, events.ProgressEvent{
		Type:     events.DialectReset,
		Dialect:  code,
		Recorded: progress.Recorded(),
		Total:    progress.Total,
		Status:   string(progress.Status),
		Details: map[string]any{
			"deletedRecordings": result.DeletedRecordings,
			"deletedFiles":      result.DeletedFiles,
			"failedFiles":       result.FailedFiles,
		},
	})
	return result, nil
}

// deleteObjects removes the stored objects of entries, at most
// deleteConcurrency at a time. An object that is already gone counts as deleted.
func (a *Admin) deleteObjects(ctx context.Context, entries []tracker.LedgerEntry, result *WipeResult) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)

	for _, entry := range entries {
		if entry.Storage.IsZero() {
			continue
		}
		g.Go(func() error {
			err := a.store.Delete(gctx, entry.Storage.ID)
			if errors.Is(err, storage.ErrObjectNotFound) {
				err = nil
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailedFiles++
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s: %s", entry.Filename, errors.ScrubMessage(err.Error())))
				return nil
			}
			result.DeletedFiles++
			return nil
		})
	}
	_ = g.Wait()
}

// CleanAll empties the ledger and resets every dialect. Unless
// recordingsOnly is set it also drops the dialects and the catalog.
// Stored objects are left alone.
func (a *Admin) CleanAll(ctx context.Context, recordingsOnly bool) (*CleanResult, error) {
	if recordingsOnly {
		deleted, err := a.tracker.DeleteAllRecordings(ctx)
		if err != nil {
			return nil, err
		}
		return &CleanResult{RecordingsOnly: true, DeletedRecordings: deleted}, nil
	}

	stats, err := a.tracker.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.tracker.DeleteAll(ctx); err != nil {
		return nil, err
	}
	a.log.Warn("database cleaned",
		logger.Int64("deleted_recordings", stats.TotalRecordings),
		logger.Int("deleted_dialects", stats.TotalDialects))
	return &CleanResult{
		DeletedRecordings: stats.TotalRecordings,
		DeletedDialects:   stats.TotalDialects,
	}, nil
}
