package tracker

import (
	"context"

	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/datastore/repository"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

type commitOptions struct {
	gender        string
	canonicalName func(sequenceIndex int) string
}

// CommitOption adjusts a single commit.
type CommitOption func(*commitOptions)

// WithGender stores the contributor's gender on the ledger entry.
func WithGender(gender string) CommitOption {
	return func(o *commitOptions) { o.gender = gender }
}

// WithCanonicalName derives the ledger filename from the sequence index
// assigned inside the transaction, so it holds even when the provisional
// index used for the upload was stale.
func WithCanonicalName(name func(sequenceIndex int) string) CommitOption {
	return func(o *commitOptions) { o.canonicalName = name }
}

// CommitRecording records sentenceID for the dialect after a confirmed
// upload. Within one transaction it increments the dialect's counter
// (which yields the sequence index), appends the ledger entry, links the
// sentence and derives completion. A second commit of the same pair fails
// with ErrAlreadyRecorded and leaves no trace.
func (t *Tracker) CommitRecording(ctx context.Context, code string, sentenceID int, ref StorageRef, opts ...CommitOption) (*Progress, error) {
	progress, err := t.commit(ctx, code, sentenceID, ref, opts)
	t.observer.CommitFinished(commitResult(err))
	if err != nil {
		return nil, err
	}

	t.observer.ProgressUpdated(progress.Code, progress.Recorded(), progress.Total)
	t.log.Info("recording committed",
		logger.String("dialect", progress.Code),
		logger.Int("sentence_id", sentenceID),
		logger.Int("sequence_index", progress.Committed.SequenceIndex),
		logger.Int("recorded", progress.Recorded()),
		logger.Int("total", progress.Total))
	if progress.Completed() {
		t.log.Info("dialect completed", logger.String("dialect", progress.Code))
	}
	return progress, nil
}

func (t *Tracker) commit(ctx context.Context, code string, sentenceID int, ref StorageRef, opts []CommitOption) (*Progress, error) {
	if ref.IsZero() {
		return nil, invalidInput("no confirmed upload for sentence %d", sentenceID)
	}
	var o commitOptions
	for _, opt := range opts {
		opt(&o)
	}

	var (
		progress *Progress
		entry    LedgerEntry
	)
	now := t.now()

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)

		dialect, err := r.lookup(ctx, code)
		if err != nil {
			return err
		}

		inSet, err := r.dialects.HasSentence(ctx, dialect.ID, sentenceID)
		if err != nil {
			return databaseError("check sentence set", err)
		}
		if !inSet {
			return invalidInput("sentence %d is not in the sentence set of dialect %q", sentenceID, dialect.Code)
		}
		sentence, err := r.sentences.Get(ctx, sentenceID)
		if errors.Is(err, repository.ErrSentenceNotFound) {
			return invalidInput("sentence %d is not in the catalog", sentenceID)
		}
		if err != nil {
			return databaseError("get sentence", err)
		}

		// Row lock on the dialect from here until commit
		seq, err := r.dialects.IncrementRecorded(ctx, dialect.ID, now)
		if err != nil {
			return databaseError("increment recorded count", err)
		}

		filename := ref.Filename
		if o.canonicalName != nil {
			filename = o.canonicalName(seq)
		}

		recording := &entities.Recording{
			DialectID:      dialect.ID,
			SentenceID:     sentenceID,
			SentenceText:   sentence.Text,
			SequenceIndex:  seq,
			Filename:       filename,
			Gender:         o.gender,
			StorageBackend: ref.Backend,
			StorageID:      ref.ID,
			StorageLink:    ref.Link,
			SizeBytes:      ref.Size,
			Checksum:       ref.Checksum,
			RecordedAt:     now,
		}
		if err := r.recordings.Create(ctx, recording); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return alreadyRecorded(dialect.Code, sentenceID)
			}
			return databaseError("append ledger", err)
		}

		linked, err := r.dialects.LinkRecording(ctx, dialect.ID, sentenceID, recording.ID, now)
		if err != nil {
			return databaseError("link recording", err)
		}
		if !linked {
			return alreadyRecorded(dialect.Code, sentenceID)
		}

		counts, err := r.dialects.Counts(ctx, dialect.ID)
		if err != nil {
			return databaseError("count sentences", err)
		}
		if counts.Unrecorded() == 0 {
			if err := r.dialects.SetStatus(ctx, dialect.ID, entities.DialectStatusCompleted); err != nil {
				return databaseError("set status", err)
			}
			dialect.Status = entities.DialectStatusCompleted
		}
		dialect.RecordedCount = seq
		dialect.LastRecordedAt = &now

		entry = toLedgerEntry(dialect.Code, recording)
		progress, err = r.progress(ctx, dialect)
		return err
	})
	if err != nil {
		return nil, passOrWrap("commit recording", err)
	}

	progress.Committed = &entry
	return progress, nil
}

// UpdateStorageRef replaces the storage location of a ledger entry after
// the stored object was renamed or moved.
func (t *Tracker) UpdateStorageRef(ctx context.Context, recordingID uint, ref StorageRef) error {
	err := repository.NewRecordingRepository(t.db.WithContext(ctx)).
		UpdateStorage(ctx, recordingID, ref.Filename, ref.ID, ref.Link)
	if errors.Is(err, repository.ErrRecordingNotFound) {
		return errors.New(err).
			Component("tracker").
			Category(errors.CategoryNotFound).
			Context("recording_id", recordingID).
			Build()
	}
	if err != nil {
		return databaseError("update storage ref", err)
	}
	return nil
}
