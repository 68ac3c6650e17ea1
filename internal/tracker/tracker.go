// Package tracker maintains per-dialect recording progress: which sentences
// of the catalog are recorded, which one to serve next, and the
// transactional commit that appends the recording ledger.
//
// Exclusivity of (dialect, sentence) is enforced by the database: the
// unique index on recordings and the conditional link of the dialect's
// sentence row. No process-wide lock is held, so several server processes
// may share one database.
package tracker

import (
	"context"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/datastore/repository"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// GetLogger returns the tracker module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("tracker")
}

// Tracker is the dialect progress tracker. It is safe for concurrent use.
type Tracker struct {
	db       *gorm.DB
	selector Selector
	observer Observer
	log      logger.Logger
	now      func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSelector overrides the configured selection policy.
func WithSelector(s Selector) Option {
	return func(t *Tracker) { t.selector = s }
}

// WithObserver installs an activity observer.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		if o != nil {
			t.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a tracker over db using the configured selection policy.
func New(db *gorm.DB, settings conf.TrackerSettings, opts ...Option) (*Tracker, error) {
	selector, err := NewSelector(settings.Selection)
	if err != nil {
		return nil, invalidInput("tracker settings: %v", err)
	}

	t := &Tracker{
		db:       db,
		selector: selector,
		observer: noopObserver{},
		log:      GetLogger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Selector returns the active selection policy.
func (t *Tracker) Selector() Selector {
	return t.selector
}

// db-scoped repositories, so the same code runs inside and outside transactions
type repos struct {
	sentences      repository.SentenceRepository
	dialects       repository.DialectRepository
	recordings     repository.RecordingRepository
	reconciliation repository.ReconciliationRepository
}

func reposFor(db *gorm.DB) repos {
	return repos{
		sentences:      repository.NewSentenceRepository(db),
		dialects:       repository.NewDialectRepository(db),
		recordings:     repository.NewRecordingRepository(db),
		reconciliation: repository.NewReconciliationRepository(db),
	}
}

// lookup resolves a raw code to its dialect row.
func (r repos) lookup(ctx context.Context, rawCode string) (*entities.Dialect, error) {
	code := NormalizeCode(rawCode)
	if code == "" {
		return nil, invalidInput("dialect code %q is empty after normalization", rawCode)
	}
	dialect, err := r.dialects.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrDialectNotFound) {
		return nil, dialectNotFound(code)
	}
	if err != nil {
		return nil, databaseError("get dialect", err)
	}
	return dialect, nil
}

// progress reads the full progress view of a dialect. Both sets, the refs
// and the status come from one read of the sentence rows, so a concurrent
// commit is either wholly in the view or not at all.
func (r repos) progress(ctx context.Context, dialect *entities.Dialect) (*Progress, error) {
	rows, err := r.dialects.Rows(ctx, dialect.ID)
	if err != nil {
		return nil, databaseError("list dialect sentences", err)
	}

	recorded := make([]int, 0, len(rows))
	unrecorded := make([]int, 0, len(rows))
	refs := make([]uint, 0, len(rows))
	for _, row := range rows {
		if row.RecordingID == nil {
			unrecorded = append(unrecorded, row.SentenceID)
			continue
		}
		recorded = append(recorded, row.SentenceID)
		refs = append(refs, *row.RecordingID)
	}
	// ledger ids grow with commit order
	slices.Sort(refs)

	status := entities.DialectStatusInProgress
	if len(rows) > 0 && len(unrecorded) == 0 {
		status = entities.DialectStatusCompleted
	}

	return &Progress{
		Code:           dialect.Code,
		Name:           dialect.Name,
		Label:          dialect.Label,
		Status:         status,
		RecordedIDs:    recorded,
		UnrecordedIDs:  unrecorded,
		RecordingRefs:  refs,
		LastRecordedAt: dialect.LastRecordedAt,
		Total:          len(rows),
	}, nil
}

// InitDialect creates a dialect whose sentence set is the current catalog,
// all unrecorded. Calling it for an existing dialect returns its progress
// unchanged.
func (t *Tracker) InitDialect(ctx context.Context, rawCode, name, label string) (*Progress, error) {
	code := NormalizeCode(rawCode)
	if code == "" {
		return nil, invalidInput("dialect code %q is empty after normalization", rawCode)
	}
	if name == "" {
		name = code
	}

	r := reposFor(t.db.WithContext(ctx))
	if existing, err := r.dialects.GetByCode(ctx, code); err == nil {
		return r.progress(ctx, existing)
	} else if !errors.Is(err, repository.ErrDialectNotFound) {
		return nil, databaseError("get dialect", err)
	}

	ids, err := r.sentences.ListIDs(ctx)
	if err != nil {
		return nil, databaseError("list catalog", err)
	}
	if len(ids) == 0 {
		return nil, invalidInput("cannot initialize dialect %q from an empty sentence catalog", code)
	}

	dialect := &entities.Dialect{
		Code:           code,
		Name:           name,
		Label:          label,
		Status:         entities.DialectStatusInProgress,
		TotalSentences: len(ids),
	}
	err = r.dialects.Create(ctx, dialect, ids)
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		// Lost a race with a concurrent init of the same code
		existing, getErr := r.dialects.GetByCode(ctx, code)
		if getErr != nil {
			return nil, databaseError("get dialect", getErr)
		}
		return r.progress(ctx, existing)
	case err != nil:
		return nil, databaseError("create dialect", err)
	}

	t.log.Info("dialect initialized",
		logger.String("dialect", code),
		logger.Int("sentences", len(ids)))
	t.observer.ProgressUpdated(code, 0, len(ids))

	return r.progress(ctx, dialect)
}

// GetDialect returns the full progress record of a dialect.
func (t *Tracker) GetDialect(ctx context.Context, code string) (*Progress, error) {
	r := reposFor(t.db.WithContext(ctx))
	dialect, err := r.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	return r.progress(ctx, dialect)
}

// ListDialects returns a summary of every dialect sorted by code.
func (t *Tracker) ListDialects(ctx context.Context) ([]DialectSummary, error) {
	r := reposFor(t.db.WithContext(ctx))
	dialects, err := r.dialects.List(ctx)
	if err != nil {
		return nil, databaseError("list dialects", err)
	}

	summaries := make([]DialectSummary, 0, len(dialects))
	for i := range dialects {
		d := &dialects[i]
		summaries = append(summaries, DialectSummary{
			Code:       d.Code,
			Name:       d.Name,
			Label:      d.Label,
			Status:     d.Status,
			Recorded:   d.RecordedCount,
			Total:      d.TotalSentences,
			Percentage: Percentage(d.RecordedCount, d.TotalSentences),
		})
	}
	return summaries, nil
}

// GetProgress returns the compact progress report of a dialect.
func (t *Tracker) GetProgress(ctx context.Context, code string) (*ProgressReport, error) {
	r := reposFor(t.db.WithContext(ctx))
	dialect, err := r.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	counts, err := r.dialects.Counts(ctx, dialect.ID)
	if err != nil {
		return nil, databaseError("count sentences", err)
	}

	return &ProgressReport{
		Code:           dialect.Code,
		Recorded:       int(counts.Recorded),
		Total:          int(counts.Total),
		Remaining:      int(counts.Unrecorded()),
		Percentage:     Percentage(counts.Recorded, counts.Total),
		Status:         dialect.Status,
		LastRecordedAt: dialect.LastRecordedAt,
	}, nil
}

// SelectNext returns the next unrecorded sentence according to the
// selection policy, or nil when the dialect is complete. It has no side effects.
func (t *Tracker) SelectNext(ctx context.Context, code string) (*Sentence, error) {
	r := reposFor(t.db.WithContext(ctx))
	dialect, err := r.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	counts, err := r.dialects.Counts(ctx, dialect.ID)
	if err != nil {
		return nil, databaseError("count sentences", err)
	}
	remaining := int(counts.Unrecorded())
	if remaining == 0 {
		t.observer.SentenceSelected(t.selector.Name(), false)
		return nil, nil
	}

	id, ok, err := r.dialects.UnrecordedAt(ctx, dialect.ID, t.selector.Offset(remaining))
	if err != nil {
		return nil, databaseError("select sentence", err)
	}
	if !ok {
		// A concurrent commit shrank the set below the chosen offset
		if id, ok, err = r.dialects.FirstUnrecorded(ctx, dialect.ID); err != nil {
			return nil, databaseError("select sentence", err)
		}
		if !ok {
			t.observer.SentenceSelected(t.selector.Name(), false)
			return nil, nil
		}
	}

	sentence, err := r.sentences.Get(ctx, id)
	if err != nil {
		return nil, databaseError("get sentence", err)
	}

	t.observer.SentenceSelected(t.selector.Name(), true)
	return &Sentence{ID: sentence.ID, Text: sentence.Text}, nil
}

// NextIndex returns the sequence index the next commit of the dialect would
// receive if no other commit happens first.
func (t *Tracker) NextIndex(ctx context.Context, code string) (int, error) {
	r := reposFor(t.db.WithContext(ctx))
	dialect, err := r.lookup(ctx, code)
	if err != nil {
		return 0, err
	}
	return dialect.RecordedCount + 1, nil
}

// Sentence returns a catalog sentence. An unknown id is ErrInvalidInput.
func (t *Tracker) Sentence(ctx context.Context, id int) (*Sentence, error) {
	sentence, err := repository.NewSentenceRepository(t.db.WithContext(ctx)).Get(ctx, id)
	if errors.Is(err, repository.ErrSentenceNotFound) {
		return nil, invalidInput("sentence %d is not in the catalog", id)
	}
	if err != nil {
		return nil, databaseError("get sentence", err)
	}
	return &Sentence{ID: sentence.ID, Text: sentence.Text}, nil
}

// IsRecorded reports whether the pair already has a ledger entry.
func (t *Tracker) IsRecorded(ctx context.Context, code string, sentenceID int) (bool, error) {
	r := reposFor(t.db.WithContext(ctx))
	dialect, err := r.lookup(ctx, code)
	if err != nil {
		return false, err
	}
	exists, err := r.recordings.Exists(ctx, dialect.ID, sentenceID)
	if err != nil {
		return false, databaseError("check recording", err)
	}
	return exists, nil
}

// Summary aggregates progress over all dialects.
func (t *Tracker) Summary(ctx context.Context) (*Summary, error) {
	dialects, err := t.ListDialects(ctx)
	if err != nil {
		return nil, err
	}

	s := &Summary{TotalDialects: len(dialects)}
	for _, d := range dialects {
		if d.Status == entities.DialectStatusCompleted {
			s.CompletedDialects++
		} else {
			s.InProgressDialects++
		}
		s.TotalRecordings += int64(d.Recorded)
		s.MaxPossibleRecordings += int64(d.Total)
	}
	s.OverallProgress = Percentage(s.TotalRecordings, s.MaxPossibleRecordings)
	return s, nil
}
