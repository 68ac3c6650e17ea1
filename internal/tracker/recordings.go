package tracker

import (
	"context"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

// Pagination bounds for ListRecordings.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ListRecordings returns a page of the dialect's ledger, newest first.
// page defaults to 1 and limit to DefaultPageLimit, capped at MaxPageLimit.
func (t *Tracker) ListRecordings(ctx context.Context, code string, page, limit int) (*RecordingPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)

	r := reposFor(t.db.WithContext(ctx))
	dialect, err := r.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	rows, total, err := r.recordings.ListByDialect(ctx, dialect.ID, page, limit)
	if err != nil {
		return nil, databaseError("list recordings", err)
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	return &RecordingPage{
		Dialect:    dialect.Code,
		Recordings: toLedgerEntries(dialect.Code, rows),
		Page:       page,
		Limit:      limit,
		Total:      total,
		Pages:      pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}, nil
}

// RecentRecordings returns the n newest ledger entries of a dialect.
func (t *Tracker) RecentRecordings(ctx context.Context, code string, n int) ([]LedgerEntry, error) {
	r := reposFor(t.db.WithContext(ctx))
	dialect, err := r.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	rows, err := r.recordings.Recent(ctx, dialect.ID, n)
	if err != nil {
		return nil, databaseError("list recent recordings", err)
	}
	return toLedgerEntries(dialect.Code, rows), nil
}

// LedgerEntries returns every ledger entry of a dialect in sequence order.
func (t *Tracker) LedgerEntries(ctx context.Context, code string) ([]LedgerEntry, error) {
	r := reposFor(t.db.WithContext(ctx))
	dialect, err := r.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	rows, err := r.recordings.AllByDialect(ctx, dialect.ID)
	if err != nil {
		return nil, databaseError("list recordings", err)
	}
	return toLedgerEntries(dialect.Code, rows), nil
}

// Stats reports ledger totals per dialect.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	r := reposFor(t.db.WithContext(ctx))

	dialects, err := r.dialects.List(ctx)
	if err != nil {
		return nil, databaseError("list dialects", err)
	}
	ledger, err := r.recordings.Stats(ctx)
	if err != nil {
		return nil, databaseError("recording stats", err)
	}
	sentences, err := r.sentences.Count(ctx)
	if err != nil {
		return nil, databaseError("count sentences", err)
	}

	byID := make(map[uint]*entities.Dialect, len(dialects))
	var maxPossible int64
	for i := range dialects {
		byID[dialects[i].ID] = &dialects[i]
		maxPossible += int64(dialects[i].TotalSentences)
	}

	stats := &Stats{
		TotalRecordings: ledger.Total,
		TotalSentences:  sentences,
		TotalDialects:   len(dialects),
		MaxPossible:     maxPossible,
		CompletionRate:  Percentage(ledger.Total, maxPossible),
		PerDialect:      make([]DialectStats, 0, len(ledger.PerDialect)),
	}
	for _, row := range ledger.PerDialect {
		d, ok := byID[row.DialectID]
		if !ok {
			continue
		}
		stats.PerDialect = append(stats.PerDialect, DialectStats{
			Code:   d.Code,
			Name:   d.Name,
			Count:  row.Count,
			Latest: row.Latest,
		})
	}
	return stats, nil
}

func toLedgerEntries(code string, rows []entities.Recording) []LedgerEntry {
	entries := make([]LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = toLedgerEntry(code, &rows[i])
	}
	return entries
}
