package tracker

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// reconcileConcurrency bounds ReconcileAll. Each dialect runs in its own
// write transaction, so on SQLite the effective parallelism is one.
const reconcileConcurrency = 4

// Finding is one inconsistency detected by Reconcile.
type Finding struct {
	Check      string `json:"check"`
	SentenceID int    `json:"sentenceId,omitempty"`
	Details    string `json:"details"`
	Repaired   bool   `json:"repaired"`
}

// ReconcileReport lists what Reconcile found and fixed in one dialect.
type ReconcileReport struct {
	Dialect       string    `json:"dialect"`
	CorrelationID string    `json:"correlationId"`
	Findings      []Finding `json:"findings"`
	Repaired      int       `json:"repaired"`
}

// Clean reports whether nothing was found.
func (r *ReconcileReport) Clean() bool {
	return len(r.Findings) == 0
}

// Reconcile compares the dialect's ledger with its progress rows and
// repairs every difference in favour of the ledger. Running it again on a
// repaired database yields no findings.
func (t *Tracker) Reconcile(ctx context.Context, code string) (*ReconcileReport, error) {
	report := &ReconcileReport{CorrelationID: uuid.NewString(), Findings: []Finding{}}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)

		dialect, err := r.lookup(ctx, code)
		if err != nil {
			return err
		}
		report.Dialect = dialect.Code

		if err := reconcileDialect(ctx, r, dialect, report); err != nil {
			return err
		}
		return saveReports(ctx, r, report)
	})
	if err != nil {
		return nil, passOrWrap("reconcile", err)
	}

	if report.Clean() {
		t.log.Debug("dialect consistent", logger.String("dialect", report.Dialect))
	} else {
		t.log.Warn("dialect reconciled",
			logger.String("dialect", report.Dialect),
			logger.Int("findings", len(report.Findings)),
			logger.Int("repaired", report.Repaired),
			logger.String("correlation_id", report.CorrelationID))
	}
	return report, nil
}

// ReconcileAll runs Reconcile for every dialect. Reports are sorted by dialect code.
func (t *Tracker) ReconcileAll(ctx context.Context) ([]*ReconcileReport, error) {
	dialects, err := t.ListDialects(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		reports = make([]*ReconcileReport, 0, len(dialects))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, d := range dialects {
		g.Go(func() error {
			report, err := t.Reconcile(gctx, d.Code)
			if err != nil {
				return err
			}
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(reports, func(a, b *ReconcileReport) int {
		return cmp.Compare(a.Dialect, b.Dialect)
	})
	return reports, nil
}

func reconcileDialect(ctx context.Context, r repos, dialect *entities.Dialect, report *ReconcileReport) error {
	record := func(check string, sentenceID int, details string, repaired bool) {
		report.Findings = append(report.Findings, Finding{
			Check:      check,
			SentenceID: sentenceID,
			Details:    details,
			Repaired:   repaired,
		})
		if repaired {
			report.Repaired++
		}
	}
	add := func(check string, sentenceID int, details string) {
		record(check, sentenceID, details, true)
	}

	recordings, err := r.recordings.AllByDialect(ctx, dialect.ID)
	if err != nil {
		return databaseError("list ledger", err)
	}
	rows, err := r.dialects.Rows(ctx, dialect.ID)
	if err != nil {
		return databaseError("list sentence set", err)
	}

	ledgerIDs := make(map[uint]bool, len(recordings))
	for i := range recordings {
		ledgerIDs[recordings[i].ID] = true
	}
	rowBySentence := make(map[int]*entities.DialectSentence, len(rows))
	for i := range rows {
		rowBySentence[rows[i].SentenceID] = &rows[i]
	}

	// 1. links to ledger entries that no longer exist
	for i := range rows {
		row := &rows[i]
		if row.RecordingID == nil || ledgerIDs[*row.RecordingID] {
			continue
		}
		if err := r.dialects.UnlinkRecording(ctx, dialect.ID, row.SentenceID); err != nil {
			return databaseError("unlink dangling row", err)
		}
		add(entities.CheckDanglingLink, row.SentenceID, fmt.Sprintf("linked to missing recording %d", *row.RecordingID))
		row.RecordingID = nil
	}

	// 2. catalog sentences missing from the set
	catalog, err := r.sentences.ListIDs(ctx)
	if err != nil {
		return databaseError("list catalog", err)
	}
	var missing []int
	for _, id := range catalog {
		if _, ok := rowBySentence[id]; !ok {
			missing = append(missing, id)
		}
	}
	for _, rec := range recordings {
		if _, ok := rowBySentence[rec.SentenceID]; !ok && !slices.Contains(missing, rec.SentenceID) {
			missing = append(missing, rec.SentenceID)
		}
	}
	if len(missing) > 0 {
		if err := r.dialects.AddSentences(ctx, dialect.ID, missing); err != nil {
			return databaseError("add missing sentences", err)
		}
		for _, id := range missing {
			add(entities.CheckMissingSentence, id, "sentence missing from the dialect's set")
			rowBySentence[id] = &entities.DialectSentence{DialectID: dialect.ID, SentenceID: id}
		}
	}

	// 3. ledger entries whose row is not linked
	for i := range recordings {
		rec := &recordings[i]
		row := rowBySentence[rec.SentenceID]
		if row.RecordingID != nil && *row.RecordingID == rec.ID {
			continue
		}
		details := fmt.Sprintf("recording %d was not linked", rec.ID)
		if row.RecordingID != nil {
			// linked to another ledger entry, which cannot own this sentence
			details = fmt.Sprintf("recording %d was displaced by recording %d", rec.ID, *row.RecordingID)
			if err := r.dialects.UnlinkRecording(ctx, dialect.ID, rec.SentenceID); err != nil {
				return databaseError("unlink displaced row", err)
			}
		}
		linked, err := r.dialects.LinkRecording(ctx, dialect.ID, rec.SentenceID, rec.ID, rec.RecordedAt)
		if err != nil {
			return databaseError("link ledger entry", err)
		}
		if linked {
			id := rec.ID
			row.RecordingID = &id
		}
		record(entities.CheckUnlinkedLedgerRow, rec.SentenceID, details, linked)
	}

	// 4. counters, status and last activity
	counts, err := r.dialects.Counts(ctx, dialect.ID)
	if err != nil {
		return databaseError("count sentences", err)
	}
	recorded, total := int(counts.Recorded), int(counts.Total)

	status := entities.DialectStatusInProgress
	if total > 0 && counts.Unrecorded() == 0 {
		status = entities.DialectStatusCompleted
	}

	last := dialect.LastRecordedAt
	latest, err := r.recordings.LatestRecordedAt(ctx, dialect.ID)
	if err != nil {
		return databaseError("latest recording", err)
	}

	changed := false
	if dialect.RecordedCount != recorded {
		add(entities.CheckRecordedCount, 0, fmt.Sprintf("recorded_count %d, linked rows %d", dialect.RecordedCount, recorded))
		changed = true
	}
	if dialect.TotalSentences != total {
		add(entities.CheckTotalSentences, 0, fmt.Sprintf("total_sentences %d, rows %d", dialect.TotalSentences, total))
		changed = true
	}
	if dialect.Status != status {
		add(entities.CheckStatus, 0, fmt.Sprintf("status %s, expected %s", dialect.Status, status))
		changed = true
	}
	if latest != nil && (last == nil || last.Before(*latest)) {
		add(entities.CheckLastRecordedAt, 0, fmt.Sprintf("last_recorded_at behind newest recording %s", latest.Format("2006-01-02T15:04:05Z07:00")))
		last = latest
		changed = true
	}
	if !changed {
		return nil
	}
	if err := r.dialects.SetState(ctx, dialect.ID, recorded, total, status, last); err != nil {
		return databaseError("repair counters", err)
	}
	return nil
}

func saveReports(ctx context.Context, r repos, report *ReconcileReport) error {
	if report.Clean() {
		return nil
	}
	rows := make([]entities.ReconciliationReport, len(report.Findings))
	for i, f := range report.Findings {
		details := f.Details
		if f.SentenceID != 0 {
			details = fmt.Sprintf("sentence %d: %s", f.SentenceID, f.Details)
		}
		rows[i] = entities.ReconciliationReport{
			DialectCode:   report.Dialect,
			CheckType:     f.Check,
			Details:       details,
			Repaired:      f.Repaired,
			CorrelationID: report.CorrelationID,
		}
	}
	if err := r.reconciliation.Save(ctx, rows); err != nil {
		return databaseError("save reconciliation reports", err)
	}
	return nil
}
