package tracker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

// Sentence is a catalog entry served to a contributor.
type Sentence struct {
	ID   int    `json:"sentenceId"`
	Text string `json:"text"`
}

// StorageRef points at a confirmed upload in the remote store.
type StorageRef struct {
	Backend  string
	ID       string
	Link     string
	Filename string
	Size     int64
	Checksum string
}

// IsZero reports whether the ref carries no stored object.
func (r StorageRef) IsZero() bool {
	return r.ID == ""
}

// LedgerEntry is the domain view of one recording.
type LedgerEntry struct {
	ID            uint       `json:"id"`
	DialectCode   string     `json:"dialect"`
	SentenceID    int        `json:"sentenceId"`
	SentenceText  string     `json:"sentenceText"`
	SequenceIndex int        `json:"index"`
	Filename      string     `json:"filename"`
	Gender        string     `json:"gender,omitempty"`
	Storage       StorageRef `json:"-"`
	Link          string     `json:"link,omitempty"`
	RecordedAt    time.Time  `json:"recordedAt"`
}

// Progress is the full per-dialect progress record.
type Progress struct {
	Code           string
	Name           string
	Label          string
	Status         entities.DialectStatus
	RecordedIDs    []int
	UnrecordedIDs  []int
	RecordingRefs  []uint
	LastRecordedAt *time.Time
	Total          int

	// Committed is set only on the value returned by CommitRecording.
	Committed *LedgerEntry
}

// Recorded returns the number of recorded sentences.
func (p *Progress) Recorded() int {
	return len(p.RecordedIDs)
}

// Remaining returns the number of unrecorded sentences.
func (p *Progress) Remaining() int {
	return len(p.UnrecordedIDs)
}

// Completed reports whether every sentence is recorded.
func (p *Progress) Completed() bool {
	return p.Status == entities.DialectStatusCompleted
}

// Percentage returns recorded/total as a two-decimal string.
func (p *Progress) Percentage() string {
	return Percentage(p.Recorded(), p.Total)
}

// DialectSummary is one row of ListDialects.
type DialectSummary struct {
	Code       string                 `json:"code"`
	Name       string                 `json:"name"`
	Label      string                 `json:"label"`
	Status     entities.DialectStatus `json:"status"`
	Recorded   int                    `json:"recorded"`
	Total      int                    `json:"total"`
	Percentage string                 `json:"percentage"`
}

// ProgressReport is the compact progress view of one dialect.
type ProgressReport struct {
	Code           string                 `json:"dialect"`
	Recorded       int                    `json:"recorded"`
	Total          int                    `json:"total"`
	Remaining      int                    `json:"remaining"`
	Percentage     string                 `json:"percentage"`
	Status         entities.DialectStatus `json:"status"`
	LastRecordedAt *time.Time             `json:"lastRecordedAt"`
}

// Summary aggregates progress over all dialects.
type Summary struct {
	TotalDialects         int    `json:"totalDialects"`
	CompletedDialects     int    `json:"completedDialects"`
	InProgressDialects    int    `json:"inProgressDialects"`
	TotalRecordings       int64  `json:"totalRecordings"`
	MaxPossibleRecordings int64  `json:"maxPossibleRecordings"`
	OverallProgress       string `json:"overallProgress"`
}

// DialectStats is one row of Stats.
type DialectStats struct {
	Code   string     `json:"dialect"`
	Name   string     `json:"name"`
	Count  int64      `json:"count"`
	Latest *time.Time `json:"latestRecording"`
}

// Stats reports ledger totals.
type Stats struct {
	TotalRecordings int64          `json:"totalRecordings"`
	TotalSentences  int64          `json:"totalSentences"`
	TotalDialects   int            `json:"totalDialects"`
	MaxPossible     int64          `json:"maxPossibleRecordings"`
	CompletionRate  string         `json:"completionRate"`
	PerDialect      []DialectStats `json:"byDialect"`
}

// RecordingPage is one page of a dialect's ledger, newest first.
type RecordingPage struct {
	Dialect    string        `json:"dialect"`
	Recordings []LedgerEntry `json:"recordings"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	Pages      int           `json:"pages"`
	HasNext    bool          `json:"hasNext"`
	HasPrev    bool          `json:"hasPrev"`
}

// Percentage formats part/total*100 with two decimals; "0.00" when total is zero.
func Percentage[T ~int | ~int64](part, total T) string {
	if total == 0 {
		return "0.00"
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		StringFixed(2)
}

func toLedgerEntry(code string, r *entities.Recording) LedgerEntry {
	return LedgerEntry{
		ID:            r.ID,
		DialectCode:   code,
		SentenceID:    r.SentenceID,
		SentenceText:  r.SentenceText,
		SequenceIndex: r.SequenceIndex,
		Filename:      r.Filename,
		Gender:        r.Gender,
		Storage: StorageRef{
			Backend:  r.StorageBackend,
			ID:       r.StorageID,
			Link:     r.StorageLink,
			Filename: r.Filename,
			Size:     r.SizeBytes,
			Checksum: r.Checksum,
		},
		Link:       r.StorageLink,
		RecordedAt: r.RecordedAt,
	}
}
