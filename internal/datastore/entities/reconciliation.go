package entities

import "time"

// Reconciliation check types.
const (
	CheckUnlinkedLedgerRow = "unlinked_ledger_row"
	CheckDanglingLink      = "dangling_link"
	CheckMissingSentence   = "missing_sentence"
	CheckRecordedCount     = "recorded_count"
	CheckTotalSentences    = "total_sentences"
	CheckStatus            = "status"
	CheckLastRecordedAt    = "last_recorded_at"
)

// ReconciliationReport records one inconsistency found between the ledger
// and the dialect progress rows, and whether it was repaired.
type ReconciliationReport struct {
	ID            uint      `gorm:"primaryKey"`
	DialectCode   string    `gorm:"type:varchar(64);not null;index"`
	CheckType     string    `gorm:"type:varchar(32);not null"`
	Details       string    `gorm:"type:text"`
	Repaired      bool      `gorm:"not null;default:false"`
	CorrelationID string    `gorm:"type:varchar(36);index"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index"`
}

// TableName returns the table name for GORM.
func (ReconciliationReport) TableName() string {
	return "reconciliation_reports"
}

// All returns every model for AutoMigrate.
func All() []any {
	return []any{
		&Sentence{},
		&Dialect{},
		&DialectSentence{},
		&Recording{},
		&ReconciliationReport{},
	}
}
