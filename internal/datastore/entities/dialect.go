package entities

import "time"

// DialectStatus is the derived completion state of a dialect.
type DialectStatus string

const (
	DialectStatusInProgress DialectStatus = "in_progress"
	DialectStatusCompleted  DialectStatus = "completed"
)

// Dialect holds the per-dialect counters. RecordedCount doubles as the
// sequence counter for new recordings and is only changed with SQL
// expressions inside a transaction.
type Dialect struct {
	ID             uint          `gorm:"primaryKey"`
	Code           string        `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name           string        `gorm:"type:varchar(128);not null"`
	Label          string        `gorm:"type:varchar(255)"`
	Status         DialectStatus `gorm:"type:varchar(20);not null;default:in_progress;index"`
	RecordedCount  int           `gorm:"not null;default:0"`
	TotalSentences int           `gorm:"not null;default:0"`
	LastRecordedAt *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (Dialect) TableName() string {
	return "dialects"
}

// DialectSentence is one member of a dialect's sentence set.
// A row is recorded exactly when RecordingID is set, so the recorded and
// unrecorded sets partition the dialect's sentences by construction.
type DialectSentence struct {
	DialectID   uint  `gorm:"primaryKey;autoIncrement:false"`
	SentenceID  int   `gorm:"primaryKey;autoIncrement:false;index"`
	RecordingID *uint `gorm:"index"`
	RecordedAt  *time.Time
}

// TableName returns the table name for GORM.
func (DialectSentence) TableName() string {
	return "dialect_sentences"
}
