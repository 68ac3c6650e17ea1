package entities

import "time"

// Recording is a ledger entry, created once per successful upload.
// UNIQUE(dialect_id, sentence_id) is what makes concurrent commits of the
// same sentence exclusive.
type Recording struct {
	ID             uint      `gorm:"primaryKey"`
	DialectID      uint      `gorm:"not null;uniqueIndex:idx_recording_dialect_sentence,priority:1;index:idx_recording_dialect_sequence,priority:1"`
	SentenceID     int       `gorm:"not null;uniqueIndex:idx_recording_dialect_sentence,priority:2"`
	SentenceText   string    `gorm:"type:text;not null"`
	SequenceIndex  int       `gorm:"not null;index:idx_recording_dialect_sequence,priority:2"`
	Filename       string    `gorm:"type:varchar(255);not null"`
	Gender         string    `gorm:"type:varchar(16)"`
	StorageBackend string    `gorm:"type:varchar(16);not null"`
	StorageID      string    `gorm:"type:varchar(512);not null"`
	StorageLink    string    `gorm:"type:varchar(1024)"`
	SizeBytes      int64     `gorm:"not null;default:0"`
	Checksum       string    `gorm:"type:varchar(64)"`
	RecordedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM.
func (Recording) TableName() string {
	return "recordings"
}
