// Package entities defines the gorm models of the progress database.
package entities

import "time"

// Sentence is one numbered prompt of the corpus. Rows are immutable once seeded.
type Sentence struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Sentence) TableName() string {
	return "sentences"
}
