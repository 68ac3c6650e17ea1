package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

// ReconciliationRepository persists reconciliation findings.
type ReconciliationRepository interface {
	// Save stores reports in one batch.
	Save(ctx context.Context, reports []entities.ReconciliationReport) error

	// Recent returns the newest reports, optionally for one dialect.
	Recent(ctx context.Context, dialectCode string, limit int) ([]entities.ReconciliationReport, error)
}

type reconciliationRepository struct {
	db *gorm.DB
}

// NewReconciliationRepository creates a new ReconciliationRepository.
func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) Save(ctx context.Context, reports []entities.ReconciliationReport) error {
	if len(reports) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(reports, insertBatchSize).Error
}

func (r *reconciliationRepository) Recent(ctx context.Context, dialectCode string, limit int) ([]entities.ReconciliationReport, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(max(limit, 1))
	if dialectCode != "" {
		q = q.Where("dialect_code = ?", dialectCode)
	}

	reports := []entities.ReconciliationReport{}
	err := q.Find(&reports).Error
	return reports, err
}
