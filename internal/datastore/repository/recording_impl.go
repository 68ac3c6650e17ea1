package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

type recordingRepository struct {
	db *gorm.DB
}

// NewRecordingRepository creates a new RecordingRepository.
func NewRecordingRepository(db *gorm.DB) RecordingRepository {
	return &recordingRepository{db: db}
}

func (r *recordingRepository) Create(ctx context.Context, recording *entities.Recording) error {
	return translate(r.db.WithContext(ctx).Create(recording).Error)
}

func (r *recordingRepository) Get(ctx context.Context, id uint) (*entities.Recording, error) {
	var recording entities.Recording
	err := r.db.WithContext(ctx).First(&recording, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recording, nil
}

func (r *recordingRepository) Exists(ctx context.Context, dialectID uint, sentenceID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("dialect_id = ? AND sentence_id = ?", dialectID, sentenceID).
		Count(&count).Error
	return count > 0, err
}

func (r *recordingRepository) ListByDialect(ctx context.Context, dialectID uint, page, limit int) ([]entities.Recording, int64, error) {
	page = max(page, 1)
	limit = max(limit, 1)

	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("dialect_id = ?", dialectID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	recordings := []entities.Recording{}
	err := r.db.WithContext(ctx).
		Where("dialect_id = ?", dialectID).
		Order("recorded_at DESC").Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&recordings).Error
	return recordings, total, err
}

func (r *recordingRepository) Recent(ctx context.Context, dialectID uint, n int) ([]entities.Recording, error) {
	recordings := []entities.Recording{}
	err := r.db.WithContext(ctx).
		Where("dialect_id = ?", dialectID).
		Order("recorded_at DESC").Order("id DESC").
		Limit(n).
		Find(&recordings).Error
	return recordings, err
}

func (r *recordingRepository) AllByDialect(ctx context.Context, dialectID uint) ([]entities.Recording, error) {
	var recordings []entities.Recording
	err := r.db.WithContext(ctx).
		Where("dialect_id = ?", dialectID).
		Order("sequence_index ASC").
		Find(&recordings).Error
	return recordings, err
}

func (r *recordingRepository) IDsExist(ctx context.Context, ids []uint) (map[uint]bool, error) {
	found := make(map[uint]bool, len(ids))
	for chunk := range slices.Chunk(ids, insertBatchSize) {
		var existing []uint
		if err := r.db.WithContext(ctx).Model(&entities.Recording{}).
			Where("id IN ?", chunk).
			Pluck("id", &existing).Error; err != nil {
			return nil, err
		}
		for _, id := range existing {
			found[id] = true
		}
	}
	return found, nil
}

func (r *recordingRepository) LatestRecordedAt(ctx context.Context, dialectID uint) (*time.Time, error) {
	var latest []entities.Recording
	err := r.db.WithContext(ctx).
		Select("recorded_at").
		Where("dialect_id = ?", dialectID).
		Order("recorded_at DESC").
		Limit(1).
		Find(&latest).Error
	if err != nil || len(latest) == 0 {
		return nil, err
	}
	return &latest[0].RecordedAt, nil
}

func (r *recordingRepository) UpdateStorage(ctx context.Context, id uint, filename, storageID, link string) error {
	result := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"filename":     filename,
			"storage_id":   storageID,
			"storage_link": link,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordingNotFound
	}
	return nil
}

func (r *recordingRepository) Stats(ctx context.Context) (*RecordingStats, error) {
	var rows []struct {
		DialectID uint
		Count     int64
	}
	if err := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Select("dialect_id, COUNT(*) AS count").
		Group("dialect_id").
		Order("dialect_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &RecordingStats{PerDialect: make([]DialectRecordingCount, 0, len(rows))}
	for _, row := range rows {
		// MAX() comes back as a string from SQLite, so the latest row is read as an entity
		latest, err := r.LatestRecordedAt(ctx, row.DialectID)
		if err != nil {
			return nil, err
		}
		stats.Total += row.Count
		stats.PerDialect = append(stats.PerDialect, DialectRecordingCount{
			DialectID: row.DialectID,
			Count:     row.Count,
			Latest:    latest,
		})
	}
	return stats, nil
}

func (r *recordingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Recording{}).Count(&count).Error
	return count, err
}

func (r *recordingRepository) DeleteByDialect(ctx context.Context, dialectID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("dialect_id = ?", dialectID).Delete(&entities.Recording{})
	return result.RowsAffected, result.Error
}

func (r *recordingRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&entities.Recording{})
	return result.RowsAffected, result.Error
}
