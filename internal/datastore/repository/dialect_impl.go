package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

type dialectRepository struct {
	db *gorm.DB
}

// NewDialectRepository creates a new DialectRepository.
func NewDialectRepository(db *gorm.DB) DialectRepository {
	return &dialectRepository{db: db}
}

func (r *dialectRepository) GetByCode(ctx context.Context, code string) (*entities.Dialect, error) {
	var dialect entities.Dialect
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&dialect).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDialectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dialect, nil
}

func (r *dialectRepository) List(ctx context.Context) ([]entities.Dialect, error) {
	var dialects []entities.Dialect
	err := r.db.WithContext(ctx).Order("code ASC").Find(&dialects).Error
	return dialects, err
}

func (r *dialectRepository) Create(ctx context.Context, dialect *entities.Dialect, sentenceIDs []int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dialect).Error; err != nil {
			return translate(err)
		}
		return insertRows(ctx, tx, dialect.ID, sentenceIDs, false)
	})
}

func (r *dialectRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dialect_id = ?", id).Delete(&entities.DialectSentence{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Dialect{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDialectNotFound
		}
		return nil
	})
}

func (r *dialectRepository) IncrementRecorded(ctx context.Context, id uint, at time.Time) (int, error) {
	db := r.db.WithContext(ctx)

	result := db.Model(&entities.Dialect{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"recorded_count":   gorm.Expr("recorded_count + 1"),
			"last_recorded_at": at,
			"updated_at":       at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrDialectNotFound
	}

	var count int
	if err := db.Model(&entities.Dialect{}).Where("id = ?", id).Pluck("recorded_count", &count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *dialectRepository) SetState(ctx context.Context, id uint, recorded, total int, status entities.DialectStatus, lastRecordedAt *time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Dialect{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"recorded_count":   recorded,
			"total_sentences":  total,
			"status":           status,
			"last_recorded_at": lastRecordedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDialectNotFound
	}
	return nil
}

func (r *dialectRepository) SetStatus(ctx context.Context, id uint, status entities.DialectStatus) error {
	return r.db.WithContext(ctx).Model(&entities.Dialect{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *dialectRepository) HasSentence(ctx context.Context, dialectID uint, sentenceID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.DialectSentence{}).
		Where("dialect_id = ? AND sentence_id = ?", dialectID, sentenceID).
		Count(&count).Error
	return count > 0, err
}

func (r *dialectRepository) IsRecorded(ctx context.Context, dialectID uint, sentenceID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.DialectSentence{}).
		Where("dialect_id = ? AND sentence_id = ? AND recording_id IS NOT NULL", dialectID, sentenceID).
		Count(&count).Error
	return count > 0, err
}

func (r *dialectRepository) Rows(ctx context.Context, dialectID uint) ([]entities.DialectSentence, error) {
	var rows []entities.DialectSentence
	err := r.db.WithContext(ctx).
		Where("dialect_id = ?", dialectID).
		Order("sentence_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *dialectRepository) Counts(ctx context.Context, dialectID uint) (SentenceCounts, error) {
	var row struct {
		Total    int64
		Recorded int64
	}
	err := r.db.WithContext(ctx).Model(&entities.DialectSentence{}).
		Select("COUNT(*) AS total, COUNT(recording_id) AS recorded").
		Where("dialect_id = ?", dialectID).
		Scan(&row).Error
	return SentenceCounts{Total: row.Total, Recorded: row.Recorded}, err
}

func (r *dialectRepository) FirstUnrecorded(ctx context.Context, dialectID uint) (int, bool, error) {
	return r.UnrecordedAt(ctx, dialectID, 0)
}

func (r *dialectRepository) UnrecordedAt(ctx context.Context, dialectID uint, offset int) (int, bool, error) {
	var ids []int
	err := r.db.WithContext(ctx).Model(&entities.DialectSentence{}).
		Where("dialect_id = ? AND recording_id IS NULL", dialectID).
		Order("sentence_id ASC").
		Offset(offset).
		Limit(1).
		Pluck("sentence_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, false, err
	}
	return ids[0], true, nil
}

func (r *dialectRepository) LinkRecording(ctx context.Context, dialectID uint, sentenceID int, recordingID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.DialectSentence{}).
		Where("dialect_id = ? AND sentence_id = ? AND recording_id IS NULL", dialectID, sentenceID).
		Updates(map[string]any{
			"recording_id": recordingID,
			"recorded_at":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *dialectRepository) UnlinkRecording(ctx context.Context, dialectID uint, sentenceID int) error {
	return r.db.WithContext(ctx).Model(&entities.DialectSentence{}).
		Where("dialect_id = ? AND sentence_id = ?", dialectID, sentenceID).
		Updates(map[string]any{
			"recording_id": nil,
			"recorded_at":  nil,
		}).Error
}

func (r *dialectRepository) AddSentences(ctx context.Context, dialectID uint, sentenceIDs []int) error {
	return insertRows(ctx, r.db, dialectID, sentenceIDs, true)
}

func (r *dialectRepository) ReplaceSentences(ctx context.Context, dialectID uint, sentenceIDs []int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dialect_id = ?", dialectID).Delete(&entities.DialectSentence{}).Error; err != nil {
			return err
		}
		return insertRows(ctx, tx, dialectID, sentenceIDs, false)
	})
}

func insertRows(ctx context.Context, db *gorm.DB, dialectID uint, sentenceIDs []int, ignoreExisting bool) error {
	if len(sentenceIDs) == 0 {
		return nil
	}

	for chunk := range slices.Chunk(sentenceIDs, insertBatchSize) {
		rows := make([]entities.DialectSentence, len(chunk))
		for i, id := range chunk {
			rows[i] = entities.DialectSentence{DialectID: dialectID, SentenceID: id}
		}

		q := db.WithContext(ctx)
		if ignoreExisting {
			q = q.Clauses(clause.OnConflict{DoNothing: true})
		}
		if err := q.Create(&rows).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}
