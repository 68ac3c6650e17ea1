package repository

import (
	"context"
	"errors"
	"slices"

	"gorm.io/gorm"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

// insertBatchSize keeps bulk inserts under SQLite's parameter limit
const insertBatchSize = 200

type sentenceRepository struct {
	db *gorm.DB
}

// NewSentenceRepository creates a new SentenceRepository.
func NewSentenceRepository(db *gorm.DB) SentenceRepository {
	return &sentenceRepository{db: db}
}

func (r *sentenceRepository) ListIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).Model(&entities.Sentence{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *sentenceRepository) Get(ctx context.Context, id int) (*entities.Sentence, error) {
	var sentence entities.Sentence
	err := r.db.WithContext(ctx).First(&sentence, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSentenceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sentence, nil
}

func (r *sentenceRepository) GetMany(ctx context.Context, ids []int) (map[int]*entities.Sentence, error) {
	result := make(map[int]*entities.Sentence, len(ids))
	for chunk := range slices.Chunk(ids, insertBatchSize) {
		var sentences []entities.Sentence
		if err := r.db.WithContext(ctx).Where("id IN ?", chunk).Find(&sentences).Error; err != nil {
			return nil, err
		}
		for i := range sentences {
			result[sentences[i].ID] = &sentences[i]
		}
	}
	return result, nil
}

func (r *sentenceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Sentence{}).Count(&count).Error
	return count, err
}

func (r *sentenceRepository) ReplaceAll(ctx context.Context, sentences []entities.Sentence) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entities.Sentence{}).Error; err != nil {
			return err
		}
		if len(sentences) == 0 {
			return nil
		}
		return translate(tx.CreateInBatches(sentences, insertBatchSize).Error)
	})
}

func (r *sentenceRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&entities.Sentence{}).Error
}
