package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

func TestSentenceRepository_ReplaceAllAndList(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewSentenceRepository(db)
	ctx := context.Background()

	seedSentences(t, db, 7, 3, 1)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7}, ids)

	// Replacing drops the previous catalog
	require.NoError(t, repo.ReplaceAll(ctx, []entities.Sentence{{ID: 10, Text: "ten"}}))
	ids, err = repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, ids)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSentenceRepository_Get(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewSentenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []entities.Sentence{
		{ID: 1, Text: "আমি ভাত খাই"},
		{ID: 2, Text: "তুমি কোথায়"},
	}))

	sentence, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "আমি ভাত খাই", sentence.Text)

	_, err = repo.Get(ctx, 99)
	require.ErrorIs(t, err, ErrSentenceNotFound)

	many, err := repo.GetMany(ctx, []int{1, 2, 99})
	require.NoError(t, err)
	assert.Len(t, many, 2)
	assert.Equal(t, "তুমি কোথায়", many[2].Text)
}

func TestSentenceRepository_ReplaceAllLargeCatalog(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewSentenceRepository(db)
	ctx := context.Background()

	sentences := make([]entities.Sentence, 450)
	for i := range sentences {
		sentences[i] = entities.Sentence{ID: i + 1, Text: "x"}
	}
	require.NoError(t, repo.ReplaceAll(ctx, sentences))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(450), count)

	require.NoError(t, repo.DeleteAll(ctx))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
