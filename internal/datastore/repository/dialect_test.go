package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
)

func TestDialectRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewDialectRepository(db)
	ctx := context.Background()

	created := createDialect(t, db, "dhaka", 1, 2, 3)

	got, err := repo.GetByCode(ctx, "dhaka")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, entities.DialectStatusInProgress, got.Status)

	_, err = repo.GetByCode(ctx, "sylhet")
	require.ErrorIs(t, err, ErrDialectNotFound)

	err = repo.Create(ctx, &entities.Dialect{Code: "dhaka", Name: "again"}, nil)
	require.ErrorIs(t, err, ErrDuplicateKey)

	counts, err := repo.Counts(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Total)
	assert.Zero(t, counts.Recorded)
	assert.Equal(t, int64(3), counts.Unrecorded())
}

func TestDialectRepository_LinkIsConditional(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewDialectRepository(db)
	ctx := context.Background()
	dialect := createDialect(t, db, "dhaka", 1, 2, 3)
	now := time.Now().UTC()

	linked, err := repo.LinkRecording(ctx, dialect.ID, 2, 42, now)
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = repo.LinkRecording(ctx, dialect.ID, 2, 43, now)
	require.NoError(t, err)
	assert.False(t, linked, "second link of the same sentence must not apply")

	linked, err = repo.LinkRecording(ctx, dialect.ID, 99, 44, now)
	require.NoError(t, err)
	assert.False(t, linked, "sentence outside the set")

	recorded, unrecorded := splitRows(t, repo, dialect.ID)
	assert.Equal(t, []int{2}, recorded)
	assert.Equal(t, []int{1, 3}, unrecorded)

	isRecorded, err := repo.IsRecorded(ctx, dialect.ID, 2)
	require.NoError(t, err)
	assert.True(t, isRecorded)

	require.NoError(t, repo.UnlinkRecording(ctx, dialect.ID, 2))
	counts, err := repo.Counts(ctx, dialect.ID)
	require.NoError(t, err)
	assert.Zero(t, counts.Recorded)
}

func TestDialectRepository_IncrementRecorded(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewDialectRepository(db)
	ctx := context.Background()
	dialect := createDialect(t, db, "dhaka", 1, 2)
	now := time.Now().UTC()

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementRecorded(ctx, dialect.ID, now)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := repo.IncrementRecorded(ctx, 9999, now)
	require.ErrorIs(t, err, ErrDialectNotFound)

	reloaded, err := repo.GetByCode(ctx, "dhaka")
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastRecordedAt)
}

func TestDialectRepository_Unrecorded(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewDialectRepository(db)
	ctx := context.Background()
	dialect := createDialect(t, db, "dhaka", 7, 3, 1)

	first, ok, err := repo.FirstUnrecorded(ctx, dialect.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, first)

	third, ok, err := repo.UnrecordedAt(ctx, dialect.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, third)

	_, ok, err = repo.UnrecordedAt(ctx, dialect.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDialectRepository_SentenceSetMaintenance(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewDialectRepository(db)
	ctx := context.Background()
	dialect := createDialect(t, db, "dhaka", 1, 2)

	require.NoError(t, repo.AddSentences(ctx, dialect.ID, []int{2, 3}))
	_, ids := splitRows(t, repo, dialect.ID)
	assert.Equal(t, []int{1, 2, 3}, ids)

	_, err := repo.LinkRecording(ctx, dialect.ID, 1, 5, time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceSentences(ctx, dialect.ID, []int{4, 5}))
	rows, err := repo.Rows(ctx, dialect.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Nil(t, row.RecordingID)
	}

	require.NoError(t, repo.Delete(ctx, dialect.ID))
	require.ErrorIs(t, repo.Delete(ctx, dialect.ID), ErrDialectNotFound)
}
