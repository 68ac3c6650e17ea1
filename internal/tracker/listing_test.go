package tracker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDialectsAndSummary(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t, 1, 2, 3, 4)
	ctx := context.Background()

	for _, code := range []string{"sylhet", "dhaka"} {
		_, err := tr.InitDialect(ctx, code, "", "")
		require.NoError(t, err)
	}
	for _, id := range []int{1, 2, 3, 4} {
		_, err := tr.CommitRecording(ctx, "dhaka", id, ref(fmt.Sprintf("%d.wav", id)))
		require.NoError(t, err)
	}
	_, err := tr.CommitRecording(ctx, "sylhet", 1, ref("s1.wav"))
	require.NoError(t, err)

	dialects, err := tr.ListDialects(ctx)
	require.NoError(t, err)
	require.Len(t, dialects, 2)
	assert.Equal(t, "dhaka", dialects[0].Code)
	assert.Equal(t, "100.00", dialects[0].Percentage)
	assert.Equal(t, "25.00", dialects[1].Percentage)

	summary, err := tr.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalDialects)
	assert.Equal(t, 1, summary.CompletedDialects)
	assert.Equal(t, 1, summary.InProgressDialects)
	assert.Equal(t, int64(5), summary.TotalRecordings)
	assert.Equal(t, int64(8), summary.MaxPossibleRecordings)
	assert.Equal(t, "62.50", summary.OverallProgress)

	stats, err := tr.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalRecordings)
	assert.Equal(t, int64(4), stats.TotalSentences)
	assert.Equal(t, "62.50", stats.CompletionRate)
	require.Len(t, stats.PerDialect, 2)
}

func TestListRecordingsPagination(t *testing.T) {
	t.Parallel()
	ids := make([]int, 25)
	for i := range ids {
		ids[i] = i + 1
	}
	tr, _ := newTestTracker(t, ids...)
	ctx := context.Background()
	_, err := tr.InitDialect(ctx, "dhaka", "", "")
	require.NoError(t, err)
	for _, id := range ids {
		_, err := tr.CommitRecording(ctx, "dhaka", id, ref(fmt.Sprintf("%d.wav", id)))
		require.NoError(t, err)
	}

	page, err := tr.ListRecordings(ctx, "dhaka", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageLimit, page.Limit)
	assert.Len(t, page.Recordings, DefaultPageLimit)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)

	second, err := tr.ListRecordings(ctx, "dhaka", 2, 20)
	require.NoError(t, err)
	assert.Len(t, second.Recordings, 5)
	assert.False(t, second.HasNext)
	assert.True(t, second.HasPrev)

	capped, err := tr.ListRecordings(ctx, "dhaka", 1, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, capped.Limit)

	recent, err := tr.RecentRecordings(ctx, "dhaka", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 10)

	_, err = tr.ListRecordings(ctx, "nowhere", 1, 20)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAllRecordings(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t, 1, 2)
	ctx := context.Background()
	_, err := tr.InitDialect(ctx, "dhaka", "", "")
	require.NoError(t, err)
	_, err = tr.CommitRecording(ctx, "dhaka", 1, ref("1.wav"))
	require.NoError(t, err)

	deleted, err := tr.DeleteAllRecordings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	p, err := tr.GetDialect(ctx, "dhaka")
	require.NoError(t, err)
	assert.Empty(t, p.RecordedIDs)

	require.NoError(t, tr.DeleteAll(ctx))
	dialects, err := tr.ListDialects(ctx)
	require.NoError(t, err)
	assert.Empty(t, dialects)
}

func TestPercentage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		part, total int
		want        string
	}{
		{0, 0, "0.00"},
		{0, 400, "0.00"},
		{150, 400, "37.50"},
		{1, 3, "33.33"},
		{2, 3, "66.67"},
		{400, 400, "100.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.part, tt.total), "%d/%d", tt.part, tt.total)
	}
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Dhaka":          "dhaka",
		"  Sylhet\n":     "sylhet",
		"Cox's Bazar":    "coxsbazar",
		"old-dhaka_2":    "old-dhaka_2",
		"ঢাকা":           "",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCode(in), "input %q", in)
	}
}
