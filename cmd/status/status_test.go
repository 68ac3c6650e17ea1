package status

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

func TestWriteStatus(t *testing.T) {
	t.Parallel()

	dialects := []tracker.DialectSummary{
		{Code: "dhaka", Name: "Dhaka", Status: entities.DialectStatusCompleted, Recorded: 3, Total: 3, Percentage: "100.00"},
		{Code: "sylhet", Name: "Sylhet", Status: entities.DialectStatusInProgress, Recorded: 1, Total: 3, Percentage: "33.33"},
	}
	summary := &tracker.Summary{
		TotalDialects:         2,
		CompletedDialects:     1,
		InProgressDialects:    1,
		TotalRecordings:       4,
		MaxPossibleRecordings: 6,
		OverallProgress:       "66.67",
	}

	var buf bytes.Buffer
	writeStatus(&buf, dialects, summary)
	out := buf.String()

	assert.Contains(t, out, "dhaka")
	assert.Contains(t, out, "in_progress")
	assert.Contains(t, out, "33.33%")
	assert.Contains(t, out, "4/6 recordings (66.67%), 1 of 2 dialects completed")
}

func TestWriteStatusEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writeStatus(&buf, nil, &tracker.Summary{})
	assert.Equal(t, "No dialects seeded yet\n", buf.String())
}
