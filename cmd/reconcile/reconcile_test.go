package reconcile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ridwan414/shobdotori/internal/tracker"
)

func TestPrintReports(t *testing.T) {
	t.Parallel()

	reports := []*tracker.ReconcileReport{
		{Dialect: "dhaka", CorrelationID: "c1"},
		{
			Dialect:       "sylhet",
			CorrelationID: "c2",
			Findings: []tracker.Finding{
				{Check: "recorded_count", Details: "stored 3, linked 2", Repaired: true},
			},
			Repaired: 1,
		},
	}

	var buf bytes.Buffer
	printReports(&buf, reports)
	out := buf.String()

	assert.NotContains(t, out, "dhaka")
	assert.Contains(t, out, "sylhet (c2):")
	assert.Contains(t, out, "stored 3, linked 2")
	assert.Contains(t, out, "2 dialects checked, 1 repairs")
}
