package ses

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResolutionAlert(t *testing.T) {
	alert := ResolutionAlert{
		DiagnosticID: "d-123",
		Scheme:       "general",
		Table:        "rating-large-standard",
		Key:          "CR3][AA",
		TableVersion: "2024-11",
		Request:      `{"amount":"3000"}`,
		OccurredAt:   time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC),
	}

	html, err := renderResolutionAlertHTML(alert)
	require.NoError(t, err)
	assert.Contains(t, html, "d-123")
	assert.Contains(t, html, "rating-large-standard")
	assert.Contains(t, html, "2024-11-05 10:00:00 UTC")

	text := renderResolutionAlertText(alert)
	assert.Contains(t, text, "Key:           CR3][AA")
	assert.Contains(t, text, `{"amount":"3000"}`)
}

func TestRenderIngestReport(t *testing.T) {
	text := renderIngestReportText(IngestReport{
		ObjectKey: "rate-tables/incoming/2024-11.csv",
		Version:   "2024-11",
		Entries:   12,
		Problems:  []string{"line 3: unknown kind", "general: gap"},
	})

	assert.Contains(t, text, "rejected")
	assert.Contains(t, text, "  - line 3: unknown kind\n  - general: gap")
}
