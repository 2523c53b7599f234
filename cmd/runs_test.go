package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	saved := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	recs := []store.AnalysisRecord{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			MachineID:   "press-7",
			WindowStart: time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
			WindowEnd:   time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
			OEE:         0.6234,
			Confidence:  model.ConfidenceHigh,
			CreatedAt:   saved,
		},
		{
			ID:          "def12345-6789-0000-0000-000000000000",
			MachineID:   "lathe-2",
			WindowStart: time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
			WindowEnd:   time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
			OEE:         0.8100,
			Confidence:  model.ConfidenceMedium,
			CreatedAt:   saved.Add(time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, recs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "MACHINE")
	assert.Contains(t, output, "OEE")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "press-7")
	assert.Contains(t, output, "0.6234")
	assert.Contains(t, output, "8h0m0s")
	assert.Contains(t, output, "lathe-2")
	assert.Contains(t, output, "medium")
	assert.Contains(t, output, "2026-03-02 06:00")
	assert.Contains(t, output, "2026-03-02 16:00")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
