package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantworks/oee-cli/internal/model"
)

const sampleJSON = `{
  "machine": {"machine_id": "press-7", "line": "line-2"},
  "window": {"start": "2026-03-02T06:00:00Z", "end": "2026-03-02T14:00:00Z"},
  "time": {
    "planned_production_time": "8h",
    "allocations": [
      {"state": "running", "duration": "7h"},
      {"state": "stopped", "duration": {"value": "1h", "source": "inferred"}}
    ]
  },
  "production": {
    "total_units": 800,
    "good_units": {"value": 720, "source": "inferred"},
    "scrap_units": 80
  },
  "cycle": {"ideal_cycle_time": "25s"},
  "downtime": [
    {"duration": "25m", "is_failure": true, "reason": ["Mechanical", "Bearing Failure"]}
  ],
  "scrap_events": [
    {"timestamp": "2026-03-02T06:05:00Z", "units": 5}
  ]
}`

func TestParseJSON_ValidDocument(t *testing.T) {
	t.Parallel()

	in, err := ParseJSON([]byte(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, "press-7", in.Machine.MachineID)
	assert.Equal(t, 8*time.Hour, in.Time.PlannedProductionTime.Get())
	assert.Equal(t, model.SourceExplicit, in.Time.PlannedProductionTime.Source())
	require.Len(t, in.Time.Allocations, 2)
	assert.Equal(t, model.SourceInferred, in.Time.Allocations[1].Duration.Source())
	assert.Equal(t, int64(720), in.Production.GoodUnits.Get())
	assert.Equal(t, model.SourceInferred, in.Production.GoodUnits.Source())
	assert.Equal(t, 25*time.Second, in.Cycle.IdealCycleTime.Get())
	require.Len(t, in.Downtime, 1)
	assert.True(t, in.Downtime[0].IsFailure)
	require.Len(t, in.ScrapEvents, 1)
	assert.Equal(t, time.Date(2026, 3, 2, 6, 5, 0, 0, time.UTC), in.ScrapEvents[0].Timestamp)
}

func TestParseJSON_SchemaRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing window",
			doc:  `{"machine": {"machine_id": "m"}}`,
		},
		{
			name: "unknown top-level key",
			doc:  `{"machine": {"machine_id": "m"}, "window": {"start": "2026-03-02T06:00:00Z", "end": "2026-03-02T14:00:00Z"}, "operator": "bob"}`,
		},
		{
			name: "negative count",
			doc:  `{"machine": {"machine_id": "m"}, "window": {"start": "2026-03-02T06:00:00Z", "end": "2026-03-02T14:00:00Z"}, "production": {"total_units": -5}}`,
		},
		{
			name: "malformed duration",
			doc:  `{"machine": {"machine_id": "m"}, "window": {"start": "2026-03-02T06:00:00Z", "end": "2026-03-02T14:00:00Z"}, "time": {"planned_production_time": "eight hours"}}`,
		},
		{
			name: "bad provenance source",
			doc:  `{"machine": {"machine_id": "m"}, "window": {"start": "2026-03-02T06:00:00Z", "end": "2026-03-02T14:00:00Z"}, "time": {"planned_production_time": {"value": "8h", "source": "guessed"}}}`,
		},
		{
			name: "empty machine id",
			doc:  `{"machine": {"machine_id": ""}, "window": {"start": "2026-03-02T06:00:00Z", "end": "2026-03-02T14:00:00Z"}}`,
		},
		{
			name: "bad timestamp format",
			doc:  `{"machine": {"machine_id": "m"}, "window": {"start": "yesterday", "end": "2026-03-02T14:00:00Z"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseJSON([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorContains(t, err, "document shape")
		})
	}
}

func TestParseJSON_MalformedPayload(t *testing.T) {
	t.Parallel()

	_, err := ParseJSON([]byte(`{"machine": `))
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode json document")
}

func TestParseJSON_MinimalDocumentDefaults(t *testing.T) {
	t.Parallel()

	in, err := ParseJSON([]byte(`{"machine": {"machine_id": "m"}, "window": {"start": "2026-03-02T06:00:00Z", "end": "2026-03-02T14:00:00Z"}}`))
	require.NoError(t, err)
	assert.Equal(t, model.SourceDefault, in.Time.PlannedProductionTime.Source())
	assert.Equal(t, model.SourceDefault, in.Cycle.IdealCycleTime.Source())
	assert.Equal(t, model.SourceDefault, in.Production.TotalUnits.Source())
	assert.Nil(t, in.Thresholds)
}
