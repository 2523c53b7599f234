package ingest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/plantworks/oee-cli/internal/model"
)

func createWorkbook(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "observation.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadXLSX_FullWorkbook(t *testing.T) {
	t.Parallel()

	path := createWorkbook(t, map[string][][]string{
		sheetGeneral: {
			{"key", "value", "source"},
			{"machine_id", "press-7", ""},
			{"line", "line-2", ""},
			{"window_start", "2026-03-02T06:00:00Z", ""},
			{"window_end", "2026-03-02T14:00:00Z", ""},
			{"planned_production_time", "8h", ""},
			{"all_time", "24h", "inferred"},
			{"ideal_cycle_time", "25s", ""},
			{"average_cycle_time", "27s", "inferred"},
		},
		sheetAllocations: {
			{"state", "duration", "source"},
			{"running", "7h", ""},
			{"stopped", "45m", "inferred"},
			{"setup", "15m"},
		},
		sheetProduction: {
			{"metric", "count", "source"},
			{"total_units", "800", ""},
			{"good_units", "720", "inferred"},
			{"scrap_units", "80", ""},
		},
		sheetDowntime: {
			{"duration", "is_failure", "reason"},
			{"25m", "true", "Mechanical / Bearing Failure"},
			{"12m", "", ""},
		},
		sheetScrap: {
			{"timestamp", "units", "reason"},
			{"2026-03-02T06:05:00Z", "5", "warmup"},
		},
	})

	in, err := LoadXLSX(path)
	require.NoError(t, err)

	assert.Equal(t, "press-7", in.Machine.MachineID)
	assert.Equal(t, "line-2", in.Machine.Line)
	assert.Equal(t, time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC), in.Window.Start)
	assert.Equal(t, 8*time.Hour, in.Time.PlannedProductionTime.Get())
	assert.Equal(t, model.SourceExplicit, in.Time.PlannedProductionTime.Source())
	require.NotNil(t, in.Time.AllTime)
	assert.Equal(t, model.SourceInferred, in.Time.AllTime.Source())

	require.Len(t, in.Time.Allocations, 3)
	assert.Equal(t, model.StateRunning, in.Time.Allocations[0].State)
	assert.Equal(t, model.SourceInferred, in.Time.Allocations[1].Duration.Source())
	assert.Equal(t, 15*time.Minute, in.Time.Allocations[2].Duration.Get())

	assert.Equal(t, int64(800), in.Production.TotalUnits.Get())
	assert.Equal(t, model.SourceInferred, in.Production.GoodUnits.Source())
	assert.Equal(t, model.SourceDefault, in.Production.ReworkedUnits.Source())

	assert.Equal(t, 25*time.Second, in.Cycle.IdealCycleTime.Get())
	require.NotNil(t, in.Cycle.AverageCycleTime)
	assert.Equal(t, model.SourceInferred, in.Cycle.AverageCycleTime.Source())

	require.Len(t, in.Downtime, 2)
	assert.True(t, in.Downtime[0].IsFailure)
	assert.Equal(t, model.ReasonCode{"Mechanical", "Bearing Failure"}, in.Downtime[0].Reason)
	assert.False(t, in.Downtime[1].IsFailure)

	require.Len(t, in.ScrapEvents, 1)
	assert.Equal(t, int64(5), in.ScrapEvents[0].Units)
	assert.Equal(t, model.ReasonCode{"warmup"}, in.ScrapEvents[0].Reason)
}

func TestLoadXLSX_MissingGeneralSheet(t *testing.T) {
	t.Parallel()

	path := createWorkbook(t, map[string][][]string{
		sheetAllocations: {{"state", "duration"}, {"running", "7h"}},
	})
	_, err := LoadXLSX(path)
	assert.ErrorContains(t, err, `missing sheet "General"`)
}

func TestLoadXLSX_UnknownGeneralKey(t *testing.T) {
	t.Parallel()

	path := createWorkbook(t, map[string][][]string{
		sheetGeneral: {
			{"key", "value"},
			{"machine_id", "m"},
			{"operator", "bob"},
		},
	})
	_, err := LoadXLSX(path)
	assert.ErrorContains(t, err, `unknown key "operator"`)
}

func TestLoadXLSX_BadCells(t *testing.T) {
	t.Parallel()

	base := [][]string{
		{"key", "value"},
		{"machine_id", "m"},
		{"window_start", "2026-03-02T06:00:00Z"},
		{"window_end", "2026-03-02T14:00:00Z"},
	}

	badTimestamp := createWorkbook(t, map[string][][]string{
		sheetGeneral: {
			{"key", "value"},
			{"machine_id", "m"},
			{"window_start", "yesterday"},
		},
	})
	_, err := LoadXLSX(badTimestamp)
	assert.ErrorContains(t, err, "parse timestamp")

	badCount := createWorkbook(t, map[string][][]string{
		sheetGeneral:    base,
		sheetProduction: {{"metric", "count"}, {"total_units", "eight hundred"}},
	})
	_, err = LoadXLSX(badCount)
	assert.ErrorContains(t, err, "parse count")

	badMetric := createWorkbook(t, map[string][][]string{
		sheetGeneral:    base,
		sheetProduction: {{"metric", "count"}, {"net_units", "800"}},
	})
	_, err = LoadXLSX(badMetric)
	assert.ErrorContains(t, err, `unknown metric "net_units"`)
}

func TestLoadXLSX_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadXLSX(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.ErrorContains(t, err, "open workbook")
}
