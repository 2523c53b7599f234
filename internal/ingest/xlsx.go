package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/plantworks/oee-cli/internal/model"
)

// Workbook sheet names. General is required; the rest are optional.
const (
	sheetGeneral     = "General"
	sheetAllocations = "Allocations"
	sheetProduction  = "Production"
	sheetDowntime    = "Downtime"
	sheetScrap       = "Scrap"
)

// LoadXLSX reads an observation workbook. The General sheet carries
// key/value pairs with an optional source column; Allocations, Production,
// Downtime and Scrap carry one record per row under a header row. Cells
// follow the same duration and provenance conventions as the YAML form.
func LoadXLSX(path string) (*model.AnalysisInput, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open workbook")
	}

	doc := &observationDocument{}

	general, err := sheetRows(f, sheetGeneral, true)
	if err != nil {
		return nil, err
	}
	if err := applyGeneral(doc, general); err != nil {
		return nil, err
	}

	allocations, err := sheetRows(f, sheetAllocations, false)
	if err != nil {
		return nil, err
	}
	if err := applyAllocations(doc, allocations); err != nil {
		return nil, err
	}

	production, err := sheetRows(f, sheetProduction, false)
	if err != nil {
		return nil, err
	}
	if err := applyProduction(doc, production); err != nil {
		return nil, err
	}

	downtime, err := sheetRows(f, sheetDowntime, false)
	if err != nil {
		return nil, err
	}
	applyDowntime(doc, downtime)

	scrap, err := sheetRows(f, sheetScrap, false)
	if err != nil {
		return nil, err
	}
	if err := applyScrap(doc, scrap); err != nil {
		return nil, err
	}

	return doc.toInput()
}

// sheetRows returns a sheet's rows as string slices, header row dropped.
func sheetRows(f *xlsx.File, name string, required bool) ([][]string, error) {
	sheet, ok := f.Sheet[name]
	if !ok {
		if required {
			return nil, eris.Errorf("ingest: workbook is missing sheet %q", name)
		}
		return nil, nil
	}

	var rows [][]string
	for i, row := range sheet.Rows {
		if i == 0 {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = strings.TrimSpace(c.String())
		}
		if !emptyRow(cells) {
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

func applyGeneral(doc *observationDocument, rows [][]string) error {
	for _, row := range rows {
		key, value, source := cell(row, 0), cell(row, 1), cell(row, 2)
		switch key {
		case "machine_id":
			doc.Machine.MachineID = value
		case "line":
			doc.Machine.Line = value
		case "product":
			doc.Machine.Product = value
		case "shift":
			doc.Machine.Shift = value
		case "window_start":
			ts, err := parseTimestamp(value)
			if err != nil {
				return eris.Wrap(err, "ingest: window_start")
			}
			doc.Window.Start = ts
		case "window_end":
			ts, err := parseTimestamp(value)
			if err != nil {
				return eris.Wrap(err, "ingest: window_end")
			}
			doc.Window.End = ts
		case "planned_production_time":
			if err := doc.Time.PlannedProductionTime.fill(value, source); err != nil {
				return err
			}
		case "all_time":
			var d flexDuration
			if err := d.fill(value, source); err != nil {
				return err
			}
			doc.Time.AllTime = &d
		case "ideal_cycle_time":
			var d flexDuration
			if err := d.fill(value, source); err != nil {
				return err
			}
			doc.Cycle.IdealCycleTime = &d
		case "average_cycle_time":
			var d flexDuration
			if err := d.fill(value, source); err != nil {
				return err
			}
			doc.Cycle.AverageCycleTime = &d
		default:
			return eris.Errorf("ingest: unknown key %q in sheet %s", key, sheetGeneral)
		}
	}
	return nil
}

func applyAllocations(doc *observationDocument, rows [][]string) error {
	for i, row := range rows {
		var d flexDuration
		if err := d.fill(cell(row, 1), cell(row, 2)); err != nil {
			return eris.Wrapf(err, "ingest: allocation row %d", i+1)
		}
		doc.Time.Allocations = append(doc.Time.Allocations, allocationRow{
			State:    cell(row, 0),
			Duration: d,
		})
	}
	return nil
}

func applyProduction(doc *observationDocument, rows [][]string) error {
	for i, row := range rows {
		metric, raw, source := cell(row, 0), cell(row, 1), cell(row, 2)
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return eris.Wrapf(err, "ingest: production row %d: parse count %q", i+1, raw)
		}
		var c flexCount
		if err := c.fill(n, source); err != nil {
			return eris.Wrapf(err, "ingest: production row %d", i+1)
		}
		switch metric {
		case "total_units":
			doc.Production.TotalUnits = &c
		case "good_units":
			doc.Production.GoodUnits = &c
		case "scrap_units":
			doc.Production.ScrapUnits = &c
		case "reworked_units":
			doc.Production.ReworkedUnits = &c
		default:
			return eris.Errorf("ingest: unknown metric %q in sheet %s", metric, sheetProduction)
		}
	}
	return nil
}

func applyDowntime(doc *observationDocument, rows [][]string) {
	for _, row := range rows {
		doc.Downtime = append(doc.Downtime, downtimeRow{
			Duration:  cell(row, 0),
			IsFailure: parseFlag(cell(row, 1)),
			Reason:    splitReason(cell(row, 2)),
		})
	}
}

func applyScrap(doc *observationDocument, rows [][]string) error {
	for i, row := range rows {
		ts, err := parseTimestamp(cell(row, 0))
		if err != nil {
			return eris.Wrapf(err, "ingest: scrap row %d", i+1)
		}
		units, err := strconv.ParseInt(cell(row, 1), 10, 64)
		if err != nil {
			return eris.Wrapf(err, "ingest: scrap row %d: parse units %q", i+1, cell(row, 1))
		}
		doc.ScrapEvents = append(doc.ScrapEvents, scrapEventRow{
			Timestamp: ts,
			Units:     units,
			Reason:    splitReason(cell(row, 2)),
		})
	}
	return nil
}

func parseTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "ingest: parse timestamp %q", raw)
	}
	return ts, nil
}

// parseFlag reads the loose boolean forms spreadsheets produce. Anything
// unrecognized reads as false.
func parseFlag(raw string) bool {
	b, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false
	}
	return b
}

// splitReason turns a "Mechanical / Bearing Failure" cell into the
// hierarchical reason path.
func splitReason(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return cells[i]
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
