// Package store persists finished analyses as run history. The engine
// itself performs no I/O; this layer only consumes its results.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/plantworks/oee-cli/internal/model"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AnalysisRecord is one stored run. The headline numbers are flattened
// into columns so history queries never have to parse the result JSON.
type AnalysisRecord struct {
	ID           string              `json:"id"`
	MachineID    string              `json:"machine_id"`
	Line         string              `json:"line,omitempty"`
	WindowStart  time.Time           `json:"window_start"`
	WindowEnd    time.Time           `json:"window_end"`
	OEE          float64             `json:"oee"`
	Availability float64             `json:"availability"`
	Performance  float64             `json:"performance"`
	Quality      float64             `json:"quality"`
	Confidence   model.Confidence    `json:"confidence"`
	Result       *model.EngineResult `json:"result,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewRecord builds a record from a result. ID and CreatedAt are left
// empty; the backend assigns them on save.
func NewRecord(result *model.EngineResult) *AnalysisRecord {
	return &AnalysisRecord{
		MachineID:    result.Machine.MachineID,
		Line:         result.Machine.Line,
		WindowStart:  result.Window.Start,
		WindowEnd:    result.Window.End,
		OEE:          result.Core.OEE.Value,
		Availability: result.Core.Availability.Value,
		Performance:  result.Core.Performance.Value,
		Quality:      result.Core.Quality.Value,
		Confidence:   result.Confidence(),
		Result:       result,
	}
}

// Filter specifies criteria for listing stored analyses. Since matches on
// the save time, not the analysis window.
type Filter struct {
	MachineID string    `json:"machine_id,omitempty"`
	Since     time.Time `json:"since,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// Store defines the persistence interface for run history.
type Store interface {
	SaveAnalysis(ctx context.Context, rec *AnalysisRecord) (string, error)
	SaveBatch(ctx context.Context, recs []*AnalysisRecord) (int64, error)
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)
	ListAnalyses(ctx context.Context, filter Filter) ([]AnalysisRecord, error)
	DeleteAnalysis(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs the backend named by driver. An empty driver selects
// SQLite so a bare config still persists locally.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLite(dsn)
	case DriverPostgres:
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
