package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO analyses`).
		WithArgs(pgxmock.AnyArg(), "press-7", "L1", pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := NewRecord(fixtureResult(t, "press-7"))
	id, err := s.SaveAnalysis(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBatch_UsesCopy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"analyses"}, analysisColumns).WillReturnResult(2)

	recs := []*AnalysisRecord{
		NewRecord(fixtureResult(t, "cnc-1")),
		NewRecord(fixtureResult(t, "cnc-2")),
	}
	n, err := s.SaveBatch(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM analyses WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAnalysis(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis_ScansRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(analysisColumns).
		AddRow("run-1", "press-7", "L1", now.Add(-8*time.Hour), now,
			0.625, 0.875, 0.794, 0.9, "high", []byte(`{}`), now)

	mock.ExpectQuery(`FROM analyses WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	rec, err := s.GetAnalysis(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, "press-7", rec.MachineID)
	assert.InDelta(t, 0.625, rec.OEE, 1e-12)
	assert.NotNil(t, rec.Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses_AppliesFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(analysisColumns).
		AddRow("run-1", "press-7", "", now.Add(-8*time.Hour), now,
			0.625, 0.875, 0.794, 0.9, "high", []byte(`{}`), now)

	mock.ExpectQuery(`AND machine_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("press-7", 5).
		WillReturnRows(rows)

	recs, err := s.ListAnalyses(context.Background(), Filter{MachineID: "press-7", Limit: 5})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "press-7", recs[0].MachineID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteAnalysis_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM analyses WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteAnalysis(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
