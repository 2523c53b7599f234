package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/plantworks/oee-cli/internal/db"
	"github.com/plantworks/oee-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	machine_id   TEXT NOT NULL,
	line         TEXT NOT NULL DEFAULT '',
	window_start TIMESTAMPTZ NOT NULL,
	window_end   TIMESTAMPTZ NOT NULL,
	oee          DOUBLE PRECISION NOT NULL,
	availability DOUBLE PRECISION NOT NULL,
	performance  DOUBLE PRECISION NOT NULL,
	quality      DOUBLE PRECISION NOT NULL,
	confidence   TEXT NOT NULL,
	result       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_machine_id ON analyses(machine_id);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

// analysisColumns is the column order shared by single and batch inserts.
var analysisColumns = []string{
	"id", "machine_id", "line", "window_start", "window_end",
	"oee", "availability", "performance", "quality",
	"confidence", "result", "created_at",
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) (string, error) {
	row, err := analysisRow(rec)
	if err != nil {
		return "", err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, machine_id, line, window_start, window_end, oee, availability, performance, quality, confidence, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		row...,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert analysis for %s", rec.MachineID)
	}
	return row[0].(string), nil
}

func (s *PostgresStore) SaveBatch(ctx context.Context, recs []*AnalysisRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(recs))
	for _, rec := range recs {
		row, err := analysisRow(rec)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	return db.BulkInsert(ctx, s.pool, "analyses", analysisColumns, rows)
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	var confidence string
	var resultJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, machine_id, line, window_start, window_end, oee, availability, performance, quality, confidence, result, created_at
		 FROM analyses WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.MachineID, &rec.Line, &rec.WindowStart, &rec.WindowEnd,
		&rec.OEE, &rec.Availability, &rec.Performance, &rec.Quality,
		&confidence, &resultJSON, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("analysis not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}

	rec.Confidence = model.Confidence(confidence)
	rec.Result = &model.EngineResult{}
	if err := json.Unmarshal(resultJSON, rec.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &rec, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter Filter) ([]AnalysisRecord, error) {
	query := `SELECT id, machine_id, line, window_start, window_end, oee, availability, performance, quality, confidence, result, created_at
	          FROM analyses WHERE true`
	args := []any{}
	argIdx := 1

	if filter.MachineID != "" {
		query += fmt.Sprintf(` AND machine_id = $%d`, argIdx)
		args = append(args, filter.MachineID)
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.Since.UTC())
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, normalizeLimit(filter.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var recs []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var confidence string
		var resultJSON []byte

		if err := rows.Scan(&rec.ID, &rec.MachineID, &rec.Line, &rec.WindowStart, &rec.WindowEnd,
			&rec.OEE, &rec.Availability, &rec.Performance, &rec.Quality,
			&confidence, &resultJSON, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		rec.Confidence = model.Confidence(confidence)
		rec.Result = &model.EngineResult{}
		if err := json.Unmarshal(resultJSON, rec.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete analysis %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("analysis not found: %s", id)
	}
	return nil
}

// analysisRow serializes one record in analysisColumns order, assigning
// ID and CreatedAt when absent.
func analysisRow(rec *AnalysisRecord) ([]any, error) {
	id, createdAt := recordDefaults(rec)

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal result")
	}
	return []any{
		id, rec.MachineID, rec.Line, rec.WindowStart.UTC(), rec.WindowEnd.UTC(),
		rec.OEE, rec.Availability, rec.Performance, rec.Quality,
		string(rec.Confidence), resultJSON, createdAt,
	}, nil
}
