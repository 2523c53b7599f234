package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/plantworks/oee-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. Use ":memory:" for an ephemeral store.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if strings.Contains(dsn, ":memory:") {
		// Every new connection to a memory DSN opens a fresh empty
		// database, so the pool must stay at one.
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id           TEXT PRIMARY KEY,
	machine_id   TEXT NOT NULL,
	line         TEXT NOT NULL DEFAULT '',
	window_start DATETIME NOT NULL,
	window_end   DATETIME NOT NULL,
	oee          REAL NOT NULL,
	availability REAL NOT NULL,
	performance  REAL NOT NULL,
	quality      REAL NOT NULL,
	confidence   TEXT NOT NULL,
	result       TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_machine_id ON analyses(machine_id);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) (string, error) {
	id, createdAt := recordDefaults(rec)

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, machine_id, line, window_start, window_end, oee, availability, performance, quality, confidence, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.MachineID, rec.Line, rec.WindowStart.UTC(), rec.WindowEnd.UTC(),
		rec.OEE, rec.Availability, rec.Performance, rec.Quality,
		string(rec.Confidence), string(resultJSON), createdAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert analysis for %s", rec.MachineID)
	}
	return id, nil
}

func (s *SQLiteStore) SaveBatch(ctx context.Context, recs []*AnalysisRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin batch")
	}
	defer tx.Rollback()

	for _, rec := range recs {
		id, createdAt := recordDefaults(rec)

		resultJSON, err := json.Marshal(rec.Result)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal result")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO analyses (id, machine_id, line, window_start, window_end, oee, availability, performance, quality, confidence, result, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, rec.MachineID, rec.Line, rec.WindowStart.UTC(), rec.WindowEnd.UTC(),
			rec.OEE, rec.Availability, rec.Performance, rec.Quality,
			string(rec.Confidence), string(resultJSON), createdAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: batch insert for %s", rec.MachineID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit batch")
	}
	return int64(len(recs)), nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, machine_id, line, window_start, window_end, oee, availability, performance, quality, confidence, result, created_at
		 FROM analyses WHERE id = ?`,
		id,
	)
	rec, err := scanAnalysis(row)
	if err == errNoAnalysis {
		return nil, eris.Errorf("analysis not found: %s", id)
	}
	return rec, err
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter Filter) ([]AnalysisRecord, error) {
	query := `SELECT id, machine_id, line, window_start, window_end, oee, availability, performance, quality, confidence, result, created_at
	          FROM analyses WHERE 1=1`
	var args []any

	if filter.MachineID != "" {
		query += ` AND machine_id = ?`
		args = append(args, filter.MachineID)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, normalizeLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var recs []AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete analysis %s", id)
	}
	return checkRowsAffected(res, "analysis", id)
}

// helpers

// recordDefaults fills ID and CreatedAt when the caller left them empty
// and returns the values actually persisted.
func recordDefaults(rec *AnalysisRecord) (string, time.Time) {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return id, createdAt
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

var errNoAnalysis = eris.New("no analysis row")

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	var confidence string
	var resultJSON string

	err := row.Scan(&rec.ID, &rec.MachineID, &rec.Line, &rec.WindowStart, &rec.WindowEnd,
		&rec.OEE, &rec.Availability, &rec.Performance, &rec.Quality,
		&confidence, &resultJSON, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errNoAnalysis
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis")
	}

	rec.Confidence = model.Confidence(confidence)
	rec.Result = &model.EngineResult{}
	if err := json.Unmarshal([]byte(resultJSON), rec.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &rec, nil
}
