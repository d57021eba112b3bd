package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pokearena/arena-cli/internal/battle"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
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
CREATE TABLE IF NOT EXISTS verdicts (
	run_id     TEXT PRIMARY KEY,
	side_a     TEXT NOT NULL,
	side_b     TEXT NOT NULL,
	winner     TEXT NOT NULL,
	confidence REAL NOT NULL,
	verdict    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_verdicts_side_a ON verdicts(side_a);
CREATE INDEX IF NOT EXISTS idx_verdicts_side_b ON verdicts(side_b);
CREATE INDEX IF NOT EXISTS idx_verdicts_winner ON verdicts(winner);
CREATE INDEX IF NOT EXISTS idx_verdicts_created_at ON verdicts(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveVerdict inserts a completed verdict. Replaying a run ID is an error;
// run IDs are minted per judgment.
func (s *SQLiteStore) SaveVerdict(ctx context.Context, v battle.Verdict) error {
	if v.RunID == "" {
		return eris.New("sqlite: verdict missing run id")
	}

	verdictJSON, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal verdict")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verdicts (run_id, side_a, side_b, winner, confidence, verdict, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.RunID, v.SideA.Identifier, v.SideB.Identifier, string(v.Winner),
		v.Confidence, string(verdictJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert verdict %s", v.RunID)
}

func (s *SQLiteStore) GetVerdict(ctx context.Context, runID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT verdict, created_at FROM verdicts WHERE run_id = ?`,
		runID,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get verdict %s", runID)
	}
	return rec, nil
}

func (s *SQLiteStore) ListVerdicts(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT verdict, created_at FROM verdicts WHERE 1=1`
	var args []any

	if filter.Contestant != "" {
		query += ` AND (side_a = ? OR side_b = ?)`
		args = append(args, filter.Contestant, filter.Contestant)
	}
	if filter.Winner != "" {
		query += ` AND winner = ?`
		args = append(args, filter.Winner)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list verdicts")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list verdicts iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var verdictJSON string
	var rec Record

	err := row.Scan(&verdictJSON, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("verdict not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan verdict")
	}

	if err := json.Unmarshal([]byte(verdictJSON), &rec.Verdict); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal verdict")
	}
	return &rec, nil
}
