package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/davidahmann/govgate/pkg/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS governance_decisions (
	decision_id    TEXT NOT NULL,
	intercept_id   TEXT PRIMARY KEY,
	context_id     TEXT NOT NULL,
	trace_id       TEXT NOT NULL,
	subject        TEXT NOT NULL DEFAULT '',
	route          TEXT NOT NULL,
	allow          INTEGER NOT NULL,
	overall_score  INTEGER NOT NULL,
	risk_level     TEXT NOT NULL,
	block_reason   TEXT NOT NULL DEFAULT '',
	engine_version TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS governance_decisions_decision_id ON governance_decisions (decision_id);`

const sqliteInsert = `
INSERT INTO governance_decisions
(decision_id, intercept_id, context_id, trace_id, subject, route, allow, overall_score, risk_level, block_reason, engine_version, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (intercept_id) DO NOTHING`

const sqliteSelect = `
SELECT decision_id, intercept_id, context_id, trace_id, subject, route, allow, overall_score, risk_level, block_reason, engine_version, created_at
FROM governance_decisions WHERE decision_id = ? ORDER BY created_at, intercept_id`

// SQLiteSink stores records in a database/sql handle, normally a local
// SQLite file.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens dsn with the sqlite driver and applies the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite audit dsn required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := NewSQL(db)
	if err := s.ApplySchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQL(db *sql.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

func (s *SQLiteSink) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, sqliteInsert,
		rec.DecisionID, rec.InterceptID, rec.ContextID, rec.TraceID, rec.Subject,
		string(rec.Route), rec.Allow, rec.OverallScore, string(rec.RiskLevel),
		rec.BlockReason, rec.EngineVersion, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteSink) Find(ctx context.Context, decisionID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelect, decisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			route     string
			level     string
			createdAt string
		)
		if err := rows.Scan(&rec.DecisionID, &rec.InterceptID, &rec.ContextID, &rec.TraceID, &rec.Subject,
			&route, &rec.Allow, &rec.OverallScore, &level, &rec.BlockReason, &rec.EngineVersion, &createdAt); err != nil {
			return nil, err
		}
		rec.Route = types.Route(route)
		rec.RiskLevel = types.RiskLevel(level)
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("audit record %s: created_at: %w", rec.InterceptID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
