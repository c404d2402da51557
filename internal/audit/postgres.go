package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS governance_decisions (
	decision_id    TEXT NOT NULL,
	intercept_id   TEXT PRIMARY KEY,
	context_id     TEXT NOT NULL,
	trace_id       TEXT NOT NULL,
	subject        TEXT NOT NULL DEFAULT '',
	route          TEXT NOT NULL,
	allow          BOOLEAN NOT NULL,
	overall_score  INTEGER NOT NULL,
	risk_level     TEXT NOT NULL,
	block_reason   TEXT NOT NULL DEFAULT '',
	engine_version TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
)`

const insertSQL = `
INSERT INTO governance_decisions
(decision_id, intercept_id, context_id, trace_id, subject, route, allow, overall_score, risk_level, block_reason, engine_version, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (intercept_id) DO NOTHING`

type auditDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresSink struct {
	DB    auditDB
	close func()
}

// NewPostgres connects a pool and ensures the decisions table exists.
func NewPostgres(ctx context.Context, dsn string) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres audit dsn required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit db: %w", err)
	}
	s := &PostgresSink{DB: pool, close: pool.Close}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Append(ctx context.Context, rec Record) error {
	_, err := s.DB.Exec(ctx, insertSQL,
		rec.DecisionID, rec.InterceptID, rec.ContextID, rec.TraceID, rec.Subject,
		string(rec.Route), rec.Allow, rec.OverallScore, string(rec.RiskLevel),
		rec.BlockReason, rec.EngineVersion, rec.CreatedAt)
	return err
}

func (s *PostgresSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
