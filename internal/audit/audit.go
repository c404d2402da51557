// Package audit persists decision records outside the engine. A write
// failure never changes a decision; it only marks logging incomplete.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/govgate/pkg/types"
)

type Record struct {
	DecisionID    string          `json:"decision_id"`
	InterceptID   string          `json:"intercept_id"`
	ContextID     string          `json:"context_id"`
	TraceID       string          `json:"trace_id"`
	Subject       string          `json:"subject,omitempty"`
	Route         types.Route     `json:"route"`
	Allow         bool            `json:"allow"`
	OverallScore  int             `json:"overall_score"`
	RiskLevel     types.RiskLevel `json:"risk_level"`
	BlockReason   string          `json:"block_reason,omitempty"`
	EngineVersion string          `json:"engine_version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FromIntercept extracts the audit record for an intercept result.
func FromIntercept(res types.InterceptResult, subject string, at time.Time) Record {
	return Record{
		DecisionID:    res.DecisionID,
		InterceptID:   res.InterceptID,
		ContextID:     res.ContextID,
		TraceID:       res.GovernanceHeaders.TraceID,
		Subject:       subject,
		Route:         res.Routing.Route,
		Allow:         res.Routing.Allow,
		OverallScore:  res.OverallScore,
		RiskLevel:     res.RiskLevel,
		BlockReason:   res.Routing.BlockReason,
		EngineVersion: res.GovernanceHeaders.Version,
		CreatedAt:     at.UTC(),
	}
}

type Sink interface {
	Append(ctx context.Context, rec Record) error
	Close() error
}

// Finder is implemented by sinks that can read their records back.
type Finder interface {
	Find(ctx context.Context, decisionID string) ([]Record, error)
}

const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverJSONL    = "jsonl"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverKafka    = "kafka"
)

var ErrUnknownDriver = errors.New("unknown audit driver")

type Config struct {
	Driver  string
	Path    string
	DSN     string
	Brokers []string
	Topic   string
}

// Open returns the sink selected by cfg.Driver. DriverNone yields a nil sink.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverNone:
		return nil, nil
	case DriverMemory:
		return NewMemory(), nil
	case DriverJSONL:
		s, err := NewJSONL(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverKafka:
		s, err := NewKafka(KafkaConfig{Brokers: cfg.Brokers, Topic: cfg.Topic})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

