// Package engine orchestrates context building, scoring, preflight checks,
// routing and transformation for one request at a time.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/davidahmann/govgate/internal/boundary"
	reqctx "github.com/davidahmann/govgate/internal/context"
	"github.com/davidahmann/govgate/internal/decision"
	"github.com/davidahmann/govgate/internal/permission"
	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/internal/preflight"
	"github.com/davidahmann/govgate/internal/risk"
	"github.com/davidahmann/govgate/internal/routing"
	"github.com/davidahmann/govgate/internal/transform"
	"github.com/davidahmann/govgate/pkg/types"
)

const DefaultVersion = "2026.10.0"

const (
	StatusPassed  = "passed"
	StatusBlocked = "blocked"

	NextProceed  = "proceed"
	NextEscalate = "escalate"
	NextReject   = "reject"
)

// Engine holds read-only tables and is safe for concurrent use. Only the
// clock and id source introduce variation between calls.
type Engine struct {
	tables  policy.LoadedTables
	version string
	now     func() time.Time
	newID   func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDSource(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func New(tables policy.LoadedTables, version string, opts ...Option) *Engine {
	if version == "" {
		version = DefaultVersion
	}
	e := &Engine{
		tables:  tables,
		version: version,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Version() string {
	return e.version
}

func (e *Engine) TablesHash() string {
	return e.tables.Hash
}

// Input identifies the operation under evaluation.
type Input struct {
	Source      string
	Target      string
	OperationID string
	Payload     any
}

func (e *Engine) context(in Input) (types.RequestContext, error) {
	ctx, err := reqctx.BuildContext(reqctx.Input{
		Source:      in.Source,
		Target:      in.Target,
		OperationID: in.OperationID,
		Payload:     in.Payload,
	})
	if err != nil {
		return types.RequestContext{}, contextError(err)
	}
	return ctx, nil
}

// assess computes the risk assessment once per context snapshot.
func (e *Engine) assess(ctx types.RequestContext) types.RiskAssessment {
	t := e.tables.Tables
	a := risk.Aggregate(t, risk.Score(t, ctx.Payload))
	a.BoundaryConditions = boundary.Derive(t.Boundaries, a.Risks)
	if ctx.Payload.Realtime {
		trend := risk.Trend(a)
		a.Trend = &trend
	}
	return a
}

// Evaluate returns the risk assessment for the input.
func (e *Engine) Evaluate(in Input) (types.RiskAssessment, error) {
	ctx, err := e.context(in)
	if err != nil {
		return types.RiskAssessment{}, err
	}
	return e.assess(ctx), nil
}

// Intercept evaluates the input, runs the preflight battery against the same
// snapshot and score, routes it and annotates a copy of the payload.
func (e *Engine) Intercept(in Input, sig preflight.Signals) (types.InterceptResult, error) {
	ctx, err := e.context(in)
	if err != nil {
		return types.InterceptResult{}, err
	}
	assessment := e.assess(ctx)
	report := preflight.Run(ctx, assessment.OverallScore, sig)
	route := routing.Decide(e.tables.Tables.Levels, report, assessment.OverallScore)

	now := e.now()
	payload, err := transform.New(ctx.Raw).
		With(route.RequiredTransformations...).
		Build(transform.Stamp{ProcessedAt: now.UTC().Format(time.RFC3339Nano), EngineVersion: e.version})
	if err != nil {
		return types.InterceptResult{}, internalError(err)
	}

	record, err := decision.BuildDecision(decision.Input{
		ContextID:     ctx.ContextID,
		TablesHash:    e.tables.Hash,
		EngineVersion: e.version,
		Routing:       route,
		OverallScore:  assessment.OverallScore,
		RiskLevel:     assessment.RiskLevel,
	})
	if err != nil {
		return types.InterceptResult{}, internalError(err)
	}

	result := types.InterceptResult{
		RiskAssessment:     assessment,
		InterceptID:        "int-" + e.newID(),
		ContextID:          ctx.ContextID,
		DecisionID:         record.DecisionID,
		Preflight:          report,
		Routing:            route,
		TransformedPayload: payload,
		GovernanceHeaders: transform.Headers(
			transform.TraceID(now, e.newID()), assessment.OverallScore, route, e.version, now),
		Status:     StatusBlocked,
		NextAction: nextAction(route),
	}
	if route.Allow {
		result.Status = StatusPassed
	}
	if p := ctx.Payload; p.Module != "" || p.Operation != "" {
		perm := permission.Validate(e.tables.Tables.Permissions, p.Module, p.Operation, p.Permissions)
		result.Permissions = &perm
	}
	return result, nil
}

func nextAction(r types.RoutingDecision) string {
	switch {
	case r.Allow:
		return NextProceed
	case r.Escalate:
		return NextEscalate
	default:
		return NextReject
	}
}

// Validate checks the payload's module, operation and declared permissions.
// A missing module or operation is reported as invalid, not as an error.
func (e *Engine) Validate(in Input) (types.PermissionResult, error) {
	ctx, err := e.context(in)
	if err != nil {
		return types.PermissionResult{}, err
	}
	p := ctx.Payload
	return permission.Validate(e.tables.Tables.Permissions, p.Module, p.Operation, p.Permissions), nil
}

type TransformResult struct {
	ContextID          string                 `json:"contextId"`
	Transformations    []types.Transformation `json:"transformations"`
	TransformedPayload map[string]any         `json:"transformedPayload"`
}

// Transform applies the named transformations to a copy of the payload.
func (e *Engine) Transform(in Input, names []string) (TransformResult, error) {
	steps, err := transform.Parse(names)
	if err != nil {
		return TransformResult{}, &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	ctx, err := e.context(in)
	if err != nil {
		return TransformResult{}, err
	}
	stamp := transform.Stamp{ProcessedAt: e.now().UTC().Format(time.RFC3339Nano), EngineVersion: e.version}
	payload, err := transform.New(ctx.Raw).With(steps...).Build(stamp)
	if err != nil {
		return TransformResult{}, internalError(err)
	}
	return TransformResult{ContextID: ctx.ContextID, Transformations: steps, TransformedPayload: payload}, nil
}

type StatusReport struct {
	EngineVersion string   `json:"engineVersion"`
	TablesID      string   `json:"tablesId"`
	TablesVersion string   `json:"tablesVersion"`
	TablesHash    string   `json:"tablesHash"`
	Actions       []Action `json:"actions"`
	CheckOrder    []string `json:"checkOrder"`
}

func (e *Engine) Status() StatusReport {
	return StatusReport{
		EngineVersion: e.version,
		TablesID:      e.tables.Tables.TablesID,
		TablesVersion: e.tables.Tables.TablesVersion,
		TablesHash:    e.tables.Hash,
		Actions:       append([]Action(nil), Actions...),
		CheckOrder:    append([]string(nil), preflight.Order...),
	}
}
