// Package decision builds the content-addressed record that correlates an
// intercept with its audit trail.
package decision

import (
	"github.com/davidahmann/govgate/internal/crypto"
	"github.com/davidahmann/govgate/pkg/types"
)

const DecisionSchema = "govgate.decision.v1"

type Input struct {
	ContextID     string
	TablesHash    string
	EngineVersion string
	Routing       types.RoutingDecision
	OverallScore  int
	RiskLevel     types.RiskLevel
}

// BuildDecision builds a decision record and computes its decision_id.
// The id covers only deterministic fields, so identical input yields the
// same id on every evaluation.
func BuildDecision(in Input) (types.DecisionRecord, error) {
	record := types.DecisionRecord{
		Schema:          DecisionSchema,
		ContextID:       in.ContextID,
		TablesHash:      in.TablesHash,
		EngineVersion:   in.EngineVersion,
		Route:           in.Routing.Route,
		Allow:           in.Routing.Allow,
		OverallScore:    in.OverallScore,
		RiskLevel:       in.RiskLevel,
		Transformations: append([]types.Transformation(nil), in.Routing.RequiredTransformations...),
	}

	transformations := make([]any, 0, len(record.Transformations))
	for _, t := range record.Transformations {
		transformations = append(transformations, string(t))
	}
	signingView := map[string]any{
		"schema":          record.Schema,
		"context_id":      record.ContextID,
		"tables_hash":     record.TablesHash,
		"engine_version":  record.EngineVersion,
		"route":           string(record.Route),
		"allow":           record.Allow,
		"overall_score":   record.OverallScore,
		"risk_level":      string(record.RiskLevel),
		"transformations": transformations,
	}

	id, err := crypto.DigestValue(signingView)
	if err != nil {
		return types.DecisionRecord{}, err
	}
	record.DecisionID = id
	return record, nil
}
