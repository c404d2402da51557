// Package routing applies the ordered decision waterfall to a preflight
// report and overall risk score.
package routing

import (
	"strings"

	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/internal/preflight"
	"github.com/davidahmann/govgate/pkg/types"
)

const (
	escalationTarget = "Board"
	sanctionsTarget  = "Compliance"
	reviewApprover   = "Senior Management"
	postReviewScore  = 50
)

const (
	ConditionPostReview         = "Post-implementation review required"
	ConditionEnhancedMonitoring = "Enhanced monitoring during execution"
	ConditionPolicyException    = "Policy exception documentation required"
)

// Decide returns exactly one route. The first matching rule wins.
func Decide(levels policy.Levels, report types.PreflightReport, score int) types.RoutingDecision {
	switch {
	case len(report.CriticalFailures) > 0:
		d := types.RoutingDecision{
			Route:                   types.RouteBlocked,
			BlockReason:             "Critical preflight failures: " + strings.Join(report.CriticalFailures, ", "),
			RequiredTransformations: []types.Transformation{},
		}
		if report.HasCriticalFailure(preflight.CheckSanctionsScreen) {
			d.Escalate = true
			d.EscalateTo = sanctionsTarget
		}
		return d

	case score >= levels.Critical:
		return types.RoutingDecision{
			Route:                   types.RouteEscalation,
			Escalate:                true,
			EscalateTo:              escalationTarget,
			RequiredTransformations: []types.Transformation{types.TransformAddRiskFlag, types.TransformRequireDualAuth},
		}

	case score >= levels.High:
		return types.RoutingDecision{
			Allow:                   true,
			Route:                   types.RouteManualReview,
			RequiredApprover:        reviewApprover,
			RequiredTransformations: []types.Transformation{types.TransformAddReviewFlag, types.TransformEnhanceDocumentation},
		}

	case score >= levels.Medium || len(report.Warnings) > 0:
		return types.RoutingDecision{
			Allow:                   true,
			Route:                   types.RouteConditional,
			Conditions:              conditions(report, score),
			RequiredTransformations: []types.Transformation{types.TransformAddConditions},
		}

	default:
		return types.RoutingDecision{
			Allow:                   true,
			Route:                   types.RouteAutoApprove,
			RequiredTransformations: []types.Transformation{},
		}
	}
}

func conditions(report types.PreflightReport, score int) []string {
	out := []string{}
	if score >= postReviewScore {
		out = append(out, ConditionPostReview)
	}
	if report.HasWarning(preflight.CheckRiskThreshold) {
		out = append(out, ConditionEnhancedMonitoring)
	}
	if report.HasWarning(preflight.CheckPolicyCompliance) {
		out = append(out, ConditionPolicyException)
	}
	return out
}
