// Package boundary derives the governance rules triggered by a set of
// category scores.
package boundary

import (
	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/pkg/types"
)

// Derive returns every boundary rule whose source score reaches its threshold,
// in table order. It reads only the category scores.
func Derive(rules []policy.BoundaryRule, risks []types.RiskFactor) []types.BoundaryCondition {
	out := []types.BoundaryCondition{}
	for _, rule := range rules {
		if !triggered(rule, risks) {
			continue
		}
		out = append(out, types.BoundaryCondition{
			ID:             rule.ID,
			Rule:           rule.Rule,
			Status:         types.BoundaryStatus(rule.Status),
			RequiredAction: rule.Action,
		})
	}
	return out
}

func triggered(rule policy.BoundaryRule, risks []types.RiskFactor) bool {
	if rule.Source == policy.BoundarySourceMean {
		if len(risks) == 0 {
			return false
		}
		// mean >= threshold, kept in integers
		sum := 0
		for _, r := range risks {
			sum += r.Score
		}
		return sum >= rule.Threshold*len(risks)
	}
	for _, r := range risks {
		if r.Category == rule.Source {
			return r.Score >= rule.Threshold
		}
	}
	return false
}
