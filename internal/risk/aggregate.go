package risk

import (
	"fmt"

	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/pkg/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	alertCriticalScore = 80
	alertWarningScore  = 60
	recommendScore     = 60

	priorityImmediateScore = 70
	priorityHighScore      = 50
)

const defaultRecommendation = "Proceed with standard protocols"

// OverallScore is the weighted mean of the category scores rounded half up.
// Weights are summed in basis points so the result never depends on float rounding.
func OverallScore(t policy.Tables, factors []types.RiskFactor) int {
	num, den := 0, 0
	for _, f := range factors {
		c, ok := t.Category(f.Category)
		if !ok {
			continue
		}
		bp := c.WeightBasisPoints()
		num += f.Score * bp
		den += bp
	}
	if den == 0 {
		return 0
	}
	overall := (2*num + den) / (2 * den)
	if overall > maxScore {
		overall = maxScore
	}
	if overall < 0 {
		overall = 0
	}
	return overall
}

// Level maps an overall score to its discrete risk level.
func Level(l policy.Levels, score int) types.RiskLevel {
	switch {
	case score >= l.Critical:
		return types.RiskCritical
	case score >= l.High:
		return types.RiskHigh
	case score >= l.Medium:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// Aggregate combines category factors into an assessment. Boundary
// conditions and the trend addendum are attached by the caller.
func Aggregate(t policy.Tables, factors []types.RiskFactor) types.RiskAssessment {
	overall := OverallScore(t, factors)
	title := cases.Title(language.English)

	a := types.RiskAssessment{
		OverallScore:         overall,
		RiskLevel:            Level(t.Levels, overall),
		Risks:                factors,
		CriticalAlerts:       []string{},
		Recommendations:      []string{},
		BoundaryConditions:   []types.BoundaryCondition{},
		Governance:           Directive(t.Levels, overall),
		MitigationStrategies: []types.MitigationStrategy{},
	}

	for _, f := range factors {
		name := title.String(f.Category)
		switch {
		case f.Score >= alertCriticalScore:
			a.CriticalAlerts = append(a.CriticalAlerts, fmt.Sprintf("CRITICAL: %s risk score %d - %s", name, f.Score, f.PrimaryConcern))
		case f.Score >= alertWarningScore:
			a.CriticalAlerts = append(a.CriticalAlerts, fmt.Sprintf("WARNING: %s risk score %d - %s", name, f.Score, f.PrimaryConcern))
		}

		c, ok := t.Category(f.Category)
		if !ok {
			continue
		}
		if f.Score >= recommendScore && c.Recommendation != "" {
			a.Recommendations = append(a.Recommendations, c.Recommendation)
		}
		if f.Score >= t.Levels.Medium {
			a.MitigationStrategies = append(a.MitigationStrategies, types.MitigationStrategy{
				Category: f.Category,
				Strategy: c.Mitigation.Strategy,
				Priority: priority(f.Score),
				Owner:    c.Mitigation.Owner,
			})
		}
	}
	if len(a.Recommendations) == 0 {
		a.Recommendations = append(a.Recommendations, defaultRecommendation)
	}
	return a
}

// Directive derives the approval and documentation requirements for a score.
func Directive(l policy.Levels, score int) types.GovernanceDirective {
	d := types.GovernanceDirective{
		ApprovalRequired:   score >= l.Approval,
		ApprovalLevel:      "Standard",
		DocumentationLevel: "Standard",
	}
	switch {
	case score >= l.Critical:
		d.ApprovalLevel = "Board"
	case score >= l.High:
		d.ApprovalLevel = "Senior Management"
	case score >= l.Medium:
		d.ApprovalLevel = "Department Head"
	}
	if score >= l.High {
		d.DocumentationLevel = "Enhanced"
	}
	return d
}

func priority(score int) string {
	switch {
	case score >= priorityImmediateScore:
		return "Immediate"
	case score >= priorityHighScore:
		return "High"
	default:
		return "Medium"
	}
}
