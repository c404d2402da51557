package risk

import "github.com/davidahmann/govgate/pkg/types"

const trendPoints = 6

// Trend extrapolates a short deterministic series ending at the current
// overall score. High-band scores are treated as rising, medium as flat
// and low as falling.
func Trend(a types.RiskAssessment) types.TrendAnalysis {
	var (
		direction  string
		step       int
		confidence float64
	)
	switch a.RiskLevel {
	case types.RiskCritical, types.RiskHigh:
		direction, step, confidence = "increasing", 4, 0.78
	case types.RiskMedium:
		direction, step, confidence = "stable", 0, 0.85
	default:
		direction, step, confidence = "decreasing", -3, 0.72
	}

	history := make([]int, trendPoints)
	for i := range history {
		history[i] = clamp(a.OverallScore - step*(trendPoints-1-i))
	}
	return types.TrendAnalysis{
		Direction:  direction,
		History:    history,
		Prediction: clamp(a.OverallScore + step),
		Confidence: confidence,
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
