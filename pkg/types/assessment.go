package types

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type RiskFactor struct {
	Category       string   `json:"category"`
	Score          int      `json:"score"`
	Weight         float64  `json:"weight"`
	Factors        []string `json:"factors"`
	PrimaryConcern string   `json:"primaryConcern"`
}

type BoundaryStatus string

const (
	BoundaryActive  BoundaryStatus = "ACTIVE"
	BoundaryAtRisk  BoundaryStatus = "AT_RISK"
	BoundaryMonitor BoundaryStatus = "MONITOR"
)

type BoundaryCondition struct {
	ID             string         `json:"id"`
	Rule           string         `json:"rule"`
	Status         BoundaryStatus `json:"status"`
	RequiredAction string         `json:"requiredAction"`
}

type GovernanceDirective struct {
	ApprovalRequired   bool   `json:"approvalRequired"`
	ApprovalLevel      string `json:"approvalLevel"`
	DocumentationLevel string `json:"documentationLevel"`
}

type MitigationStrategy struct {
	Category string `json:"category"`
	Strategy string `json:"strategy"`
	Priority string `json:"priority"`
	Owner    string `json:"owner"`
}

type TrendAnalysis struct {
	Direction  string  `json:"direction"`
	History    []int   `json:"history"`
	Prediction int     `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

type RiskAssessment struct {
	OverallScore         int                  `json:"overallScore"`
	RiskLevel            RiskLevel            `json:"riskLevel"`
	Risks                []RiskFactor         `json:"risks"`
	CriticalAlerts       []string             `json:"criticalAlerts"`
	Recommendations      []string             `json:"recommendations"`
	BoundaryConditions   []BoundaryCondition  `json:"boundaryConditions"`
	Governance           GovernanceDirective  `json:"governance"`
	MitigationStrategies []MitigationStrategy `json:"mitigationStrategies"`
	Trend                *TrendAnalysis       `json:"trend,omitempty"`
}

// CategoryScore returns the score of the named category, or 0 when absent.
func (a RiskAssessment) CategoryScore(category string) int {
	for _, r := range a.Risks {
		if r.Category == category {
			return r.Score
		}
	}
	return 0
}
