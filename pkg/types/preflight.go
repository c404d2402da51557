package types

type CheckResult struct {
	Passed   bool           `json:"passed"`
	Score    int            `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type PreflightReport struct {
	Checks           map[string]CheckResult `json:"checks"`
	Order            []string               `json:"order"`
	AllPassed        bool                   `json:"allPassed"`
	AverageScore     int                    `json:"averageScore"`
	CriticalFailures []string               `json:"criticalFailures"`
	Warnings         []string               `json:"warnings"`
}

// HasWarning reports whether the named check is among the warnings.
func (r PreflightReport) HasWarning(name string) bool {
	for _, w := range r.Warnings {
		if w == name {
			return true
		}
	}
	return false
}

// HasCriticalFailure reports whether the named check is among the critical failures.
func (r PreflightReport) HasCriticalFailure(name string) bool {
	for _, f := range r.CriticalFailures {
		if f == name {
			return true
		}
	}
	return false
}
