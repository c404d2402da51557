// Package preflight runs the fixed battery of request checks that gate
// routing ahead of the risk score.
package preflight

import (
	"github.com/davidahmann/govgate/pkg/types"
)

const (
	CheckAuthentication   = "authentication"
	CheckAuthorization    = "authorization"
	CheckRateLimit        = "rateLimit"
	CheckDataValidation   = "dataValidation"
	CheckSanctionsScreen  = "sanctionsScreen"
	CheckBoundaryCheck    = "boundaryCheck"
	CheckPolicyCompliance = "policyCompliance"
	CheckRiskThreshold    = "riskThreshold"
)

// Order is the fixed evaluation and reporting order of the checks.
var Order = []string{
	CheckAuthentication,
	CheckAuthorization,
	CheckRateLimit,
	CheckDataValidation,
	CheckSanctionsScreen,
	CheckBoundaryCheck,
	CheckPolicyCompliance,
	CheckRiskThreshold,
}

const (
	criticalBelow = 30
	warningBelow  = 80

	riskThresholdLimit    = 80
	dualAuthAmountAbove   = 100_000
	defaultQuotaLimit     = 1000
	defaultQuotaRemaining = 950
)

// Quota is the caller's rate-limit window as observed by an external limiter.
type Quota struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// Signals carries facts established outside the engine. The zero value
// means an authenticated session and a modeled quota window.
type Signals struct {
	SessionFailed bool
	Quota         *Quota
}

type check func(types.RequestContext, int, Signals) types.CheckResult

var checks = map[string]check{
	CheckAuthentication:   authentication,
	CheckAuthorization:    authorization,
	CheckRateLimit:        rateLimit,
	CheckDataValidation:   dataValidation,
	CheckSanctionsScreen:  sanctionsScreen,
	CheckBoundaryCheck:    boundaryCheck,
	CheckPolicyCompliance: policyCompliance,
	CheckRiskThreshold:    riskThreshold,
}

// Run evaluates every check against the context. riskScore must be the
// overall score computed from the same context.
func Run(ctx types.RequestContext, riskScore int, sig Signals) types.PreflightReport {
	report := types.PreflightReport{
		Checks:           make(map[string]types.CheckResult, len(Order)),
		Order:            append([]string(nil), Order...),
		AllPassed:        true,
		CriticalFailures: []string{},
		Warnings:         []string{},
	}
	sum := 0
	for _, name := range Order {
		res := checks[name](ctx, riskScore, sig)
		report.Checks[name] = res
		sum += res.Score
		if !res.Passed {
			report.AllPassed = false
			if res.Score < criticalBelow {
				report.CriticalFailures = append(report.CriticalFailures, name)
			}
		} else if res.Score < warningBelow {
			report.Warnings = append(report.Warnings, name)
		}
	}
	n := len(Order)
	report.AverageScore = (2*sum + n) / (2 * n)
	return report
}

func result(passed bool, pass, fail int) types.CheckResult {
	if passed {
		return types.CheckResult{Passed: true, Score: pass}
	}
	return types.CheckResult{Passed: false, Score: fail}
}

func authentication(_ types.RequestContext, _ int, sig Signals) types.CheckResult {
	return result(!sig.SessionFailed, 100, 0)
}

func authorization(ctx types.RequestContext, _ int, _ Signals) types.CheckResult {
	return result(ctx.Payload.Authorized, 100, 0)
}

func rateLimit(_ types.RequestContext, _ int, sig Signals) types.CheckResult {
	q := Quota{Allowed: true, Limit: defaultQuotaLimit, Remaining: defaultQuotaRemaining}
	if sig.Quota != nil {
		q = *sig.Quota
	}
	res := result(q.Allowed, 95, 0)
	res.Metadata = map[string]any{"limit": q.Limit, "remaining": q.Remaining}
	return res
}

func dataValidation(ctx types.RequestContext, _ int, _ Signals) types.CheckResult {
	return result(ctx.PayloadPresent, 100, 60)
}

func sanctionsScreen(ctx types.RequestContext, _ int, _ Signals) types.CheckResult {
	return result(!ctx.Payload.SanctionRisk, 100, 0)
}

func boundaryCheck(ctx types.RequestContext, _ int, _ Signals) types.CheckResult {
	return result(!CriticalViolation(ctx.Payload), 90, 20)
}

func policyCompliance(_ types.RequestContext, _ int, _ Signals) types.CheckResult {
	return types.CheckResult{Passed: true, Score: 85}
}

func riskThreshold(_ types.RequestContext, riskScore int, _ Signals) types.CheckResult {
	return types.CheckResult{
		Passed:   riskScore < riskThresholdLimit,
		Score:    100 - riskScore,
		Metadata: map[string]any{"riskScore": riskScore},
	}
}

// CriticalViolation reports the hard boundary predicate: sanction risk,
// a large amount without dual authorization, or an undisclosed conflict
// of interest.
func CriticalViolation(p types.Payload) bool {
	switch {
	case p.SanctionRisk:
		return true
	case p.Amount > dualAuthAmountAbove && !p.DualAuth:
		return true
	case p.ConflictOfInterest && !p.COIDisclosed:
		return true
	}
	return false
}
