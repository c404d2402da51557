package preflight

import (
	"reflect"
	"testing"

	"github.com/davidahmann/govgate/pkg/types"
)

func lowRiskContext() types.RequestContext {
	return types.RequestContext{
		PayloadPresent: true,
		Payload:        types.Payload{Authorized: true, CommunityConsent: true, Amount: 50_000},
	}
}

func TestRunAllPassed(t *testing.T) {
	report := Run(lowRiskContext(), 3, Signals{})
	if !report.AllPassed {
		t.Fatalf("expected all passed, got %+v", report)
	}
	if !reflect.DeepEqual(report.Order, Order) {
		t.Fatalf("unexpected order: %v", report.Order)
	}
	if len(report.CriticalFailures) != 0 || len(report.Warnings) != 0 {
		t.Fatalf("expected no failures or warnings, got %+v", report)
	}
	// 100+100+95+100+100+90+85+97 = 767 / 8 = 95.875
	if report.AverageScore != 96 {
		t.Fatalf("expected average 96, got %d", report.AverageScore)
	}
	rl := report.Checks[CheckRateLimit]
	if rl.Score != 95 || rl.Metadata["limit"] != 1000 || rl.Metadata["remaining"] != 950 {
		t.Fatalf("unexpected rate limit result: %+v", rl)
	}
}

func TestRunSanctionRisk(t *testing.T) {
	ctx := lowRiskContext()
	ctx.Payload.SanctionRisk = true
	report := Run(ctx, 3, Signals{})

	if report.AllPassed {
		t.Fatalf("expected failure")
	}
	if got := report.Checks[CheckBoundaryCheck]; got.Passed || got.Score != 20 {
		t.Fatalf("unexpected boundary check: %+v", got)
	}
	if got := report.Checks[CheckSanctionsScreen]; got.Passed || got.Score != 0 {
		t.Fatalf("unexpected sanctions screen: %+v", got)
	}
	want := []string{CheckSanctionsScreen, CheckBoundaryCheck}
	if !reflect.DeepEqual(report.CriticalFailures, want) {
		t.Fatalf("expected %v, got %v", want, report.CriticalFailures)
	}
}

func TestRunAbsentPayloadIsNotCritical(t *testing.T) {
	ctx := types.RequestContext{Payload: types.Payload{Authorized: true, CommunityConsent: true}}
	report := Run(ctx, 0, Signals{})
	got := report.Checks[CheckDataValidation]
	if got.Passed || got.Score != 60 {
		t.Fatalf("unexpected data validation: %+v", got)
	}
	if len(report.CriticalFailures) != 0 {
		t.Fatalf("expected no critical failures, got %v", report.CriticalFailures)
	}
	if report.HasWarning(CheckDataValidation) {
		t.Fatalf("failed checks are never warnings")
	}
}

func TestRunUnauthorized(t *testing.T) {
	ctx := lowRiskContext()
	ctx.Payload.Authorized = false
	report := Run(ctx, 0, Signals{SessionFailed: true})
	if !report.HasCriticalFailure(CheckAuthorization) || !report.HasCriticalFailure(CheckAuthentication) {
		t.Fatalf("expected auth failures, got %v", report.CriticalFailures)
	}
}

func TestRunRiskThreshold(t *testing.T) {
	warn := Run(lowRiskContext(), 22, Signals{})
	if got := warn.Checks[CheckRiskThreshold]; !got.Passed || got.Score != 78 {
		t.Fatalf("unexpected risk threshold: %+v", got)
	}
	if !warn.HasWarning(CheckRiskThreshold) {
		t.Fatalf("expected riskThreshold warning, got %v", warn.Warnings)
	}

	fail := Run(lowRiskContext(), 80, Signals{})
	if got := fail.Checks[CheckRiskThreshold]; got.Passed || got.Score != 20 {
		t.Fatalf("unexpected risk threshold: %+v", got)
	}
	if !fail.HasCriticalFailure(CheckRiskThreshold) {
		t.Fatalf("expected riskThreshold critical failure, got %v", fail.CriticalFailures)
	}
}

func TestRunQuotaDenied(t *testing.T) {
	report := Run(lowRiskContext(), 0, Signals{Quota: &Quota{Allowed: false, Limit: 10, Remaining: 0}})
	got := report.Checks[CheckRateLimit]
	if got.Passed || got.Score != 0 || got.Metadata["remaining"] != 0 {
		t.Fatalf("unexpected rate limit: %+v", got)
	}
	if !report.HasCriticalFailure(CheckRateLimit) {
		t.Fatalf("expected rateLimit critical failure")
	}
}

func TestCriticalViolation(t *testing.T) {
	cases := []struct {
		name string
		p    types.Payload
		want bool
	}{
		{"clean", types.Payload{Amount: 100_000}, false},
		{"large without dual auth", types.Payload{Amount: 100_001}, true},
		{"large with dual auth", types.Payload{Amount: 2_000_000, DualAuth: true}, false},
		{"undisclosed conflict", types.Payload{ConflictOfInterest: true}, true},
		{"disclosed conflict", types.Payload{ConflictOfInterest: true, COIDisclosed: true}, false},
		{"sanction risk", types.Payload{SanctionRisk: true, DualAuth: true}, true},
	}
	for _, tc := range cases {
		if got := CriticalViolation(tc.p); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestChecksCoverOrder(t *testing.T) {
	if len(checks) != len(Order) {
		t.Fatalf("expected %d checks, got %d", len(Order), len(checks))
	}
	for _, name := range Order {
		if _, ok := checks[name]; !ok {
			t.Fatalf("missing check %s", name)
		}
	}
}
