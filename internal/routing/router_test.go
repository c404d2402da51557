package routing

import (
	"reflect"
	"testing"

	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/internal/preflight"
	"github.com/davidahmann/govgate/pkg/types"
)

func levels(t *testing.T) policy.Levels {
	t.Helper()
	loaded, err := policy.Default()
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	return loaded.Tables.Levels
}

func clean() types.PreflightReport {
	return types.PreflightReport{AllPassed: true, CriticalFailures: []string{}, Warnings: []string{}}
}

func TestDecideBlockedListsFailures(t *testing.T) {
	report := clean()
	report.CriticalFailures = []string{preflight.CheckAuthorization, preflight.CheckBoundaryCheck}
	d := Decide(levels(t), report, 90)
	if d.Route != types.RouteBlocked || d.Allow || d.Escalate {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.BlockReason != "Critical preflight failures: authorization, boundaryCheck" {
		t.Fatalf("unexpected block reason %q", d.BlockReason)
	}
}

func TestDecideBlockedSanctionsEscalates(t *testing.T) {
	report := clean()
	report.CriticalFailures = []string{preflight.CheckSanctionsScreen, preflight.CheckBoundaryCheck}
	d := Decide(levels(t), report, 10)
	if d.Route != types.RouteBlocked || !d.Escalate || d.EscalateTo != "Compliance" {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestDecideEscalation(t *testing.T) {
	d := Decide(levels(t), clean(), 80)
	if d.Route != types.RouteEscalation || d.Allow || !d.Escalate || d.EscalateTo != "Board" {
		t.Fatalf("unexpected decision: %+v", d)
	}
	want := []types.Transformation{types.TransformAddRiskFlag, types.TransformRequireDualAuth}
	if !reflect.DeepEqual(d.RequiredTransformations, want) {
		t.Fatalf("unexpected transformations: %v", d.RequiredTransformations)
	}
}

func TestDecideManualReview(t *testing.T) {
	d := Decide(levels(t), clean(), 60)
	if d.Route != types.RouteManualReview || !d.Allow || d.RequiredApprover != "Senior Management" {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestDecideConditional(t *testing.T) {
	report := clean()
	report.Warnings = []string{preflight.CheckPolicyCompliance, preflight.CheckRiskThreshold}
	d := Decide(levels(t), report, 55)
	want := []string{ConditionPostReview, ConditionEnhancedMonitoring, ConditionPolicyException}
	if d.Route != types.RouteConditional || !reflect.DeepEqual(d.Conditions, want) {
		t.Fatalf("unexpected decision: %+v", d)
	}

	d = Decide(levels(t), clean(), 40)
	if d.Route != types.RouteConditional || len(d.Conditions) != 0 {
		t.Fatalf("unexpected decision at 40: %+v", d)
	}
}

func TestDecideWarningOnlyIsConditional(t *testing.T) {
	report := clean()
	report.Warnings = []string{preflight.CheckRiskThreshold}
	d := Decide(levels(t), report, 22)
	if d.Route != types.RouteConditional || !reflect.DeepEqual(d.Conditions, []string{ConditionEnhancedMonitoring}) {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestDecideAutoApprove(t *testing.T) {
	d := Decide(levels(t), clean(), 39)
	if d.Route != types.RouteAutoApprove || !d.Allow || len(d.RequiredTransformations) != 0 {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestDecideAllowIffNotBlockedOrEscalated(t *testing.T) {
	reports := []types.PreflightReport{clean(), {CriticalFailures: []string{preflight.CheckRateLimit}}, {Warnings: []string{preflight.CheckRiskThreshold}}}
	for _, report := range reports {
		for score := 0; score <= 100; score++ {
			d := Decide(levels(t), report, score)
			denied := d.Route == types.RouteBlocked || d.Route == types.RouteEscalation
			if d.Allow == denied {
				t.Fatalf("score %d: allow=%v with route %s", score, d.Allow, d.Route)
			}
		}
	}
}
