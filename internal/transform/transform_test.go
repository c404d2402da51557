package transform

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/davidahmann/govgate/pkg/types"
)

var stamp = Stamp{ProcessedAt: "2026-10-01T00:00:00Z", EngineVersion: "test"}

func TestBuildDoesNotMutateInput(t *testing.T) {
	in := map[string]any{
		"amount": 10.0,
		"flags":  []any{"EXISTING"},
		"nested": map[string]any{"a": []any{1.0}},
	}
	out, err := New(in).With(types.TransformAddRiskFlag, types.TransformRequireDualAuth).Build(stamp)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !reflect.DeepEqual(out["flags"], []any{"EXISTING", FlagHighRisk}) {
		t.Fatalf("unexpected flags: %v", out["flags"])
	}
	if out[KeyDualAuthRequired] != true || out[KeyEngineVersion] != "test" || out[KeyProcessedAt] != stamp.ProcessedAt {
		t.Fatalf("unexpected payload: %v", out)
	}
	if len(in["flags"].([]any)) != 1 {
		t.Fatalf("input flags mutated: %v", in["flags"])
	}
	if _, ok := in[KeyDualAuthRequired]; ok {
		t.Fatalf("input mutated: %v", in)
	}
	out["nested"].(map[string]any)["a"].([]any)[0] = 2.0
	if in["nested"].(map[string]any)["a"].([]any)[0] != 1.0 {
		t.Fatalf("nested value shared with input")
	}
}

func TestBuildMarkers(t *testing.T) {
	out, err := New(nil).With(types.TransformAddReviewFlag, types.TransformEnhanceDocumentation, types.TransformAddConditions).Build(stamp)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, key := range []string{KeyReviewRequired, KeyEnhancedDocumentation, KeyHasConditions} {
		if out[key] != true {
			t.Fatalf("expected %s marker, got %v", key, out)
		}
	}
	if _, ok := out[KeyFlags]; ok {
		t.Fatalf("unexpected flags: %v", out)
	}
}

func TestBuildRiskFlagIsIdempotent(t *testing.T) {
	out, err := New(map[string]any{"flags": []string{FlagHighRisk}}).With(types.TransformAddRiskFlag).Build(stamp)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !reflect.DeepEqual(out["flags"], []any{FlagHighRisk}) {
		t.Fatalf("unexpected flags: %v", out["flags"])
	}
}

func TestWithReturnsIndependentBuilders(t *testing.T) {
	base := New(map[string]any{})
	a := base.With(types.TransformAddReviewFlag)
	b := base.With(types.TransformAddConditions)
	outA, _ := a.Build(stamp)
	outB, _ := b.Build(stamp)
	if _, ok := outA[KeyHasConditions]; ok {
		t.Fatalf("builders share state: %v", outA)
	}
	if _, ok := outB[KeyReviewRequired]; ok {
		t.Fatalf("builders share state: %v", outB)
	}
}

func TestBuildUnknownTransformation(t *testing.T) {
	_, err := New(nil).With("shred").Build(stamp)
	if !errors.Is(err, ErrUnknownTransformation) {
		t.Fatalf("expected ErrUnknownTransformation, got %v", err)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse([]string{"addRiskFlag", "addConditions"})
	if err != nil || len(got) != 2 {
		t.Fatalf("unexpected parse result %v, %v", got, err)
	}
	if _, err := Parse([]string{"AddRiskFlag"}); !errors.Is(err, ErrUnknownTransformation) {
		t.Fatalf("expected ErrUnknownTransformation, got %v", err)
	}
	if len(Known) != len(markers)+1 {
		t.Fatalf("known list out of sync with markers")
	}
}

func TestHeaders(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	trace := TraceID(now, "123e4567-e89b-12d3-a456-426614174000")
	if trace != "gov-1790856000000-123e4567e89b" {
		t.Fatalf("unexpected trace id %q", trace)
	}
	if TraceID(now, "aaaaaaaa-0000") == TraceID(now, "bbbbbbbb-0000") {
		t.Fatalf("expected distinct trace ids for distinct suffixes")
	}

	h := Headers(trace, 42, types.RoutingDecision{Allow: false, Route: types.RouteBlocked}, "v1", now)
	if h.Status != StatusBlocked || h.Route != types.RouteBlocked || h.Timestamp != "2026-10-01T12:00:00Z" {
		t.Fatalf("unexpected headers: %+v", h)
	}
	hdr := HTTPHeader(h)
	if hdr.Get(HeaderScore) != "42" || hdr.Get(HeaderTraceID) != trace || hdr.Get(HeaderStatus) != "blocked" {
		t.Fatalf("unexpected http headers: %v", hdr)
	}
}
