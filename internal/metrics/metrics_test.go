package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Observe("/v1/intercept", 200, 10*time.Millisecond)
	r.Observe("/v1/intercept", 400, 30*time.Millisecond)
	r.ObserveDecision("conditional", "medium")
	r.ObserveDecision("conditional", "low")
	r.IncAudit("recorded")
	r.IncAudit("")
	r.IncError("validation")

	snap := r.Snapshot()
	ep := snap.Endpoints["/v1/intercept"]
	if ep.Count != 2 || ep.ErrorCount != 1 || ep.MaxMillis != 30 || ep.AverageMillis != 20 || ep.LastStatusCode != 400 {
		t.Fatalf("unexpected endpoint stat: %+v", ep)
	}
	if snap.Routes["conditional"] != 2 || snap.RiskLevels["low"] != 1 {
		t.Fatalf("unexpected decision counts: %+v", snap)
	}
	if len(snap.Audit) != 1 || snap.Errors["validation"] != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}

func TestHandlers(t *testing.T) {
	r := NewRegistry()
	r.ObserveDecision("blocked", "low")
	r.Observe("/v1/evaluate", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Routes["blocked"] != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	rec = httptest.NewRecorder()
	r.PrometheusHandler()(rec, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`govgate_route_total{route="blocked"} 1`,
		`govgate_risk_level_total{level="low"} 1`,
		`govgate_endpoint_count{endpoint="/v1/evaluate"} 1`,
		"# TYPE govgate_audit_total counter",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in output:\n%s", want, body)
		}
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected order: %v", got)
	}
}
