// Package metrics keeps in-process counters for the gateway and renders
// them as JSON or Prometheus text.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type Registry struct {
	mu       sync.RWMutex
	endpoint map[string]*EndpointStat
	routes   map[string]int64
	levels   map[string]int64
	audit    map[string]int64
	errors   map[string]int64
	now      func() time.Time
}

type EndpointStat struct {
	Count          int64   `json:"count"`
	ErrorCount     int64   `json:"error_count"`
	TotalMillis    int64   `json:"total_millis"`
	MaxMillis      int64   `json:"max_millis"`
	AverageMillis  float64 `json:"average_millis"`
	LastStatusCode int     `json:"last_status_code"`
}

type Snapshot struct {
	GeneratedAt string                  `json:"generated_at"`
	Endpoints   map[string]EndpointStat `json:"endpoints"`
	Routes      map[string]int64        `json:"routes"`
	RiskLevels  map[string]int64        `json:"risk_levels"`
	Audit       map[string]int64        `json:"audit"`
	Errors      map[string]int64        `json:"errors"`
}

func NewRegistry() *Registry {
	return &Registry{
		endpoint: map[string]*EndpointStat{},
		routes:   map[string]int64{},
		levels:   map[string]int64{},
		audit:    map[string]int64{},
		errors:   map[string]int64{},
		now:      time.Now,
	}
}

func (r *Registry) Observe(path string, status int, d time.Duration) {
	millis := d.Milliseconds()
	r.mu.Lock()
	defer r.mu.Unlock()
	stat, ok := r.endpoint[path]
	if !ok {
		stat = &EndpointStat{}
		r.endpoint[path] = stat
	}
	stat.Count++
	if status >= 400 {
		stat.ErrorCount++
	}
	stat.TotalMillis += millis
	if millis > stat.MaxMillis {
		stat.MaxMillis = millis
	}
	stat.LastStatusCode = status
	stat.AverageMillis = float64(stat.TotalMillis) / float64(stat.Count)
}

// ObserveDecision counts one routed decision.
func (r *Registry) ObserveDecision(route, level string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if route != "" {
		r.routes[route]++
	}
	if level != "" {
		r.levels[level]++
	}
}

func (r *Registry) IncAudit(outcome string) {
	r.inc(r.audit, outcome)
}

func (r *Registry) IncError(kind string) {
	r.inc(r.errors, kind)
}

func (r *Registry) inc(m map[string]int64, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	r.mu.Lock()
	m[key]++
	r.mu.Unlock()
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := Snapshot{
		GeneratedAt: r.now().UTC().Format(time.RFC3339),
		Endpoints:   make(map[string]EndpointStat, len(r.endpoint)),
		Routes:      copyCounts(r.routes),
		RiskLevels:  copyCounts(r.levels),
		Audit:       copyCounts(r.audit),
		Errors:      copyCounts(r.errors),
	}
	for k, v := range r.endpoint {
		out.Endpoints[k] = *v
	}
	return out
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(r.Snapshot())
	}
}

func (r *Registry) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := r.Snapshot()
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		b := &strings.Builder{}

		b.WriteString("# HELP govgate_endpoint_count total requests by endpoint\n")
		b.WriteString("# TYPE govgate_endpoint_count counter\n")
		for _, ep := range SortedKeys(snap.Endpoints) {
			fmt.Fprintf(b, "govgate_endpoint_count{endpoint=%q} %d\n", ep, snap.Endpoints[ep].Count)
		}
		b.WriteString("# HELP govgate_endpoint_error_count total endpoint errors\n")
		b.WriteString("# TYPE govgate_endpoint_error_count counter\n")
		for _, ep := range SortedKeys(snap.Endpoints) {
			fmt.Fprintf(b, "govgate_endpoint_error_count{endpoint=%q} %d\n", ep, snap.Endpoints[ep].ErrorCount)
		}
		b.WriteString("# HELP govgate_endpoint_avg_millis endpoint average latency in milliseconds\n")
		b.WriteString("# TYPE govgate_endpoint_avg_millis gauge\n")
		for _, ep := range SortedKeys(snap.Endpoints) {
			fmt.Fprintf(b, "govgate_endpoint_avg_millis{endpoint=%q} %.3f\n", ep, snap.Endpoints[ep].AverageMillis)
		}

		counter(b, "govgate_route_total", "decisions by route", "route", snap.Routes)
		counter(b, "govgate_risk_level_total", "decisions by risk level", "level", snap.RiskLevels)
		counter(b, "govgate_audit_total", "audit writes by outcome", "outcome", snap.Audit)
		counter(b, "govgate_engine_error_total", "engine errors by kind", "kind", snap.Errors)

		_, _ = w.Write([]byte(b.String()))
	}
}

func counter(b *strings.Builder, name, help, label string, values map[string]int64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s counter\n", name)
	for _, k := range SortedKeys(values) {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func SortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
