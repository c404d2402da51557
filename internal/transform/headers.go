package transform

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/davidahmann/govgate/pkg/types"
)

const (
	StatusAllowed = "allowed"
	StatusBlocked = "blocked"
)

const (
	HeaderTraceID   = "X-Governance-Trace-Id"
	HeaderScore     = "X-Governance-Score"
	HeaderRoute     = "X-Governance-Route"
	HeaderStatus    = "X-Governance-Status"
	HeaderVersion   = "X-Governance-Version"
	HeaderTimestamp = "X-Governance-Timestamp"
)

// TraceID joins the call time with a random suffix taken from id.
func TraceID(now time.Time, id string) string {
	suffix := strings.ReplaceAll(id, "-", "")
	if len(suffix) > 12 {
		suffix = suffix[:12]
	}
	return fmt.Sprintf("gov-%d-%s", now.UnixMilli(), suffix)
}

func Headers(traceID string, score int, routing types.RoutingDecision, version string, now time.Time) types.GovernanceHeaders {
	status := StatusBlocked
	if routing.Allow {
		status = StatusAllowed
	}
	return types.GovernanceHeaders{
		TraceID:   traceID,
		Score:     score,
		Route:     routing.Route,
		Status:    status,
		Version:   version,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}

// HTTPHeader renders the governance headers for a downstream response.
func HTTPHeader(h types.GovernanceHeaders) http.Header {
	out := http.Header{}
	out.Set(HeaderTraceID, h.TraceID)
	out.Set(HeaderScore, strconv.Itoa(h.Score))
	out.Set(HeaderRoute, string(h.Route))
	out.Set(HeaderStatus, h.Status)
	out.Set(HeaderVersion, h.Version)
	out.Set(HeaderTimestamp, h.Timestamp)
	return out
}
