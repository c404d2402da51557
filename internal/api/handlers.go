package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/davidahmann/govgate/internal/audit"
	"github.com/davidahmann/govgate/internal/auth"
	"github.com/davidahmann/govgate/internal/engine"
	"github.com/davidahmann/govgate/internal/metrics"
	"github.com/davidahmann/govgate/internal/ratelimit"
	"github.com/davidahmann/govgate/internal/stream"
	"github.com/davidahmann/govgate/internal/transform"
	"github.com/davidahmann/govgate/pkg/types"
)

type Handler struct {
	Auth          auth.Authenticator
	Engine        *engine.Engine
	Limiter       ratelimit.Limiter
	Recorder      *audit.Recorder
	Hub           *stream.Hub
	Metrics       *metrics.Registry
	Logger        zerolog.Logger
	StreamOrigins []string
}

// InterceptResponse is an intercept result plus the outcome of its audit write.
type InterceptResponse struct {
	types.InterceptResult
	Audit audit.Outcome `json:"audit"`
}

type claimsKey struct{}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Auth == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", "authentication not configured"))
			return
		}
		claims, err := h.Auth.Authenticate(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", err.Error()))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func claimsFrom(ctx context.Context) auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(auth.Claims)
	return claims
}

// Governance serves the action-dispatched contract.
func (h *Handler) Governance(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.serve(w, r, req)
}

func (h *Handler) fixedAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.decode(w, r)
		if !ok {
			return
		}
		req.Action = action
		h.serve(w, r, req)
	}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, engine.Request{Action: string(engine.ActionStatus)})
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("unavailable", "stream unavailable"))
		return
	}
	stream.Handler(h.Hub, h.StreamOrigins)(w, r)
}

// AuditLookup returns the audit records of one decision when the configured
// sink can read them back.
func (h *Handler) AuditLookup(w http.ResponseWriter, r *http.Request) {
	var finder audit.Finder
	if h.Recorder != nil {
		finder, _ = h.Recorder.Sink.(audit.Finder)
	}
	if finder == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody(string(engine.KindUnsupported), "audit sink does not support lookup"))
		return
	}
	decisionID := chi.URLParam(r, "decisionID")
	records, err := finder.Find(r.Context(), decisionID)
	if err != nil {
		h.Logger.Error().Err(err).Str("decision_id", decisionID).Msg("audit lookup failed")
		writeJSON(w, http.StatusInternalServerError, errorBody(string(engine.KindInternal), "audit lookup failed"))
		return
	}
	if len(records) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "no audit records for decision"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decision_id": decisionID, "records": records})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (engine.Request, bool) {
	var req engine.Request
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		h.fail(w, r, &engine.Error{Kind: engine.KindValidation, Message: "invalid json", Err: err})
		return engine.Request{}, false
	}
	return req, true
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, req engine.Request) {
	if h.Engine == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody(string(engine.KindUnsupported), "engine not configured"))
		return
	}
	action, err := engine.ParseAction(req.Action)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	claims := claimsFrom(r.Context())
	if action == engine.ActionIntercept && h.Limiter != nil {
		req.Signals.Quota = h.Limiter.Allow(r.Context(), claims.Subject).Quota()
	}

	out, err := h.Engine.Dispatch(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch res := out.(type) {
	case types.InterceptResult:
		h.writeIntercept(w, r, res, claims)
	case types.RiskAssessment:
		if h.Metrics != nil {
			h.Metrics.ObserveDecision("", string(res.RiskLevel))
		}
		writeJSON(w, http.StatusOK, res)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *Handler) writeIntercept(w http.ResponseWriter, r *http.Request, res types.InterceptResult, claims auth.Claims) {
	// The audit write must outlive a client that hangs up after the decision.
	ctx := context.WithoutCancel(r.Context())
	outcome := h.Recorder.Record(ctx, audit.FromIntercept(res, claims.Subject, time.Now()))

	if h.Metrics != nil {
		h.Metrics.ObserveDecision(string(res.Routing.Route), string(res.RiskLevel))
		h.Metrics.IncAudit(string(outcome))
	}
	if h.Hub != nil {
		h.Hub.Publish(stream.NewEvent(stream.EventDecision, map[string]any{
			"intercept_id": res.InterceptID,
			"decision_id":  res.DecisionID,
			"trace_id":     res.GovernanceHeaders.TraceID,
			"route":        res.Routing.Route,
			"score":        res.OverallScore,
			"risk_level":   res.RiskLevel,
		}))
	}

	h.Logger.Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("intercept_id", res.InterceptID).
		Str("trace_id", res.GovernanceHeaders.TraceID).
		Str("route", string(res.Routing.Route)).
		Int("score", res.OverallScore).
		Str("risk_level", string(res.RiskLevel)).
		Str("audit", string(outcome)).
		Msg("decision")

	for key, values := range transform.HTTPHeader(res.GovernanceHeaders) {
		w.Header()[key] = values
	}
	writeJSON(w, http.StatusOK, InterceptResponse{InterceptResult: res, Audit: outcome})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := engine.KindOf(err)
	status := statusFor(kind)
	message := "internal error"
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		message = engErr.Message
	}
	if h.Metrics != nil {
		h.Metrics.IncError(string(kind))
	}
	ev := h.Logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = h.Logger.Error()
	}
	ev.Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("kind", string(kind)).
		Msg("request failed")
	writeJSON(w, status, errorBody(string(kind), message))
}

func statusFor(kind engine.Kind) int {
	switch kind {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(kind, message string) map[string]any {
	return map[string]any{"error": map[string]string{"kind": kind, "message": message}}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
