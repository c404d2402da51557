package types

type Route string

const (
	RouteBlocked      Route = "blocked"
	RouteEscalation   Route = "escalation"
	RouteManualReview Route = "manual-review"
	RouteConditional  Route = "conditional"
	RouteAutoApprove  Route = "auto-approve"
)

type Transformation string

const (
	TransformAddRiskFlag          Transformation = "addRiskFlag"
	TransformRequireDualAuth      Transformation = "requireDualAuth"
	TransformAddReviewFlag        Transformation = "addReviewFlag"
	TransformEnhanceDocumentation Transformation = "enhanceDocumentation"
	TransformAddConditions        Transformation = "addConditions"
)

type RoutingDecision struct {
	Allow                   bool             `json:"allow"`
	Escalate                bool             `json:"escalate"`
	Route                   Route            `json:"route"`
	BlockReason             string           `json:"blockReason,omitempty"`
	EscalateTo              string           `json:"escalateTo,omitempty"`
	RequiredApprover        string           `json:"requiredApprover,omitempty"`
	Conditions              []string         `json:"conditions,omitempty"`
	RequiredTransformations []Transformation `json:"requiredTransformations"`
}

type GovernanceHeaders struct {
	TraceID   string `json:"traceId"`
	Score     int    `json:"score"`
	Route     Route  `json:"route"`
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type InterceptResult struct {
	RiskAssessment
	InterceptID        string            `json:"interceptId"`
	ContextID          string            `json:"contextId"`
	DecisionID         string            `json:"decisionId"`
	Preflight          PreflightReport   `json:"preflight"`
	Routing            RoutingDecision   `json:"routing"`
	TransformedPayload map[string]any    `json:"transformedPayload"`
	GovernanceHeaders  GovernanceHeaders `json:"governanceHeaders"`
	Permissions        *PermissionResult `json:"permissions,omitempty"`
	Status             string            `json:"status"`
	NextAction         string            `json:"nextAction"`
}

type DecisionRecord struct {
	Schema          string           `json:"schema"`
	DecisionID      string           `json:"decision_id"`
	ContextID       string           `json:"context_id"`
	TablesHash      string           `json:"tables_hash"`
	EngineVersion   string           `json:"engine_version"`
	Route           Route            `json:"route"`
	Allow           bool             `json:"allow"`
	OverallScore    int              `json:"overall_score"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	Transformations []Transformation `json:"transformations,omitempty"`
}
