package types

// RequestContext is the normalized snapshot of one operation under evaluation.
// It is built once per invocation and every component reads from the same value.
type RequestContext struct {
	ContextID   string  `json:"contextId"`
	Source      string  `json:"source,omitempty"`
	Target      string  `json:"target,omitempty"`
	OperationID string  `json:"operationId,omitempty"`
	Payload     Payload `json:"payload"`

	// PayloadPresent is false when the caller supplied no payload mapping.
	PayloadPresent bool `json:"payloadPresent"`

	// Raw is the caller's payload exactly as decoded. Components never mutate it.
	Raw map[string]any `json:"-"`
}

// Payload holds the typed attributes the scorers and checks read.
// Absent fields carry their documented defaults.
type Payload struct {
	Amount              float64  `json:"amount"`
	Beneficiaries       float64  `json:"beneficiaries"`
	Urgency             string   `json:"urgency"`
	Location            string   `json:"location"`
	Category            string   `json:"category"`
	Partners            []string `json:"partners"`
	Duration            float64  `json:"duration"`
	VulnerableGroups    bool     `json:"vulnerableGroups"`
	CommunityConsent    bool     `json:"communityConsent"`
	EnvironmentalImpact string   `json:"environmentalImpact"`
	Authorized          bool     `json:"authorized"`
	SanctionRisk        bool     `json:"sanctionRisk"`
	DualAuth            bool     `json:"dualAuth"`
	ConflictOfInterest  bool     `json:"conflictOfInterest"`
	COIDisclosed        bool     `json:"coiDisclosed"`
	Module              string   `json:"module,omitempty"`
	Operation           string   `json:"operation,omitempty"`
	Permissions         []string `json:"permissions,omitempty"`
	Realtime            bool     `json:"realtime"`
}

// PermissionResult is the outcome of validating a module/operation pair.
type PermissionResult struct {
	Valid            bool     `json:"valid"`
	ModuleValid      bool     `json:"moduleValid"`
	OperationValid   bool     `json:"operationValid"`
	PermissionsValid bool     `json:"permissionsValid"`
	Required         []string `json:"required"`
	Missing          []string `json:"missing"`
}
