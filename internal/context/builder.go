package context

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/davidahmann/govgate/internal/crypto"
	"github.com/davidahmann/govgate/pkg/types"
)

const ContextSchema = "govgate.context.v1"

// ErrMalformedPayload is returned when the payload is present but is not a mapping.
var ErrMalformedPayload = errors.New("payload must be a JSON object")

// FieldError reports a payload field whose value cannot be read as its documented type.
type FieldError struct {
	Field string
	Want  string
	Got   any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T", e.Field, e.Want, e.Got)
}

type Input struct {
	Source      string
	Target      string
	OperationID string
	Payload     any
}

// BuildContext normalizes a raw request into the snapshot shared by every
// engine component and computes its context_id.
func BuildContext(in Input) (types.RequestContext, error) {
	record := types.RequestContext{
		Source:      strings.TrimSpace(in.Source),
		Target:      strings.TrimSpace(in.Target),
		OperationID: strings.TrimSpace(in.OperationID),
	}

	var raw map[string]any
	switch p := in.Payload.(type) {
	case nil:
	case map[string]any:
		raw = p
		record.PayloadPresent = true
	default:
		return types.RequestContext{}, ErrMalformedPayload
	}
	record.Raw = raw

	payload, err := readPayload(fields(raw))
	if err != nil {
		return types.RequestContext{}, err
	}
	record.Payload = payload

	id, err := crypto.DigestValue(signingView(record))
	if err != nil {
		return types.RequestContext{}, err
	}
	record.ContextID = id
	return record, nil
}

func readPayload(f fields) (types.Payload, error) {
	r := &fieldReader{fields: f}
	p := types.Payload{
		Amount:              r.number("amount"),
		Beneficiaries:       r.number("beneficiaries"),
		Duration:            r.number("duration"),
		Urgency:             r.enum("urgency"),
		Location:            r.text("location"),
		Category:            r.text("category"),
		EnvironmentalImpact: r.enum("environmentalImpact"),
		Partners:            r.list("partners"),
		VulnerableGroups:    r.flag("vulnerableGroups", false),
		CommunityConsent:    r.flag("communityConsent", true),
		Authorized:          r.flag("authorized", true),
		SanctionRisk:        r.flag("sanctionRisk", false),
		DualAuth:            r.flag("dualAuth", false),
		ConflictOfInterest:  r.flag("conflictOfInterest", false),
		COIDisclosed:        r.flag("coiDisclosed", false),
		Realtime:            r.flag("realtime", false),
		Module:              r.enum("module"),
		Operation:           r.enum("operation"),
		Permissions:         r.list("permissions"),
	}
	if r.err != nil {
		return types.Payload{}, r.err
	}
	return p, nil
}

// fieldReader keeps the first field error and skips reads after it.
type fieldReader struct {
	fields fields
	err    error
}

func (r *fieldReader) number(key string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.fields.number(key)
	r.err = err
	return v
}

func (r *fieldReader) flag(key string, def bool) bool {
	if r.err != nil {
		return def
	}
	v, err := r.fields.flag(key, def)
	r.err = err
	return v
}

func (r *fieldReader) text(key string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.fields.text(key)
	r.err = err
	return v
}

func (r *fieldReader) enum(key string) string {
	return strings.ToLower(r.text(key))
}

func (r *fieldReader) list(key string) []string {
	if r.err != nil {
		return nil
	}
	v, err := r.fields.list(key)
	r.err = err
	return v
}

type fields map[string]any

func (f fields) number(key string) (float64, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, nil
	}
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, &FieldError{Field: key, Want: "number", Got: v}
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, &FieldError{Field: key, Want: "number", Got: v}
		}
		n = parsed
	default:
		return 0, &FieldError{Field: key, Want: "number", Got: v}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, &FieldError{Field: key, Want: "finite number", Got: v}
	}
	return n, nil
}

func (f fields) flag(key string, def bool) (bool, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return def, &FieldError{Field: key, Want: "boolean", Got: v}
		}
		return parsed, nil
	default:
		return def, &FieldError{Field: key, Want: "boolean", Got: v}
	}
}

func (f fields) text(key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldError{Field: key, Want: "string", Got: v}
	}
	return strings.TrimSpace(s), nil
}

// list returns nil for an absent or empty list so both hash alike.
func (f fields) list(key string) ([]string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch x := v.(type) {
	case []string:
		if len(x) == 0 {
			return nil, nil
		}
		return append([]string(nil), x...), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			switch id := item.(type) {
			case string:
				out = append(out, id)
			case float64:
				out = append(out, strconv.FormatFloat(id, 'f', -1, 64))
			case json.Number:
				out = append(out, id.String())
			default:
				return nil, &FieldError{Field: key, Want: "list of identifiers", Got: v}
			}
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	default:
		return nil, &FieldError{Field: key, Want: "list", Got: v}
	}
}

func signingView(record types.RequestContext) map[string]any {
	p := record.Payload
	return map[string]any{
		"schema":          ContextSchema,
		"source":          record.Source,
		"target":          record.Target,
		"operation_id":    record.OperationID,
		"payload_present": record.PayloadPresent,
		"payload": map[string]any{
			"amount":               p.Amount,
			"beneficiaries":        p.Beneficiaries,
			"duration":             p.Duration,
			"urgency":              p.Urgency,
			"location":             p.Location,
			"category":             p.Category,
			"environmental_impact": p.EnvironmentalImpact,
			"partners":             p.Partners,
			"vulnerable_groups":    p.VulnerableGroups,
			"community_consent":    p.CommunityConsent,
			"authorized":           p.Authorized,
			"sanction_risk":        p.SanctionRisk,
			"dual_auth":            p.DualAuth,
			"conflict_of_interest": p.ConflictOfInterest,
			"coi_disclosed":        p.COIDisclosed,
			"realtime":             p.Realtime,
			"module":               p.Module,
			"operation":            p.Operation,
			"permissions":          p.Permissions,
		},
	}
}
