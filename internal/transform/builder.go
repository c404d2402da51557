// Package transform annotates payload copies with governance markers and
// produces the trace headers attached to every intercept.
package transform

import (
	"errors"
	"fmt"

	"github.com/davidahmann/govgate/pkg/types"
)

var ErrUnknownTransformation = errors.New("unknown transformation")

const (
	FlagHighRisk = "HIGH_RISK"

	KeyFlags                 = "flags"
	KeyDualAuthRequired      = "dualAuthRequired"
	KeyReviewRequired        = "reviewRequired"
	KeyEnhancedDocumentation = "enhancedDocumentation"
	KeyHasConditions         = "hasConditions"
	KeyProcessedAt           = "processedAt"
	KeyEngineVersion         = "engineVersion"
)

// Known lists every transformation the builder accepts.
var Known = []types.Transformation{
	types.TransformAddRiskFlag,
	types.TransformRequireDualAuth,
	types.TransformAddReviewFlag,
	types.TransformEnhanceDocumentation,
	types.TransformAddConditions,
}

var markers = map[types.Transformation]string{
	types.TransformRequireDualAuth:      KeyDualAuthRequired,
	types.TransformAddReviewFlag:        KeyReviewRequired,
	types.TransformEnhanceDocumentation: KeyEnhancedDocumentation,
	types.TransformAddConditions:        KeyHasConditions,
}

// Stamp is written into every built payload.
type Stamp struct {
	ProcessedAt   string
	EngineVersion string
}

// Builder accumulates transformation requests against a base payload.
// Builders are values: With returns a new builder and the base payload is
// never written to.
type Builder struct {
	base  map[string]any
	steps []types.Transformation
}

func New(payload map[string]any) Builder {
	return Builder{base: payload}
}

func (b Builder) With(steps ...types.Transformation) Builder {
	next := make([]types.Transformation, 0, len(b.steps)+len(steps))
	next = append(next, b.steps...)
	next = append(next, steps...)
	return Builder{base: b.base, steps: next}
}

// Build deep-copies the base payload, applies every requested
// transformation in order and stamps the result.
func (b Builder) Build(stamp Stamp) (map[string]any, error) {
	out, _ := deepCopy(b.base).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	for _, step := range b.steps {
		if step == types.TransformAddRiskFlag {
			out[KeyFlags] = appendFlag(out[KeyFlags], FlagHighRisk)
			continue
		}
		key, ok := markers[step]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTransformation, step)
		}
		out[key] = true
	}
	out[KeyProcessedAt] = stamp.ProcessedAt
	out[KeyEngineVersion] = stamp.EngineVersion
	return out, nil
}

// Parse converts transformation names into known transformations.
func Parse(names []string) ([]types.Transformation, error) {
	out := make([]types.Transformation, 0, len(names))
	for _, name := range names {
		t := types.Transformation(name)
		if t != types.TransformAddRiskFlag {
			if _, ok := markers[t]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownTransformation, name)
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func appendFlag(existing any, flag string) []any {
	var flags []any
	switch v := existing.(type) {
	case []any:
		flags = v
	case []string:
		for _, s := range v {
			flags = append(flags, s)
		}
	case string:
		flags = []any{v}
	}
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}
