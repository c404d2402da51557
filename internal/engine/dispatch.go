package engine

import (
	"fmt"
	"strings"

	"github.com/davidahmann/govgate/internal/preflight"
)

type Action string

const (
	ActionEvaluate  Action = "evaluate"
	ActionIntercept Action = "intercept"
	ActionValidate  Action = "validate"
	ActionTransform Action = "transform"
	ActionLog       Action = "log"
	ActionStatus    Action = "status"
)

// Actions lists every action the dispatcher recognizes.
var Actions = []Action{ActionEvaluate, ActionIntercept, ActionValidate, ActionTransform, ActionLog, ActionStatus}

// Request is the single request contract shared by every action. The
// operation attributes may arrive under either "context" or "payload".
type Request struct {
	Action          string   `json:"action"`
	Context         any      `json:"context,omitempty"`
	Payload         any      `json:"payload,omitempty"`
	Source          string   `json:"source,omitempty"`
	Target          string   `json:"target,omitempty"`
	OperationID     string   `json:"operationId,omitempty"`
	Transformations []string `json:"transformations,omitempty"`

	Signals preflight.Signals `json:"-"`
}

func (r Request) input() Input {
	payload := r.Context
	if payload == nil {
		payload = r.Payload
	}
	return Input{Source: r.Source, Target: r.Target, OperationID: r.OperationID, Payload: payload}
}

type handler func(*Engine, Request) (any, error)

var handlers = map[Action]handler{
	ActionEvaluate: func(e *Engine, r Request) (any, error) {
		return e.Evaluate(r.input())
	},
	ActionIntercept: func(e *Engine, r Request) (any, error) {
		return e.Intercept(r.input(), r.Signals)
	},
	ActionValidate: func(e *Engine, r Request) (any, error) {
		return e.Validate(r.input())
	},
	ActionTransform: func(e *Engine, r Request) (any, error) {
		return e.Transform(r.input(), r.Transformations)
	},
	ActionLog: func(*Engine, Request) (any, error) {
		return nil, unsupportedError("action %q is handled by the audit sink, not the engine", ActionLog)
	},
	ActionStatus: func(e *Engine, _ Request) (any, error) {
		return e.Status(), nil
	},
}

// ParseAction resolves an action name.
func ParseAction(name string) (Action, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError("action is required")
	}
	a := Action(strings.ToLower(name))
	if _, ok := handlers[a]; !ok {
		return "", validationError("unknown action %q", name)
	}
	return a, nil
}

// Dispatch routes a request to its action handler. Every failure, including
// a panic inside a handler, is returned as *Error.
func (e *Engine) Dispatch(req Request) (out any, err error) {
	action, err := ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = internalError(fmt.Errorf("panic in %s: %v", action, r))
		}
	}()
	return handlers[action](e, req)
}
