package engine

import (
	"errors"
	"fmt"

	reqctx "github.com/davidahmann/govgate/internal/context"
)

type Kind string

const (
	KindValidation  Kind = "validation"
	KindInternal    Kind = "internal"
	KindUnsupported Kind = "unsupported"
)

// Error is the only error type returned across the engine boundary.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr.Kind
	}
	return KindInternal
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func unsupportedError(format string, args ...any) *Error {
	return &Error{Kind: KindUnsupported, Message: fmt.Sprintf(format, args...)}
}

// internalError hides the cause from the message; it stays reachable through Unwrap.
func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: "risk computation failed", Err: err}
}

// contextError classifies a context build failure. A payload that is not an
// object is the caller's fault; an unreadable field aborts the computation.
func contextError(err error) *Error {
	if errors.Is(err, reqctx.ErrMalformedPayload) {
		return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	return internalError(err)
}
