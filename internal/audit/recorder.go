package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Outcome string

const (
	OutcomeRecorded   Outcome = "recorded"
	OutcomeIncomplete Outcome = "incomplete"
	OutcomeDisabled   Outcome = "disabled"
)

const (
	defaultTimeout = 250 * time.Millisecond
	defaultBudget  = 500 * time.Millisecond
	defaultBackoff = 50 * time.Millisecond
)

// Recorder wraps a sink with a per-attempt timeout and bounded retries.
// Budget caps the whole call, retries and backoff included.
type Recorder struct {
	Sink    Sink
	Timeout time.Duration
	Budget  time.Duration
	Retries int
	Backoff time.Duration
	Logger  zerolog.Logger
}

func NewRecorder(sink Sink, timeout time.Duration, retries int, logger zerolog.Logger) *Recorder {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if retries < 0 {
		retries = 0
	}
	return &Recorder{Sink: sink, Timeout: timeout, Budget: defaultBudget, Retries: retries, Backoff: defaultBackoff, Logger: logger}
}

// Record appends rec and reports how it went. It never returns an error:
// the caller's decision stands whatever the sink does.
func (r *Recorder) Record(ctx context.Context, rec Record) Outcome {
	if r == nil || r.Sink == nil {
		return OutcomeDisabled
	}
	if r.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Budget)
		defer cancel()
	}
	var err error
	for attempt := 0; attempt <= r.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				r.warn(rec, attempt, ctx.Err())
				return OutcomeIncomplete
			case <-time.After(r.Backoff * time.Duration(attempt)):
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, r.Timeout)
		err = r.Sink.Append(attemptCtx, rec)
		cancel()
		if err == nil {
			return OutcomeRecorded
		}
	}
	r.warn(rec, r.Retries+1, err)
	return OutcomeIncomplete
}

func (r *Recorder) warn(rec Record, attempts int, err error) {
	r.Logger.Warn().
		Err(err).
		Str("decision_id", rec.DecisionID).
		Str("intercept_id", rec.InterceptID).
		Int("attempts", attempts).
		Msg("audit write incomplete")
}

func (r *Recorder) Close() error {
	if r == nil || r.Sink == nil {
		return nil
	}
	return r.Sink.Close()
}
