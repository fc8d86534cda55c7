package engine

import (
	"context"
	"errors"
	"time"

	"github.com/talgya/ecosim/internal/world"
)

var (
	// ErrOracleUnavailable means the oracle produced no usable result within
	// the retry budget. The turn was not committed.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrOracleMalformed means the oracle answered but the answer could not be
	// read as a turn forecast. Oracle implementations wrap it for parse
	// failures; those are not retried.
	ErrOracleMalformed = errors.New("oracle response malformed")
)

// Forecast is the oracle's proposal for the next turn. Only the species list,
// season and temperature feed the new state; tiles are always derived locally.
type Forecast struct {
	Species     []world.Species
	Season      string
	Temperature float64
	Narration   string
	Events      []world.Event
	Warnings    []string
}

// Oracle is the external reasoning service that decides populations and
// narrates the world. Its output is untrusted.
type Oracle interface {
	// Forecast proposes the next turn for state, given an optional intervention.
	Forecast(ctx context.Context, state *world.State, iv *Intervention) (*Forecast, error)
	// Converse answers a free-text question about state.
	Converse(ctx context.Context, state *world.State, message string) (string, error)
}

// RetryPolicy bounds how often a transient oracle failure is retried.
type RetryPolicy struct {
	Attempts int           // total calls, including the first
	Delay    time.Duration // fixed wait between calls
}

// DefaultRetryPolicy makes three attempts two seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 2 * time.Second}
}

// wait sleeps for the policy delay or until ctx is done.
func (p RetryPolicy) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
