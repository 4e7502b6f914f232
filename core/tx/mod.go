// Package tx implements the supervision of a transaction submitted to an
// external settlement layer.
//
// The package does not know how a transaction is submitted nor how it gets
// confirmed: the caller provides a submission function returning an opaque
// transaction identifier, and a confirmer that reports how many confirmations
// the transaction has accumulated. The controller drives both through a state
// machine going from idle to pending on execution, to confirming once the
// submission resolves, and to success once the confirmations reach the
// required threshold. A failed submission is captured into the state, never
// returned as an error, and can be retried a bounded number of times with a
// fixed delay between the attempts.
package tx

import (
	"context"
	"fmt"
)

// Status is the stage of the lifecycle of a transaction.
type Status int

const (
	// StatusIdle is the initial stage, before any execution.
	StatusIdle Status = iota

	// StatusPending is the stage of a submission that has not resolved yet.
	StatusPending

	// StatusConfirming is the stage of a submitted transaction accumulating
	// confirmations.
	StatusConfirming

	// StatusSuccess is the terminal stage of a confirmed transaction.
	StatusSuccess

	// StatusFailed is the terminal stage of a submission that could not
	// complete. It can be retried, or reset.
	StatusFailed
)

// String implements fmt.Stringer. It returns the name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusConfirming:
		return "confirming"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status#%d", int(s))
	}
}

// State is a snapshot of the lifecycle of a transaction. The controller owns
// the state exclusively and hands out copies.
type State struct {
	// Status is the current stage of the lifecycle.
	Status Status

	// TxID is the identifier returned by the submission. It is set from the
	// confirming stage onwards, and kept when a later stage fails.
	TxID string

	// Confirmations counts the confirmations accumulated by the current
	// attempt. It never decreases within an attempt and never exceeds
	// Required.
	Confirmations int

	// Required is the confirmation threshold to reach the success stage.
	Required int

	// RetryCount counts the retry attempts since the last success or reset.
	RetryCount int

	// Error describes the failure when the status is failed.
	Error string
}

// IsLoading returns true when an execution is in flight, either waiting for
// the submission or for the confirmations.
func (s State) IsLoading() bool {
	return s.Status == StatusPending || s.Status == StatusConfirming
}

// Submit is the function provided by the caller to submit the transaction.
// It returns an opaque identifier, or an error if the submission failed.
type Submit func(ctx context.Context) (string, error)

// Confirmer is the source of confirmations of a submitted transaction. The
// controller polls it at a fixed interval until the threshold is reached. An
// implementation would typically query a ledger; the default one simulates
// a ledger confirming one block per poll.
type Confirmer interface {
	// Confirmations returns the current confirmation count of the
	// transaction.
	Confirmations(ctx context.Context, txID string) (int, error)
}

// Controller drives a submission through the lifecycle and exposes the
// current state for presentation. At most one lifecycle can be in flight per
// controller: a concurrent execution is ignored.
type Controller interface {
	// Execute moves synchronously to the pending stage and then drives the
	// submission until a terminal stage. The submission error is captured
	// into the state, never returned. It returns the final snapshot.
	Execute(ctx context.Context, submit Submit) State

	// Retry waits the retry delay and then executes the submission again, if
	// the number of retries is not exhausted. Otherwise it only updates the
	// error of the state.
	Retry(ctx context.Context, submit Submit) State

	// Reset unconditionally returns the controller to the idle stage and
	// invalidates any attempt still in flight. It is safe to call from any
	// stage, any number of times.
	Reset()

	// GetState returns a snapshot of the current state.
	GetState() State

	// IsLoading returns true when an execution is in flight.
	IsLoading() bool

	// CanRetry returns true when the last execution failed and the number of
	// retries is not exhausted.
	CanRetry() bool

	// Watch returns a channel populated with a snapshot for every transition
	// until the context is done.
	Watch(ctx context.Context) <-chan State
}
