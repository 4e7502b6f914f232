package envelope

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Invalidity enumerates the reasons an envelope can be refused. The checks
// are evaluated in the order of the declarations and the first failing one
// determines the reported kind, so that an active-adversary signal is never
// reported as routine staleness.
type Invalidity int

const (
	// MalformedEnvelope reports an input that cannot be parsed as an
	// envelope, or a payload that does not have the expected shape.
	MalformedEnvelope Invalidity = iota + 1

	// MissingSignature reports an envelope that parses but carries no
	// signature or no payload.
	MissingSignature

	// Tampered reports a signature that does not match the payload, either
	// because the payload was altered or because the secrets differ.
	Tampered

	// Expired reports a genuine envelope older than the validity window.
	Expired

	// IncompleteRecord reports a genuine, fresh envelope whose record lacks a
	// mandatory field or comes from an incompatible schema version.
	IncompleteRecord
)

// String implements fmt.Stringer. It returns a short identifier of the kind.
func (i Invalidity) String() string {
	switch i {
	case MalformedEnvelope:
		return "malformed envelope"
	case MissingSignature:
		return "missing signature"
	case Tampered:
		return "tampered"
	case Expired:
		return "expired"
	case IncompleteRecord:
		return "incomplete record"
	default:
		return fmt.Sprintf("invalidity#%d", int(i))
	}
}

// IsHostile returns true for the kinds that indicate an active tampering
// attempt rather than staleness or a producer-side bug, so that a caller can
// choose a stronger reaction.
func (i Invalidity) IsHostile() bool {
	return i == Tampered || i == MissingSignature
}

// InvalidError is the error returned when an envelope is refused. It carries
// the kind of the refusal so that callers do not have to match on the
// message.
//
// - implements error
type InvalidError struct {
	invalidity Invalidity
	reason     string
}

func newInvalid(i Invalidity, format string, args ...interface{}) *InvalidError {
	return &InvalidError{
		invalidity: i,
		reason:     fmt.Sprintf(format, args...),
	}
}

// Error implements error. It returns the kind followed by the detail.
func (e *InvalidError) Error() string {
	return fmt.Sprintf("%v: %s", e.invalidity, e.reason)
}

// GetInvalidity returns the kind of the refusal.
func (e *InvalidError) GetInvalidity() Invalidity {
	return e.invalidity
}

// InvalidityOf returns the kind of the refusal if the error comes from a
// verification, otherwise false.
func InvalidityOf(err error) (Invalidity, bool) {
	var invalid *InvalidError
	if xerrors.As(err, &invalid) {
		return invalid.invalidity, true
	}

	return 0, false
}
