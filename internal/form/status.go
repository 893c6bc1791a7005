// Package form holds the per-user state of the integral calculator form and
// drives submissions through an Evaluator.
package form

import (
	"encoding/json"
	"fmt"
)

// Status represents where a form is in its submit cycle.
type Status int32

const (
	// StatusIdle accepts edits and submissions.
	StatusIdle Status = iota

	// StatusSubmitting has an evaluation in flight.
	StatusSubmitting

	// StatusSuccess shows the last result.
	StatusSuccess

	// StatusFailed shows the last error.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseStatus(str)
	return nil
}

// ParseStatus converts a string to Status. Unknown text is idle.
func ParseStatus(s string) Status {
	switch s {
	case "submitting", "pending":
		return StatusSubmitting
	case "success", "done":
		return StatusSuccess
	case "failed", "error":
		return StatusFailed
	default:
		return StatusIdle
	}
}

// IsTerminal returns true if the status ends a submission.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CanSubmit returns true if a submission may start from this status.
func (s Status) CanSubmit() bool {
	return s != StatusSubmitting
}

// ValidTransitions defines allowed state transitions. Clearing and arity
// changes reach idle from anywhere.
var ValidTransitions = map[Status][]Status{
	StatusIdle:       {StatusIdle, StatusSubmitting},
	StatusSubmitting: {StatusSuccess, StatusFailed, StatusIdle},
	StatusSuccess:    {StatusIdle, StatusSubmitting},
	StatusFailed:     {StatusIdle, StatusSubmitting},
}

// CanTransition returns true if the transition from -> to is valid.
func CanTransition(from, to Status) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError represents an invalid state transition.
type TransitionError struct {
	From Status
	To   Status
}

// Error implements error.
func (e TransitionError) Error() string {
	return fmt.Sprintf("invalid form transition: %s -> %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to Status) TransitionError {
	return TransitionError{From: from, To: to}
}
