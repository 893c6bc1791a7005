package expr

import (
	"fmt"
	"strings"
)

// Policy decides how bare function application is treated before submission.
type Policy string

const (
	// PolicyReject refuses any expression whose raw text applies a function
	// without parentheses.
	PolicyReject Policy = "reject"

	// PolicyAutoCorrect lets Normalize wrap single-operand calls and refuses only
	// what remains ambiguous afterwards.
	PolicyAutoCorrect Policy = "autocorrect"
)

// ParsePolicy converts configuration text to a Policy. Empty text selects PolicyReject.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return PolicyReject, nil
	case "autocorrect", "auto-correct", "auto":
		return PolicyAutoCorrect, nil
	default:
		return "", fmt.Errorf("unknown function call policy %q", s)
	}
}

// Rejects reports whether raw must be refused under the policy.
func (p Policy) Rejects(raw string) bool {
	if p == PolicyAutoCorrect {
		return HasUnparenthesizedFunctionCall(Normalize(raw))
	}
	return HasUnparenthesizedFunctionCall(raw)
}

// String returns the policy name.
func (p Policy) String() string {
	if p == "" {
		return string(PolicyReject)
	}
	return string(p)
}
