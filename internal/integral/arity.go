// Package integral adapts user-level integral requests to the evaluation
// service's wire format and interprets what the service sends back.
package integral

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Arity is the number of integration variables.
type Arity int

const (
	// ArityUnknown is the zero value and never valid in a request.
	ArityUnknown Arity = iota

	// Single integrates over x.
	Single

	// Double integrates over x then y.
	Double

	// Triple integrates over x, y then z.
	Triple
)

var axisNames = []string{"x", "y", "z"}

// String returns the service's name for the arity.
func (a Arity) String() string {
	switch a {
	case Single:
		return "simple"
	case Double:
		return "doble"
	case Triple:
		return "triple"
	default:
		return fmt.Sprintf("arity(%d)", int(a))
	}
}

// Valid reports whether a is one of Single, Double or Triple.
func (a Arity) Valid() bool {
	return a >= Single && a <= Triple
}

// Axes returns the axis names integrated over, in order.
func (a Arity) Axes() []string {
	if !a.Valid() {
		return nil
	}
	out := make([]string, int(a))
	copy(out, axisNames[:int(a)])
	return out
}

// BoundCount is the number of bound fields the arity needs (two per axis).
func (a Arity) BoundCount() int {
	if !a.Valid() {
		return 0
	}
	return 2 * int(a)
}

// Endpoint is the service path that evaluates integrals of this arity.
func (a Arity) Endpoint() string {
	if !a.Valid() {
		return ""
	}
	return "/" + a.String()
}

// MarshalJSON implements json.Marshaler.
func (a Arity) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Arity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var n int
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return err
		}
		str = fmt.Sprint(n)
	}
	parsed, err := ParseArity(str)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseArity converts text to an Arity. It accepts the service names
// (simple, doble, triple), their English forms and the variable count.
func ParseArity(s string) (Arity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple", "single", "1":
		return Single, nil
	case "doble", "double", "2":
		return Double, nil
	case "triple", "3":
		return Triple, nil
	default:
		return ArityUnknown, fmt.Errorf("%w: %q", ErrInvalidArity, s)
	}
}

// AxisIndex returns the position of an axis name, or -1.
func AxisIndex(name string) int {
	for i, axis := range axisNames {
		if axis == name {
			return i
		}
	}
	return -1
}
