package integral

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/R3E-Network/integrales/internal/expr"
)

// BoundKind tags a Bound.
type BoundKind int

const (
	// BoundNumeric does not depend on any integration variable. Its text may
	// still be symbolic (pi, 2*pi, e).
	BoundNumeric BoundKind = iota

	// BoundFunctional is an expression over previously bound axes.
	BoundFunctional
)

// String returns the kind name.
func (k BoundKind) String() string {
	switch k {
	case BoundNumeric:
		return "numeric"
	case BoundFunctional:
		return "functional"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Bound is one endpoint of an integration interval.
type Bound struct {
	Kind BoundKind
	Text string // canonical text

	// Literal is set for numeric bounds whose text is a plain number; Value
	// then holds it and the bound is sent to the service as a JSON number.
	Literal bool
	Value   float64

	// Evaluated is set for symbolic numeric bounds (2*pi, sqrt(2)) whose value
	// was worked out locally. They are still sent as text.
	Evaluated bool

	// Refs lists the axes a functional bound depends on.
	Refs []string
}

// Numeric returns a literal numeric bound.
func Numeric(v float64) Bound {
	return Bound{
		Kind:    BoundNumeric,
		Text:    strconv.FormatFloat(v, 'g', -1, 64),
		Literal: true,
		Value:   v,
	}
}

// Symbolic returns a numeric bound written with named constants (pi, e).
func Symbolic(text string) Bound {
	return Bound{Kind: BoundNumeric, Text: expr.Normalize(text)}
}

// Functional returns a bound over earlier axes. Refs is derived from the text.
func Functional(text string) Bound {
	canonical := expr.Normalize(text)
	var refs []string
	for _, id := range identifiers(canonical) {
		if AxisIndex(id) >= 0 && !containsString(refs, id) {
			refs = append(refs, id)
		}
	}
	return Bound{Kind: BoundFunctional, Text: canonical, Refs: refs}
}

// MarshalJSON sends literal bounds as numbers and everything else as text.
func (b Bound) MarshalJSON() ([]byte, error) {
	if b.Kind == BoundNumeric && b.Literal {
		return json.Marshal(b.Value)
	}
	return json.Marshal(b.Text)
}

// String returns the canonical text.
func (b Bound) String() string {
	return b.Text
}

// Classify decides whether text, the bound of axis number axis, is numeric or
// a function of the earlier axes in known. Plain numbers, including
// exponent forms such as 1e-3, are kept as literals and never rewritten.
// A bound naming its own axis or a later one fails with ErrBoundOrder.
func Classify(text string, axis int, known []string) (Bound, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Bound{}, fmt.Errorf("%w: axis %d", ErrEmptyBound, axis)
	}
	if v, ok := parseLiteral(trimmed); ok {
		return Bound{Kind: BoundNumeric, Text: trimmed, Literal: true, Value: v}, nil
	}

	canonical := expr.Normalize(trimmed)
	var refs []string
	for _, id := range identifiers(canonical) {
		if idx := AxisIndex(id); idx >= axis && !containsString(known, id) {
			return Bound{}, fmt.Errorf("%w: %q on axis %s uses %s", ErrBoundOrder, trimmed, axisName(axis), id)
		}
		if containsString(known, id) && !containsString(refs, id) {
			refs = append(refs, id)
		}
	}
	if len(refs) > 0 {
		return Bound{Kind: BoundFunctional, Text: canonical, Refs: refs}, nil
	}

	b := Bound{Kind: BoundNumeric, Text: canonical}
	if v, ok := evaluateConstant(canonical); ok {
		b.Value = v
		b.Evaluated = true
	}
	return b, nil
}

func parseLiteral(text string) (float64, bool) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func axisName(axis int) string {
	if axis >= 0 && axis < len(axisNames) {
		return axisNames[axis]
	}
	return fmt.Sprintf("#%d", axis)
}

// ClassifyAll classifies the flat [x_inf, x_sup, y_inf, y_sup, z_inf, z_sup]
// sequence for the arity. Each axis sees only the axes before it.
func ClassifyAll(arity Arity, texts []string) ([]Bound, error) {
	if !arity.Valid() {
		return nil, ErrInvalidArity
	}
	if len(texts) != arity.BoundCount() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBoundCount, len(texts), arity.BoundCount())
	}

	axes := arity.Axes()
	out := make([]Bound, 0, len(texts))
	for i, text := range texts {
		axis := i / 2
		b, err := Classify(text, axis, axes[:axis])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// DegenerateAxis0 reports whether the outer bounds are the same non-empty text.
func DegenerateAxis0(lower, upper string) bool {
	l := strings.TrimSpace(lower)
	return l != "" && l == strings.TrimSpace(upper)
}

// SameValue reports whether two numeric bounds are known to be equal, for
// example "pi" and "3.141592653589793", or "1" and "1.0".
func SameValue(a, b Bound) bool {
	if a.Kind != BoundNumeric || b.Kind != BoundNumeric {
		return false
	}
	if !(a.Literal || a.Evaluated) || !(b.Literal || b.Evaluated) {
		return false
	}
	return math.Abs(a.Value-b.Value) <= 1e-12*math.Max(1, math.Max(math.Abs(a.Value), math.Abs(b.Value)))
}

var (
	identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

	constants = map[string]interface{}{"pi": math.Pi, "e": math.E}

	// Used to find variables and to evaluate constant bounds. The integral
	// itself is always left to the service.
	parseFunctions = func() map[string]govaluate.ExpressionFunction {
		unary := func(f func(float64) float64) govaluate.ExpressionFunction {
			return func(args ...interface{}) (interface{}, error) {
				if len(args) != 1 {
					return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
				}
				v, ok := args[0].(float64)
				if !ok {
					return nil, fmt.Errorf("non-numeric argument %v", args[0])
				}
				return f(v), nil
			}
		}
		return map[string]govaluate.ExpressionFunction{
			"sin":  unary(math.Sin),
			"cos":  unary(math.Cos),
			"tan":  unary(math.Tan),
			"log":  unary(math.Log),
			"exp":  unary(math.Exp),
			"sqrt": unary(math.Sqrt),
			"abs":  unary(math.Abs),
			"sec":  unary(func(x float64) float64 { return 1 / math.Cos(x) }),
			"csc":  unary(func(x float64) float64 { return 1 / math.Sin(x) }),
			"cot":  unary(func(x float64) float64 { return 1 / math.Tan(x) }),
		}
	}()
)

// identifiers lists the variable names in canonical. Function names are not
// variables. Text govaluate cannot parse (for example "2(x+1)" or "x y",
// which the service still reads as products) falls back to a lexical scan.
func identifiers(canonical string) []string {
	var out []string
	if parsed, err := govaluate.NewEvaluableExpressionWithFunctions(canonical, parseFunctions); err == nil {
		for _, tok := range parsed.Tokens() {
			if tok.Kind != govaluate.VARIABLE {
				continue
			}
			if name, ok := tok.Value.(string); ok {
				out = append(out, name)
			}
		}
		return out
	}

	for _, id := range identifierPattern.FindAllString(canonical, -1) {
		if !expr.IsFunction(id) {
			out = append(out, id)
		}
	}
	return out
}

// evaluateConstant computes a bound that uses only numbers, pi, e and the
// recognized functions.
func evaluateConstant(canonical string) (float64, bool) {
	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(canonical, parseFunctions)
	if err != nil {
		return 0, false
	}
	raw, err := parsed.Evaluate(constants)
	if err != nil {
		return 0, false
	}
	v, ok := raw.(float64)
	if !ok || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
