package integral

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Request building errors.
var (
	ErrInvalidArity = errors.New("invalid arity")
	ErrEmptyBound   = errors.New("empty bound")
	ErrBoundCount   = errors.New("wrong number of bounds for arity")
	ErrBoundOrder   = errors.New("bound references an axis that is not yet bound")
)

// TransportFailureMessage is shown when the service gave no usable message.
const TransportFailureMessage = "Error inesperado. Intenta nuevamente."

// Category classifies a failure for the user.
type Category int

const (
	Unclassified Category = iota
	DiscontinuityWarning
	BoundsInverted
	DegenerateBounds
	SyntaxError
	PlottingFailure
	NonNumericBound
	InfiniteOrUndefinedResult
	DisallowedVariable

	// Raised only by local checks, never matched from service text.
	MissingInput
	UnparenthesizedFunction
	BoundOrder
)

var categoryNames = map[Category]string{
	Unclassified:              "unclassified",
	DiscontinuityWarning:      "discontinuity_warning",
	BoundsInverted:            "bounds_inverted",
	DegenerateBounds:          "degenerate_bounds",
	SyntaxError:               "syntax_error",
	PlottingFailure:           "plotting_failure",
	NonNumericBound:           "non_numeric_bound",
	InfiniteOrUndefinedResult: "infinite_or_undefined_result",
	DisallowedVariable:        "disallowed_variable",
	MissingInput:              "missing_input",
	UnparenthesizedFunction:   "unparenthesized_function",
	BoundOrder:                "bound_order",
}

// String returns the snake-case category name.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory converts a snake-case name back to a Category.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return Unclassified, fmt.Errorf("unknown category %q", s)
}

// MarshalJSON implements json.Marshaler.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// IsWarning reports whether a failure of this category still lets a value be shown.
func (c Category) IsWarning() bool {
	return c == DiscontinuityWarning || c == PlottingFailure
}

// Fixed user messages. DisallowedVariable and Unclassified keep the service text.
var categoryMessages = map[Category]string{
	DiscontinuityWarning:      "La función tiene discontinuidades en el intervalo. El resultado puede estar indefinido o no ser correcto.",
	BoundsInverted:            "El límite inferior es mayor que el superior. Intercambia los límites.",
	DegenerateBounds:          "Los límites de integración son iguales. Usa un intervalo con extremos distintos.",
	SyntaxError:               "Error en la expresión. Revisa los paréntesis y la sintaxis.",
	PlottingFailure:           "No se pudo generar la gráfica para esta función.",
	NonNumericBound:           "No se pudo convertir un límite a número. Usa números, pi o e, o una función de las variables anteriores.",
	InfiniteOrUndefinedResult: "El resultado de la integral es infinito o indefinido. Cambia los límites o la función.",
	MissingInput:              "Completa la expresión y todos los límites requeridos.",
	UnparenthesizedFunction:   "Recuerda: las funciones deben llevar paréntesis, por ejemplo sin(x) y NO sin x.",
	BoundOrder:                "Los límites de x deben ser números; los de y pueden usar x y los de z pueden usar x e y.",
}

// AppError is the single user-facing failure of a submission.
type AppError struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError returns an AppError carrying the category's fixed message.
func NewAppError(c Category) *AppError {
	msg, ok := categoryMessages[c]
	if !ok {
		msg = TransportFailureMessage
	}
	return &AppError{Category: c, Message: msg}
}

// TransportFailure is the error for unreachable services and unreadable replies.
func TransportFailure() *AppError {
	return &AppError{Category: Unclassified, Message: TransportFailureMessage}
}

type errorPattern struct {
	category Category
	needles  []string
	fold     bool
}

// Checked in order; the first match wins.
var errorPatterns = []errorPattern{
	{DiscontinuityWarning, []string{"discontinu"}, true},
	{BoundsInverted, []string{"mayor que el límite superior", "mayor que el superior"}, false},
	{DegenerateBounds, []string{"son iguales"}, false},
	{SyntaxError, []string{"Error en la expresión"}, false},
	{PlottingFailure, []string{"No se pudo graficar", "No se pudo generar la gráfica"}, false},
	{NonNumericBound, []string{"No se pudo convertir"}, false},
	{InfiniteOrUndefinedResult, []string{"infinit", "indefinid", "undefined"}, true},
	{DisallowedVariable, []string{"Variables no permitidas"}, false},
}

// ClassifyError maps a raw service message to an AppError.
func ClassifyError(raw string) *AppError {
	msg := strings.TrimSpace(raw)
	if msg == "" {
		return TransportFailure()
	}

	lower := strings.ToLower(msg)
	for _, p := range errorPatterns {
		haystack := msg
		if p.fold {
			haystack = lower
		}
		for _, needle := range p.needles {
			if strings.Contains(haystack, needle) {
				if p.category == DisallowedVariable {
					return &AppError{Category: p.category, Message: msg}
				}
				return NewAppError(p.category)
			}
		}
	}
	return &AppError{Category: Unclassified, Message: msg}
}

// AsAppError extracts an AppError from err, wrapping anything else as a
// transport failure.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return TransportFailure()
}
