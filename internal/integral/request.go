package integral

import (
	"fmt"
	"strings"
)

// BoundPair holds the interval of one axis.
type BoundPair struct {
	Axis  string `json:"axis"`
	Lower Bound  `json:"lower"`
	Upper Bound  `json:"upper"`
}

// Request is a validated integral ready to send.
type Request struct {
	Arity      Arity       `json:"arity"`
	Expression string      `json:"expression"`
	Bounds     []BoundPair `json:"bounds"`
}

// Build assembles a Request from a canonical expression and the flat bound
// sequence [x_inf, x_sup, y_inf, y_sup, z_inf, z_sup] truncated to the arity.
func Build(arity Arity, canonical string, bounds []Bound) (Request, error) {
	if !arity.Valid() {
		return Request{}, fmt.Errorf("%w: %d", ErrInvalidArity, int(arity))
	}
	if len(bounds) != arity.BoundCount() {
		return Request{}, fmt.Errorf("%w: got %d, want %d", ErrBoundCount, len(bounds), arity.BoundCount())
	}

	axes := arity.Axes()
	pairs := make([]BoundPair, len(axes))
	for i, axis := range axes {
		lower, upper := bounds[2*i], bounds[2*i+1]
		for _, b := range []Bound{lower, upper} {
			if err := checkOrder(b, i); err != nil {
				return Request{}, err
			}
		}
		pairs[i] = BoundPair{Axis: axis, Lower: lower, Upper: upper}
	}

	return Request{
		Arity:      arity,
		Expression: strings.TrimSpace(canonical),
		Bounds:     pairs,
	}, nil
}

func checkOrder(b Bound, axis int) error {
	if b.Kind != BoundFunctional {
		return nil
	}
	if axis == 0 {
		return fmt.Errorf("%w: %q on axis x", ErrBoundOrder, b.Text)
	}
	for _, ref := range b.Refs {
		if idx := AxisIndex(ref); idx < 0 || idx >= axis {
			return fmt.Errorf("%w: %q on axis %s references %s", ErrBoundOrder, b.Text, axisNames[axis], ref)
		}
	}
	return nil
}

// Endpoint returns the service path for the request.
func (r Request) Endpoint() string {
	return r.Arity.Endpoint()
}

// SimpleBody is the wire body of /simple.
type SimpleBody struct {
	Expresion string `json:"expresion"`
	LimiteInf Bound  `json:"limite_inf"`
	LimiteSup Bound  `json:"limite_sup"`
}

// DoubleBody is the wire body of /doble.
type DoubleBody struct {
	Expresion string `json:"expresion"`
	XInf      Bound  `json:"x_inf"`
	XSup      Bound  `json:"x_sup"`
	YInf      Bound  `json:"y_inf"`
	YSup      Bound  `json:"y_sup"`
}

// TripleBody is the wire body of /triple.
type TripleBody struct {
	Expresion string `json:"expresion"`
	XInf      Bound  `json:"x_inf"`
	XSup      Bound  `json:"x_sup"`
	YInf      Bound  `json:"y_inf"`
	YSup      Bound  `json:"y_sup"`
	ZInf      Bound  `json:"z_inf"`
	ZSup      Bound  `json:"z_sup"`
}

// WireBody returns the arity-specific body to POST to Endpoint.
func (r Request) WireBody() (interface{}, error) {
	if len(r.Bounds) != int(r.Arity) || !r.Arity.Valid() {
		return nil, fmt.Errorf("%w: %d axes for %s", ErrBoundCount, len(r.Bounds), r.Arity)
	}
	b := r.Bounds
	switch r.Arity {
	case Single:
		return SimpleBody{Expresion: r.Expression, LimiteInf: b[0].Lower, LimiteSup: b[0].Upper}, nil
	case Double:
		return DoubleBody{
			Expresion: r.Expression,
			XInf:      b[0].Lower,
			XSup:      b[0].Upper,
			YInf:      b[1].Lower,
			YSup:      b[1].Upper,
		}, nil
	default:
		return TripleBody{
			Expresion: r.Expression,
			XInf:      b[0].Lower,
			XSup:      b[0].Upper,
			YInf:      b[1].Lower,
			YSup:      b[1].Upper,
			ZInf:      b[2].Lower,
			ZSup:      b[2].Upper,
		}, nil
	}
}
