package integral

// Example is a ready-made integral users can start from.
type Example struct {
	Arity       Arity    `json:"arity"`
	Expression  string   `json:"expression"`
	Bounds      []string `json:"bounds"` // flat x_inf, x_sup, y_inf, ...
	Description string   `json:"description"`
}

var examples = []Example{
	{Single, "x**2 + 3", []string{"0", "2"}, "Integral de x²+3 de 0 a 2"},
	{Double, "x*y", []string{"0", "1", "x", "x+2"}, "Doble integral con límites funcionales en y"},
	{Double, "sin(x) + cos(y)", []string{"0", "1", "0", "3"}, "Funciones trigonométricas"},
	{Triple, "x*y*z", []string{"0", "1", "x", "x+1", "x+y", "x+y+1"}, "Triple integral con límites dependientes"},
	{Triple, "exp(-x**2-y**2-z**2)", []string{"0", "1", "0", "1", "0", "1"}, "Exponenciales en triple integral"},
}

// Examples returns a copy of the example catalogue.
func Examples() []Example {
	out := make([]Example, len(examples))
	for i, ex := range examples {
		ex.Bounds = append([]string(nil), ex.Bounds...)
		out[i] = ex
	}
	return out
}

// Request classifies and builds the example.
func (e Example) Request() (Request, error) {
	bounds, err := ClassifyAll(e.Arity, e.Bounds)
	if err != nil {
		return Request{}, err
	}
	return Build(e.Arity, e.Expression, bounds)
}
