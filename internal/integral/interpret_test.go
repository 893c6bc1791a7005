package integral

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret_ValuePrecedence(t *testing.T) {
	in := NewInterpreter("http://host:8000")

	tests := []struct {
		name  string
		body  string
		value *float64
	}{
		{"valor wins", `{"resultado": 1, "valor": 2}`, floatPtr(2)},
		{"resultado only", `{"resultado": 0.333}`, floatPtr(0.333)},
		{"zero is a value", `{"resultado": 0}`, floatPtr(0)},
		{"null valor falls back", `{"valor": null, "resultado": 4}`, floatPtr(4)},
		{"null is absent", `{"resultado": null}`, nil},
		{"missing", `{}`, nil},
		{"string is not a number", `{"resultado": "1"}`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, appErr := in.Interpret(http.StatusOK, []byte(tc.body))
			require.Nil(t, appErr)
			assert.Equal(t, tc.value, res.Value)
		})
	}
}

func TestInterpret_PlotURL(t *testing.T) {
	tests := []struct {
		base     string
		grafica  string
		expected string
	}{
		{"http://host:8000", `"out/plot.png"`, "http://host:8000/out/plot.png"},
		{"http://host:8000/", `"/out/plot.png"`, "http://host:8000/out/plot.png"},
		{"http://host:8000", `"static\\plots\\p.png"`, "http://host:8000/static/plots/p.png"},
		{"http://host:8000", `"http://cdn/x.png"`, "http://cdn/x.png"},
		{"http://host:8000", `"https://cdn/x.png"`, "https://cdn/x.png"},
		{"http://host:8000", `"HTTPS://cdn/x.png"`, "HTTPS://cdn/x.png"},
		{"http://host:8000", `"//cdn.example.com/x.png"`, "//cdn.example.com/x.png"},
		{"https://host", `" //cdn/plots/p.png "`, "//cdn/plots/p.png"},
	}

	for _, tc := range tests {
		in := NewInterpreter(tc.base)
		res, appErr := in.Interpret(http.StatusOK, []byte(`{"resultado": 1, "grafica": `+tc.grafica+`}`))
		require.Nil(t, appErr)
		require.NotNil(t, res.Plot, tc.grafica)
		assert.Equal(t, PlotImage, res.Plot.Kind)
		assert.Equal(t, tc.expected, res.Plot.URL)
	}
}

func TestInterpret_NoPlot(t *testing.T) {
	in := NewInterpreter("")
	for _, body := range []string{
		`{"valor": 1, "grafica": ""}`,
		`{"valor": 1, "grafica": {"layout": {}}}`,
		`{"valor": 1, "grafica": 3}`,
		`{"valor": 1}`,
	} {
		res, appErr := in.Interpret(http.StatusOK, []byte(body))
		require.Nil(t, appErr)
		assert.Nil(t, res.Plot, body)
	}
}

func TestInterpret_InteractivePlot(t *testing.T) {
	in := NewInterpreter("http://host:8000")
	body := `{"resultado": 2, "grafica": {"data": [{"x": [1, 2], "type": "surface"}], "layout": {"width": 800, "height": 600, "title": "f"}}}`

	res, appErr := in.Interpret(http.StatusOK, []byte(body))
	require.Nil(t, appErr)
	require.NotNil(t, res.Plot)
	assert.Equal(t, PlotInteractive, res.Plot.Kind)
	assert.Empty(t, res.Plot.URL)
	assert.JSONEq(t, `[{"x": [1, 2], "type": "surface"}]`, string(res.Plot.Data))
	assert.JSONEq(t, `{"title":"f","autosize":true,"margin":{"l":50,"r":20,"t":40,"b":50}}`, string(res.Plot.Layout))
	assert.JSONEq(t, `{"responsive":true}`, string(res.Plot.Config))
}

func TestInterpret_InteractivePlotWithoutLayout(t *testing.T) {
	res, appErr := NewInterpreter("").Interpret(http.StatusOK, []byte(`{"grafica": {"data": []}}`))
	require.Nil(t, appErr)
	require.NotNil(t, res.Plot)
	assert.JSONEq(t, `{"autosize":true,"margin":{"l":50,"r":20,"t":40,"b":50}}`, string(res.Plot.Layout))
	assert.Nil(t, res.Value)
}

func TestInterpret_Latex(t *testing.T) {
	res, appErr := NewInterpreter("").Interpret(http.StatusOK, []byte(`{"resultado": 1, "expresion_latex": "x^{2}"}`))
	require.Nil(t, appErr)
	assert.Equal(t, "x^{2}", res.Latex)
}

func TestInterpret_Failures(t *testing.T) {
	in := NewInterpreter("")

	tests := []struct {
		name     string
		status   int
		body     string
		category Category
		message  string
	}{
		{"detail string", 400, `{"detail": "Error en la expresión matemática: bad"}`, SyntaxError, categoryMessages[SyntaxError]},
		{"detail list", 422, `{"detail": [{"msg": "field required"}, {"msg": "value is not a valid float"}]}`, Unclassified, "field required; value is not a valid float"},
		{"error field", 500, `{"error": "boom"}`, Unclassified, "boom"},
		{"detail before error", 400, `{"detail": "Los límites son iguales", "error": "boom"}`, DegenerateBounds, categoryMessages[DegenerateBounds]},
		{"no message", 502, `{}`, Unclassified, TransportFailureMessage},
		{"html", 502, `<html>Bad Gateway</html>`, Unclassified, TransportFailureMessage},
		{"disallowed verbatim", 400, `{"detail": "Variables no permitidas: w"}`, DisallowedVariable, "Variables no permitidas: w"},
		{"in-band error", 200, `{"error": "El resultado de la integral es infinito o indefinido. Cambia los límites o la función."}`, InfiniteOrUndefinedResult, categoryMessages[InfiniteOrUndefinedResult]},
		{"in-band warning without value", 200, `{"error": "discontinuidad en x=0"}`, DiscontinuityWarning, categoryMessages[DiscontinuityWarning]},
		{"invalid json", 200, `{"resultado": `, Unclassified, TransportFailureMessage},
		{"not an object", 200, `[1, 2]`, Unclassified, TransportFailureMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, appErr := in.Interpret(tc.status, []byte(tc.body))
			require.NotNil(t, appErr)
			assert.Equal(t, tc.category, appErr.Category)
			assert.Equal(t, tc.message, appErr.Message)
			assert.Nil(t, res.Value)
			assert.Nil(t, res.Plot)
		})
	}
}

func TestInterpret_WarningKeepsValue(t *testing.T) {
	body := `{"valor": 1.5, "grafica": "", "error": "No se pudo graficar la función"}`
	res, appErr := NewInterpreter("").Interpret(http.StatusOK, []byte(body))
	require.Nil(t, appErr)
	require.NotNil(t, res.Value)
	assert.Equal(t, 1.5, *res.Value)
	require.NotNil(t, res.Warning)
	assert.Equal(t, PlottingFailure, res.Warning.Category)
}

func TestInterpret_EmptyErrorIgnored(t *testing.T) {
	res, appErr := NewInterpreter("").Interpret(http.StatusOK, []byte(`{"valor": 3, "error": ""}`))
	require.Nil(t, appErr)
	assert.Equal(t, floatPtr(3), res.Value)
}

func floatPtr(v float64) *float64 {
	return &v
}
