package integral

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyErrorMessage(t *testing.T) {
	tests := []struct {
		raw      string
		category Category
	}{
		{"La función tiene discontinuidades en el intervalo", DiscontinuityWarning},
		{"Possible DISCONTINUITY detected", DiscontinuityWarning},
		{"El límite inferior no puede ser mayor que el límite superior", BoundsInverted},
		{"x_inf es mayor que el superior", BoundsInverted},
		{"Los límites son iguales", DegenerateBounds},
		{"Error en la expresión ingresada", SyntaxError},
		{"Error en la expresión matemática: unexpected EOF", SyntaxError},
		{"No se pudo graficar la función", PlottingFailure},
		{"No se pudo generar la gráfica", PlottingFailure},
		{"No se pudo convertir 'abc' a número", NonNumericBound},
		{"El resultado de la integral es infinito o indefinido. Cambia los límites o la función.", InfiniteOrUndefinedResult},
		{"Result is UNDEFINED", InfiniteOrUndefinedResult},
		{"Variables no permitidas: w", DisallowedVariable},
		{"variables no permitidas: w", Unclassified},
		{"boom", Unclassified},
	}

	for _, tc := range tests {
		got := ClassifyError(tc.raw)
		if got.Category != tc.category {
			t.Errorf("ClassifyError(%q) = %v, want %v", tc.raw, got.Category, tc.category)
		}
	}
}

func TestClassifyErrorMessage_Messages(t *testing.T) {
	assert.Equal(t, "boom", ClassifyError("boom").Message)
	assert.Equal(t, "Variables no permitidas: w", ClassifyError(" Variables no permitidas: w ").Message)
	assert.Equal(t, categoryMessages[SyntaxError], ClassifyError("Error en la expresión ingresada").Message)
	assert.Equal(t, TransportFailureMessage, ClassifyError("  ").Message)
	assert.Equal(t, Unclassified, ClassifyError("").Category)
}

func TestClassifyErrorMessage_Order(t *testing.T) {
	// both patterns match; the discontinuity check comes first
	got := ClassifyError("No se pudo graficar: discontinuidad en x=0")
	assert.Equal(t, DiscontinuityWarning, got.Category)
}

func TestCategory_JSON(t *testing.T) {
	for c := range categoryNames {
		data, err := json.Marshal(c)
		require.NoError(t, err)

		var back Category
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, c, back)
	}

	var c Category
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &c))
}

func TestCategory_IsWarning(t *testing.T) {
	assert.True(t, DiscontinuityWarning.IsWarning())
	assert.True(t, PlottingFailure.IsWarning())
	assert.False(t, SyntaxError.IsWarning())
	assert.False(t, Unclassified.IsWarning())
}

func TestAsAppError(t *testing.T) {
	assert.Nil(t, AsAppError(nil))

	wrapped := fmt.Errorf("evaluate: %w", NewAppError(BoundsInverted))
	assert.Equal(t, BoundsInverted, AsAppError(wrapped).Category)

	other := AsAppError(fmt.Errorf("dial tcp: connection refused"))
	assert.Equal(t, Unclassified, other.Category)
	assert.Equal(t, TransportFailureMessage, other.Message)
	assert.Equal(t, TransportFailureMessage, other.Error())
}

func TestNewAppError_BoundOrder(t *testing.T) {
	err := NewAppError(BoundOrder)
	assert.Equal(t, "bound_order", err.Category.String())
	assert.Contains(t, err.Message, "los de z pueden usar x e y")
	assert.False(t, err.Category.IsWarning())
}
