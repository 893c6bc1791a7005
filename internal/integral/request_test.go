package integral

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Double(t *testing.T) {
	req, err := Build(Double, "x*y", []Bound{Numeric(0), Numeric(1), Functional("x"), Functional("x+2")})
	require.NoError(t, err)
	assert.Equal(t, "/doble", req.Endpoint())
	require.Len(t, req.Bounds, 2)
	assert.Equal(t, "x", req.Bounds[0].Axis)
	assert.Equal(t, "y", req.Bounds[1].Axis)

	body, err := req.WireBody()
	require.NoError(t, err)
	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expresion":"x*y","x_inf":0,"x_sup":1,"y_inf":"x","y_sup":"x+2"}`, string(data))

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 5)
}

func TestBuild_Single(t *testing.T) {
	req, err := Build(Single, " x**2 + 3 ", []Bound{Numeric(0), Symbolic("pi")})
	require.NoError(t, err)
	assert.Equal(t, "/simple", req.Endpoint())

	body, err := req.WireBody()
	require.NoError(t, err)
	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expresion":"x**2 + 3","limite_inf":0,"limite_sup":"pi"}`, string(data))
}

func TestBuild_Triple(t *testing.T) {
	bounds, err := ClassifyAll(Triple, []string{"0", "1", "x", "x+1", "x+y", "x+y+1"})
	require.NoError(t, err)
	req, err := Build(Triple, "x*y*z", bounds)
	require.NoError(t, err)

	body, err := req.WireBody()
	require.NoError(t, err)
	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expresion":"x*y*z","x_inf":0,"x_sup":1,"y_inf":"x","y_sup":"x+1","z_inf":"x+y","z_sup":"x+y+1"}`, string(data))
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		arity  Arity
		bounds []Bound
		want   error
	}{
		{"invalid arity", ArityUnknown, nil, ErrInvalidArity},
		{"too few bounds", Double, []Bound{Numeric(0), Numeric(1)}, ErrBoundCount},
		{"functional on x", Single, []Bound{Functional("y"), Numeric(1)}, ErrBoundOrder},
		{"self reference", Double, []Bound{Numeric(0), Numeric(1), Functional("y"), Numeric(2)}, ErrBoundOrder},
		{"forward reference", Triple, []Bound{Numeric(0), Numeric(1), Functional("z"), Numeric(1), Numeric(0), Numeric(1)}, ErrBoundOrder},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.arity, "x", tc.bounds)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestRequest_WireBodyMismatch(t *testing.T) {
	_, err := Request{Arity: Double, Expression: "x"}.WireBody()
	assert.True(t, errors.Is(err, ErrBoundCount))
}

func TestExamples(t *testing.T) {
	examples := Examples()
	require.Len(t, examples, 5)

	for _, ex := range examples {
		req, err := ex.Request()
		require.NoError(t, err, ex.Description)
		assert.Equal(t, ex.Arity, req.Arity)
	}

	examples[0].Bounds[0] = "99"
	assert.Equal(t, "0", Examples()[0].Bounds[0])
}
