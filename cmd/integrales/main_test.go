package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/integrales/internal/integral"
	"github.com/R3E-Network/integrales/pkg/testutil"
)

func TestSplitPair(t *testing.T) {
	tests := []struct {
		in           string
		lower, upper string
		wantErr      bool
	}{
		{"0,1", "0", "1", false},
		{" x , x+2 ", "x", "x+2", false},
		{"atan2(1,2),pi", "atan2(1,2)", "pi", false},
		{"", "", "", false},
		{"0", "", "", true},
		{"0,1,2", "", "", true},
	}

	for _, tc := range tests {
		lower, upper, err := splitPair(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("splitPair(%q) error = nil, want error", tc.in)
			}
			continue
		}
		if err != nil || lower != tc.lower || upper != tc.upper {
			t.Errorf("splitPair(%q) = %q, %q, %v; want %q, %q", tc.in, lower, upper, err, tc.lower, tc.upper)
		}
	}
}

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-tipo", "doble", "-expr", "x*y", "-x", "0,1", "-y", "x,x+2", "-z", "ignored,too"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, integral.Double, opts.arity)
	assert.Equal(t, "x*y", opts.expression)
	assert.Equal(t, []string{"0", "1", "x", "x+2"}, opts.bounds)

	opts, err = parseArgs([]string{"-ejemplo", "4"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, integral.Triple, opts.arity)
	assert.Len(t, opts.bounds, 6)

	_, err = parseArgs([]string{"-ejemplo", "9"}, io.Discard)
	assert.Error(t, err)

	_, err = parseArgs([]string{"-tipo", "cuadruple"}, io.Discard)
	assert.Error(t, err)

	_, err = parseArgs([]string{"-x", "0;1"}, io.Discard)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	svc := testutil.NewFakeService(http.StatusOK, `{"valor": 8.6666667, "grafica": "static\\simple.png", "expresion_latex": "\\int_0^2 x^2+3\\,dx"}`)
	defer svc.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-url", svc.URL, "-ejemplo", "1"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "Resultado: 8.6666667")
	assert.Contains(t, stdout.String(), "Gráfica: "+svc.URL+"/static/simple.png")
	assert.Contains(t, stdout.String(), "LaTeX: ")
	require.Len(t, svc.Calls(), 1)
	assert.Equal(t, "/simple", svc.Calls()[0].Path)
}

func TestRun_Errors(t *testing.T) {
	svc := testutil.NewFakeService(http.StatusBadRequest, `{"detail": "El límite inferior es mayor que el límite superior"}`)
	defer svc.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-url", svc.URL, "-expr", "x", "-x", "2,1"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Intercambia los límites")

	stderr.Reset()
	code = run(context.Background(), []string{"-url", svc.URL, "-expr", "sin x", "-x", "0,1"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "NO sin x")
	assert.Len(t, svc.Calls(), 1)
}

func TestRun_List(t *testing.T) {
	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-ejemplos"}, &stdout, io.Discard)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "5. [triple] exp(-x**2-y**2-z**2)")
}

func TestRun_InvalidURLOverride(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-url", "localhost:8000", "-expr", "x", "-x", "0,1"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "service.url must be an http(s) URL")
	assert.Empty(t, stdout.String())
}
