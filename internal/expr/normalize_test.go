package expr

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2x", "2*x"},
		{"x2", "x*2"},
		{"a1b2", "a*1*b*2"},
		{"2.5x", "2.5*x"},
		{"sin(x)", "sin(x)"},
		{"sin (  x)", "sin(x)"},
		{"sin x", "sin(x)"},
		{"sin\tx", "sin(x)"},
		{"sqrt 2", "sqrt(2)"},
		{"exp x - 1", "exp(x) - 1"},
		{"sin x + cos y", "sin(x) + cos(y)"},
		{"log x, y", "log(x), y"},
		{"2sin x", "2*sin(x)"},
		{"sin(2x)", "sin(2*x)"},
		{"x^2", "x**2"},
		{"x ^ 2", "x**2"},
		{"e^x", "e**x"},
		{"(x+1)^2", "(x+1)**2"},
		{"2x^2 + 3x", "2*x**2 + 3*x"},
		{"  x  ", "x"},
		{"", ""},
		// multi-token arguments are left for the guard
		{"sin x*y", "sin x*y"},
		{"sin 2x", "sin 2*x"},
		{"sin x^2", "sin x**2"},
		{"sin cos x", "sin cos(x)"},
		// not in the recognized set
		{"asin x", "asin x"},
		{"sinh x", "sinh x"},
	}

	for _, tc := range tests {
		if got := Normalize(tc.input); got != tc.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"2x", "x2", "sin x", "sin(x)", "x^2", "x^^2", "sin sin sin x",
		"2 ^ 3x", "sin x)", "sin x ^2", "cos(  2y ) + tan z", "exp(-x^2-y^2-z^2)",
		"x*y*z", "sqrt 2x", "abs x + sec y - csc z * cot 3", "π x", "1e5",
		"sin x^ cos y", "((x))", "  ", "log10 x", "sin x = 2", "2(x+1)",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestHasUnparenthesizedFunctionCall(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"sin y", true},
		{"sin 2", true},
		{"sin x*y", true},
		{"1 + cos  x", true},
		{"sin(y)", false},
		{"sin (y)", false},
		{"asin y", false},
		{"sinh y", false},
		{"x*y", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := HasUnparenthesizedFunctionCall(tc.input); got != tc.expected {
			t.Errorf("HasUnparenthesizedFunctionCall(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestFunctions(t *testing.T) {
	names := Functions()
	if len(names) != 10 {
		t.Fatalf("len(Functions()) = %d, want 10", len(names))
	}
	for _, name := range names {
		if !IsFunction(name) {
			t.Errorf("IsFunction(%q) = false", name)
		}
	}
	if IsFunction("asin") {
		t.Error("asin should not be recognized")
	}

	names[0] = "mutated"
	if !strings.EqualFold(Functions()[0], "sin") {
		t.Error("Functions() must return a copy")
	}
}
