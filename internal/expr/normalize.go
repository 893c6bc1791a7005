// Package expr rewrites loosely written mathematical notation into the strict
// expression grammar accepted by the evaluation service.
//
// Normalize applies, in order:
//
//  1. implicit multiplication between digits and letters (2x -> 2*x, x2 -> x*2)
//  2. whitespace normalization of parenthesized calls (sin (x) -> sin(x))
//  3. bare function application (sin x -> sin(x))
//  4. caret exponent (x^2 -> x**2)
//
// The rewrite is total and idempotent. Malformed input is passed through and left
// for the evaluation service to reject.
package expr

import (
	"regexp"
	"strings"
)

// functions is the recognized function set, in the order the service documents it.
var functions = []string{"sin", "cos", "tan", "log", "exp", "sqrt", "abs", "sec", "csc", "cot"}

var (
	functionSet = func() map[string]struct{} {
		set := make(map[string]struct{}, len(functions))
		for _, name := range functions {
			set[name] = struct{}{}
		}
		return set
	}()

	functionAlternation = strings.Join(functions, "|")

	parenCallPattern = regexp.MustCompile(`\b(` + functionAlternation + `)\s*\(\s*`)
	bareCallPattern  = regexp.MustCompile(`\b(` + functionAlternation + `)\s+[A-Za-z0-9_]`)
	caretPattern     = regexp.MustCompile(`\s*\^\s*`)
)

// Functions returns the recognized function names.
func Functions() []string {
	out := make([]string, len(functions))
	copy(out, functions)
	return out
}

// IsFunction reports whether name is a recognized function.
func IsFunction(name string) bool {
	_, ok := functionSet[name]
	return ok
}

// Normalize returns the canonical form of raw.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = insertImplicitMultiplication(s)
	s = parenCallPattern.ReplaceAllString(s, "$1(")
	s = wrapBareCalls(s)
	s = caretPattern.ReplaceAllString(s, "**")
	return s
}

// HasUnparenthesizedFunctionCall reports whether text still applies a recognized
// function to an operand without parentheses (for example "sin y" or "sin x*y").
func HasUnparenthesizedFunctionCall(text string) bool {
	return bareCallPattern.MatchString(text)
}

func insertImplicitMultiplication(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		b.WriteByte(c)
		if i+1 >= len(s) {
			break
		}
		next := s[i+1]
		if (isDigit(c) && isLetter(next)) || (isLetter(c) && isDigit(next)) {
			b.WriteByte('*')
		}
	}
	return b.String()
}

// wrapBareCalls rewrites "name arg" into "name(arg)" when arg is a single
// identifier or number that forms a complete operand.
func wrapBareCalls(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	i := 0
	for i < len(s) {
		c := s[i]
		if !isIdentStart(c) || (i > 0 && isIdentChar(s[i-1])) {
			b.WriteByte(c)
			i++
			continue
		}

		j := i
		for j < len(s) && isIdentChar(s[j]) {
			j++
		}
		name := s[i:j]
		if IsFunction(name) {
			if arg, end, ok := bareArgument(s, j); ok {
				b.WriteString(name)
				b.WriteByte('(')
				b.WriteString(arg)
				b.WriteByte(')')
				i = end
				continue
			}
		}
		b.WriteString(name)
		i = j
	}
	return b.String()
}

// bareArgument scans the operand following a function name that ends at pos.
func bareArgument(s string, pos int) (string, int, bool) {
	k := pos
	for k < len(s) && isSpace(s[k]) {
		k++
	}
	if k == pos || k >= len(s) {
		return "", 0, false
	}

	start := k
	switch {
	case isIdentStart(s[k]):
		for k < len(s) && isIdentChar(s[k]) {
			k++
		}
		if IsFunction(s[start:k]) {
			return "", 0, false
		}
	case isDigit(s[k]):
		for k < len(s) && (isDigit(s[k]) || s[k] == '.') {
			k++
		}
	default:
		return "", 0, false
	}

	m := k
	for m < len(s) && isSpace(s[m]) {
		m++
	}
	if m < len(s) && !strings.ContainsRune("+-),=", rune(s[m])) {
		return "", 0, false
	}
	return s[start:k], k, true
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isLetter(c byte) bool     { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentStart(c byte) bool { return isLetter(c) || c == '_' }
func isIdentChar(c byte) bool  { return isIdentStart(c) || isDigit(c) }
func isSpace(c byte) bool      { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
