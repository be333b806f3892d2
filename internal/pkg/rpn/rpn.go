// Package rpn evaluates the reverse polish expressions rrdtool uses for
// computed series, e.g. "zx,10000,+,100,/".
package rpn

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrEmpty          = errors.New("empty expression")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrUnknownToken   = errors.New("unknown token")
	ErrUnbalanced     = errors.New("expression does not reduce to a single value")
	ErrUnknownVar     = errors.New("unknown variable")
)

type kind int

const (
	kindNumber kind = iota
	kindVar
	kindOp
)

type token struct {
	kind  kind
	num   float64
	name  string
	arity int
	apply func(args []float64) []float64
}

// Program is a compiled expression. It is safe for concurrent use.
type Program struct {
	expr   string
	tokens []token
}

func (p *Program) String() string {
	return p.expr
}

// Vars returns the variable names the expression reads, in first-use order.
func (p *Program) Vars() []string {
	names := lo.FilterMap(p.tokens, func(t token, _ int) (string, bool) {
		return t.name, t.kind == kindVar
	})
	return lo.Uniq(names)
}

func binary(f func(a, b float64) float64) func([]float64) []float64 {
	return func(args []float64) []float64 {
		return []float64{f(args[0], args[1])}
	}
}

// Arithmetic on NaN already yields NaN, which is rrdtool's UNKN behaviour.
// Division follows IEEE 754 like rrdtool: x/0 is ±INF and 0/0 is UNKN.
var operators = map[string]token{
	"+": {arity: 2, apply: binary(func(a, b float64) float64 { return a + b })},
	"-": {arity: 2, apply: binary(func(a, b float64) float64 { return a - b })},
	"*": {arity: 2, apply: binary(func(a, b float64) float64 { return a * b })},
	"/": {arity: 2, apply: binary(func(a, b float64) float64 { return a / b })},
	"MIN": {arity: 2, apply: binary(func(a, b float64) float64 {
		if math.IsNaN(a) || math.IsNaN(b) {
			return math.NaN()
		}
		return math.Min(a, b)
	})},
	"MAX": {arity: 2, apply: binary(func(a, b float64) float64 {
		if math.IsNaN(a) || math.IsNaN(b) {
			return math.NaN()
		}
		return math.Max(a, b)
	})},
	// ADDNAN treats a single unknown operand as zero.
	"ADDNAN": {arity: 2, apply: binary(func(a, b float64) float64 {
		switch {
		case math.IsNaN(a):
			return b
		case math.IsNaN(b):
			return a
		}
		return a + b
	})},
	"UN": {arity: 1, apply: func(args []float64) []float64 {
		if math.IsNaN(args[0]) {
			return []float64{1}
		}
		return []float64{0}
	}},
	"DUP": {arity: 1, apply: func(args []float64) []float64 { return []float64{args[0], args[0]} }},
	"POP": {arity: 1, apply: func(args []float64) []float64 { return nil }},
	"EXC": {arity: 2, apply: func(args []float64) []float64 { return []float64{args[1], args[0]} }},
}

func isName(s string) bool {
	if s == "" || len(s) > 255 {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '-':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Compile parses a comma separated expression and checks that it reduces
// to exactly one value.
func Compile(expr string) (*Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmpty
	}
	parts := strings.Split(expr, ",")
	tokens := make([]token, 0, len(parts))
	depth := 0
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if op, ok := operators[strings.ToUpper(part)]; ok {
			if depth < op.arity {
				return nil, fmt.Errorf("%w: %q at position %d", ErrStackUnderflow, part, i)
			}
			op.kind = kindOp
			op.name = strings.ToUpper(part)
			tokens = append(tokens, op)
			depth += probe(op)
			continue
		}
		switch strings.ToUpper(part) {
		case "UNKN":
			tokens = append(tokens, token{kind: kindNumber, num: math.NaN()})
			depth++
			continue
		case "INF":
			tokens = append(tokens, token{kind: kindNumber, num: math.Inf(1)})
			depth++
			continue
		case "NEGINF":
			tokens = append(tokens, token{kind: kindNumber, num: math.Inf(-1)})
			depth++
			continue
		}
		if n, err := strconv.ParseFloat(part, 64); err == nil {
			tokens = append(tokens, token{kind: kindNumber, num: n})
			depth++
			continue
		}
		if isName(part) {
			tokens = append(tokens, token{kind: kindVar, name: part})
			depth++
			continue
		}
		return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownToken, part, i)
	}
	if depth != 1 {
		return nil, fmt.Errorf("%w: %q leaves %d values", ErrUnbalanced, expr, depth)
	}
	return &Program{expr: expr, tokens: tokens}, nil
}

// probe returns the net stack change of an operator.
func probe(op token) int {
	return len(op.apply(make([]float64, op.arity))) - op.arity
}

// Eval runs the program. lookup resolves variable names; it reports false
// for names it does not know.
func (p *Program) Eval(lookup func(name string) (float64, bool)) (float64, error) {
	stack := make([]float64, 0, len(p.tokens))
	for _, t := range p.tokens {
		switch t.kind {
		case kindNumber:
			stack = append(stack, t.num)
		case kindVar:
			v, ok := lookup(t.name)
			if !ok {
				return math.NaN(), fmt.Errorf("%w: %s", ErrUnknownVar, t.name)
			}
			stack = append(stack, v)
		case kindOp:
			if len(stack) < t.arity {
				return math.NaN(), fmt.Errorf("%w: %s", ErrStackUnderflow, t.name)
			}
			args := append([]float64(nil), stack[len(stack)-t.arity:]...)
			stack = append(stack[:len(stack)-t.arity], t.apply(args)...)
		}
	}
	if len(stack) != 1 {
		return math.NaN(), ErrUnbalanced
	}
	return stack[0], nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Program {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}
