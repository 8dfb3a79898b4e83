/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

/*
Package linexpr parses linear expressions and constraints written the way
they appear in textbooks:

	3x + 5y
	(1/2)x - 0.25y + 4
	2x + 3y <= 12
	x + y ≥ 2z - 1

Terms may be written by juxtaposition ("3x") or with an explicit "*".
Every identifier becomes a variable; constants may be integers, decimals
or fractions, and a term may be divided by a non-zero constant. Anything
that is not linear in its variables is rejected with a *ParseError.

The grammar itself is the one of github.com/expr-lang/expr; linexpr walks
the syntax tree and folds it into coefficients. Words that grammar
reserves (in, not, and, or, matches, contains, startsWith, endsWith, let,
if, else, true, false, nil) cannot name variables.
*/
package linexpr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Expression is a linear form: Σ Coefficients[v]·v + Constant.
type Expression struct {
	Coefficients map[string]float64
	Constant     float64
}

func constant(v float64) Expression {
	return Expression{Coefficients: map[string]float64{}, Constant: v}
}

func variable(name string) Expression {
	return Expression{Coefficients: map[string]float64{name: 1}}
}

func (e Expression) isConstant() bool {
	return len(e.Coefficients) == 0
}

func (e Expression) scale(k float64) Expression {
	out := constant(e.Constant * k)
	for v, c := range e.Coefficients {
		out.Coefficients[v] = c * k
	}

	return out
}

func (e Expression) add(o Expression, sign float64) Expression {
	out := e.scale(1)
	out.Constant += sign * o.Constant
	for v, c := range o.Coefficients {
		out.Coefficients[v] += sign * c
	}

	return out
}

// Coefficient returns the coefficient of name, zero when it does not occur.
func (e Expression) Coefficient(name string) float64 {
	return e.Coefficients[name]
}

// Variables returns the names occurring in e, sorted.
func (e Expression) Variables() []string {
	return Variables(e)
}

// Vector returns the coefficients of e in the order of vars.
func (e Expression) Vector(vars []string) []float64 {
	out := make([]float64, len(vars))
	for i, v := range vars {
		out[i] = e.Coefficients[v]
	}

	return out
}

// String formats e with its variables in sorted order, e.g. "3x + 5y - 2".
func (e Expression) String() string {
	var b strings.Builder

	term := func(c float64, name string) {
		switch {
		case b.Len() == 0 && c < 0:
			b.WriteString("-")
		case b.Len() == 0:
		case c < 0:
			b.WriteString(" - ")
		default:
			b.WriteString(" + ")
		}

		abs := math.Abs(c)
		if name == "" || abs != 1 {
			b.WriteString(strconv.FormatFloat(abs, 'g', -1, 64))
		}
		b.WriteString(name)
	}

	for _, v := range e.Variables() {
		if c := e.Coefficients[v]; c != 0 {
			term(c, v)
		}
	}
	if e.Constant != 0 || b.Len() == 0 {
		term(e.Constant, "")
	}

	return b.String()
}

// Variables returns the sorted union of the variable names of exprs.
func Variables(exprs ...Expression) []string {
	seen := map[string]struct{}{}
	for _, e := range exprs {
		for v := range e.Coefficients {
			seen[v] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)

	return out
}

// Parse parses a linear expression.
func Parse(input string) (Expression, error) {
	node, err := parse(input)
	if err != nil {
		return Expression{}, err
	}

	if b, ok := node.(*ast.BinaryNode); ok && isComparison(b.Operator) {
		return Expression{}, newParseError(input, ErrSyntax, "unexpected comparison %q", b.Operator)
	}

	return fold(input, node)
}

func parse(input string) (ast.Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, newParseError(input, ErrSyntax, "empty expression")
	}

	src := normalize(input)
	if w := reservedWord(src); w != "" {
		return nil, newParseError(input, ErrSyntax, "%q is a reserved word and cannot name a variable", w)
	}

	tree, err := parser.Parse(src)
	if err != nil {
		return nil, &ParseError{Input: input, Msg: err.Error(), Err: ErrSyntax}
	}

	return tree.Node, nil
}

// fold reduces node to a linear expression.
func fold(input string, node ast.Node) (Expression, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return constant(float64(n.Value)), nil

	case *ast.FloatNode:
		return constant(n.Value), nil

	case *ast.IdentifierNode:
		return variable(n.Value), nil

	case *ast.UnaryNode:
		inner, err := fold(input, n.Node)
		if err != nil {
			return Expression{}, err
		}
		switch n.Operator {
		case "+":
			return inner, nil
		case "-":
			return inner.scale(-1), nil
		}
		return Expression{}, newParseError(input, ErrSyntax, "unsupported operator %q", n.Operator)

	case *ast.BinaryNode:
		return foldBinary(input, n)
	}

	return Expression{}, newParseError(input, ErrSyntax, "unsupported term %q", node.String())
}

func foldBinary(input string, n *ast.BinaryNode) (Expression, error) {
	if isComparison(n.Operator) {
		return Expression{}, newParseError(input, ErrSyntax, "misplaced comparison %q", n.Operator)
	}

	left, err := fold(input, n.Left)
	if err != nil {
		return Expression{}, err
	}
	right, err := fold(input, n.Right)
	if err != nil {
		return Expression{}, err
	}

	switch n.Operator {
	case "+":
		return left.add(right, 1), nil

	case "-":
		return left.add(right, -1), nil

	case "*":
		switch {
		case right.isConstant():
			return left.scale(right.Constant), nil
		case left.isConstant():
			return right.scale(left.Constant), nil
		}
		return Expression{}, newParseError(input, ErrNonLinear, "product %q", n.String())

	case "/":
		if !right.isConstant() {
			return Expression{}, newParseError(input, ErrNonLinear, "division by a variable in %q", n.String())
		}
		if right.Constant == 0 {
			return Expression{}, newParseError(input, ErrDivisionByZero, "%q", n.String())
		}
		return left.scale(1 / right.Constant), nil

	case "^", "**":
		if !left.isConstant() || !right.isConstant() {
			return Expression{}, newParseError(input, ErrNonLinear, "power %q", n.String())
		}
		return constant(math.Pow(left.Constant, right.Constant)), nil
	}

	return Expression{}, newParseError(input, ErrSyntax, "unsupported operator %q", n.Operator)
}

func isComparison(op string) bool {
	switch op {
	case "<=", ">=", "==", "<", ">", "!=":
		return true
	}

	return false
}

// Operator is the relation of a constraint.
type Operator int

const (
	LessEqual Operator = iota
	GreaterEqual
	Equal
)

func (op Operator) String() string {
	switch op {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

// ParseOperator accepts "<=", ">=", "=", "==" and their unicode forms.
func ParseOperator(s string) (Operator, error) {
	switch strings.TrimSpace(s) {
	case "<=", "≤", "⩽":
		return LessEqual, nil
	case ">=", "≥", "⩾":
		return GreaterEqual, nil
	case "=", "==":
		return Equal, nil
	}

	return 0, newParseError(s, ErrSyntax, "unknown relation")
}

// Constraint is a parsed relation in the form Σ Coefficients[v]·v Op RHS.
type Constraint struct {
	Coefficients map[string]float64
	Op           Operator
	RHS          float64
}

// Expression returns the left-hand side of c.
func (c Constraint) Expression() Expression {
	return Expression{Coefficients: c.Coefficients}
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %s", c.Expression(), c.Op, strconv.FormatFloat(c.RHS, 'g', -1, 64))
}

// ParseConstraint parses "lhs OP rhs". Variables and constants may appear
// on both sides; the result has every variable on the left and the
// constant on the right.
func ParseConstraint(input string) (Constraint, error) {
	node, err := parse(input)
	if err != nil {
		return Constraint{}, err
	}

	b, ok := node.(*ast.BinaryNode)
	if !ok || !isComparison(b.Operator) {
		return Constraint{}, newParseError(input, ErrSyntax, "missing relation (<=, >= or =)")
	}

	var op Operator
	switch b.Operator {
	case "<=":
		op = LessEqual
	case ">=":
		op = GreaterEqual
	case "==":
		op = Equal
	default:
		return Constraint{}, newParseError(input, ErrSyntax, "unsupported relation %q", b.Operator)
	}

	left, err := fold(input, b.Left)
	if err != nil {
		return Constraint{}, err
	}
	right, err := fold(input, b.Right)
	if err != nil {
		return Constraint{}, err
	}

	lhs := left.add(right, -1)
	for v, c := range lhs.Coefficients {
		if c == 0 {
			delete(lhs.Coefficients, v)
		}
	}

	return Constraint{
		Coefficients: lhs.Coefficients,
		Op:           op,
		RHS:          -lhs.Constant,
	}, nil
}
