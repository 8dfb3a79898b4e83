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

package simplex

import (
	"fmt"

	"github.com/costela/simplex/tableau"
	"gonum.org/v1/gonum/mat"
)

/* Types */

type SolveResult struct {
	status      SolveStatus
	names       []string
	constraints []string
	rhs         []float64
	objective   float64
	values      []float64
	slacks      []float64
	duals       []float64
	basis       []int
	bases       [][]int
	final       *mat.Dense
	history     []*mat.Dense
	pivots      int
}

type SolveStatus int

const (
	SolutionOptimal SolveStatus = iota
)

func (s SolveStatus) String() string {
	switch s {
	case SolutionOptimal:
		return "optimal"
	default:
		return fmt.Sprintf("SolveStatus(%d)", int(s))
	}
}

// Errors returned by Solve. They are the engine's own values, so either
// package's constants match with errors.Is.
const (
	ErrDimension      = tableau.ErrDimension
	ErrNonFinite      = tableau.ErrNonFinite
	ErrModelUnbounded = tableau.ErrUnbounded
	ErrIterationLimit = tableau.ErrIterationLimit
)

// Status reports if the solution is optimal (SolutionOptimal). Failed
// solves return an error instead of a result.
func (res SolveResult) Status() SolveStatus {
	return res.status
}

// ObjectiveValue returns the value of the objective function for
// this optimization result.
func (res SolveResult) ObjectiveValue() float64 {
	return res.objective
}

// Value returns the computed value of the given variable for this
// optimization result. Variables added to the model after solving are 0.
func (res SolveResult) Value(v *Variable) float64 {
	if v == nil || v.index >= len(res.values) || res.names[v.index] != v.name {
		return 0
	}

	return res.values[v.index]
}

// Values maps every variable name to its value.
func (res SolveResult) Values() map[string]float64 {
	out := make(map[string]float64, len(res.names))
	for i, name := range res.names {
		out[name] = res.values[i]
	}

	return out
}

// SlackValue returns the slack of the i-th constraint, counting from 0.
func (res SolveResult) SlackValue(i int) float64 {
	return res.slacks[i]
}

// DualValue returns the shadow price of the i-th constraint, counting
// from 0: the change of the objective value per unit increase of the
// constraint's right-hand side, as written in the model.
func (res SolveResult) DualValue(i int) float64 {
	return res.duals[i]
}

// DualValues maps every constraint name to its dual value.
func (res SolveResult) DualValues() map[string]float64 {
	out := make(map[string]float64, len(res.constraints))
	for i, name := range res.constraints {
		out[name] = res.duals[i]
	}

	return out
}

// ConstraintNames returns the constraint names in model order.
func (res SolveResult) ConstraintNames() []string {
	return append([]string(nil), res.constraints...)
}

// RightHandSide returns the right-hand side of the i-th constraint as
// written in the model.
func (res SolveResult) RightHandSide(i int) float64 {
	return res.rhs[i]
}

// Tableau returns a copy of the final tableau.
func (res SolveResult) Tableau() *mat.Dense {
	return mat.DenseCopyOf(res.final)
}

// History returns copies of every tableau the solve went through, oldest
// first. The last one equals Tableau().
func (res SolveResult) History() []*mat.Dense {
	out := make([]*mat.Dense, len(res.history))
	for i, h := range res.history {
		out[i] = mat.DenseCopyOf(h)
	}

	return out
}

// Iterations returns the number of pivots performed.
func (res SolveResult) Iterations() int {
	return res.pivots
}

// Labels returns the column headers of the tableau: the variable names,
// one slack per constraint (s1, s2, ...) and RHS. A slack label that
// would repeat a variable name gets primes appended (s1').
func (res SolveResult) Labels() []string {
	taken := make(map[string]bool, len(res.names)+len(res.basis)+1)
	out := append([]string(nil), res.names...)
	for _, name := range out {
		taken[name] = true
	}

	for i := range res.basis {
		label := fmt.Sprintf("s%d", i+1)
		for taken[label] {
			label += "'"
		}
		taken[label] = true
		out = append(out, label)
	}

	label := "RHS"
	for taken[label] {
		label += "'"
	}

	return append(out, label)
}

// Basis returns the label of the basic variable of every constraint row.
func (res SolveResult) Basis() []string {
	labels := res.Labels()
	out := make([]string, len(res.basis))
	for i, col := range res.basis {
		out[i] = labels[col]
	}

	return out
}

// BasisHistory returns the basic variable labels of every tableau in
// History.
func (res SolveResult) BasisHistory() [][]string {
	labels := res.Labels()
	out := make([][]string, len(res.bases))
	for i, b := range res.bases {
		out[i] = make([]string, len(b))
		for j, col := range b {
			out[i][j] = labels[col]
		}
	}

	return out
}
