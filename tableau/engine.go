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
Package tableau implements the tableau form of the primal Simplex method
and keeps a copy of every tableau it pivots through.

The engine solves problems already in the form

	optimize  c·x
	s.t.      A x <= b
	          x >= 0

by adding one slack variable per constraint. The initial tableau has
m+1 rows and n+m+1 columns:

	[ A | I | b ]
	[ ±c| 0 | 0 ]

where the objective row holds -c when maximizing and c when minimizing.

Entering columns are picked by scanning the objective row left to right
and taking the first negative entry; leaving rows by the minimum ratio
test, ties going to the lowest row. The initial basis is the slack basis,
so problems whose right-hand side has negative entries are solved from an
infeasible start and may report a meaningless optimum.

	e, err := tableau.New([]float64{3, 5}, [][]float64{{1, 0}, {0, 2}, {3, 2}}, []float64{4, 12, 18}, true)
	if err != nil {
		// errors.Is(err, tableau.ErrDimension)
	}
	final, history, err := e.Solve()
	// final.At(3, 5) == 36, len(history) == e.Iterations()+1
*/
package tableau

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type state int

const (
	stateInitialized state = iota
	stateOptimal
	stateFailed
)

// Engine owns a single tableau. It is not safe for concurrent use; build
// one engine per problem.
type Engine struct {
	m, n     int
	maximize bool

	t       *mat.Dense
	basis   []int
	history []*mat.Dense
	bases   [][]int
	pivots  int

	state state
	err   error

	eps           float64
	maxIterations int
	logger        Logger
}

// New builds the initial tableau for the given objective coefficients c,
// constraint matrix a (one row per constraint) and right-hand side b.
// Every constraint is taken to be of the form a[i]·x <= b[i].
func New(c []float64, a [][]float64, b []float64, maximize bool, opts ...Option) (*Engine, error) {
	m, n := len(b), len(c)

	if len(a) != m {
		return nil, fmt.Errorf("%d constraint rows but %d right-hand sides: %w", len(a), m, ErrDimension)
	}
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("constraint row %d has %d coefficients, objective has %d: %w", i, len(row), n, ErrDimension)
		}
	}

	if err := checkFinite(c, a, b); err != nil {
		return nil, err
	}

	e := &Engine{
		m:             m,
		n:             n,
		maximize:      maximize,
		eps:           DefaultEpsilon,
		maxIterations: DefaultMaxIterations,
		logger:        noopLogger{},
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("applying engine option: %w", err)
		}
	}

	e.setup(c, a, b)

	return e, nil
}

func checkFinite(c []float64, a [][]float64, b []float64) error {
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

	for j, v := range c {
		if bad(v) {
			return fmt.Errorf("objective coefficient %d is %v: %w", j, v, ErrNonFinite)
		}
	}
	for i, row := range a {
		for j, v := range row {
			if bad(v) {
				return fmt.Errorf("constraint %d coefficient %d is %v: %w", i, j, v, ErrNonFinite)
			}
		}
	}
	for i, v := range b {
		if bad(v) {
			return fmt.Errorf("right-hand side %d is %v: %w", i, v, ErrNonFinite)
		}
	}

	return nil
}

func (e *Engine) setup(c []float64, a [][]float64, b []float64) {
	m, n := e.m, e.n
	rhs := n + m

	e.t = mat.NewDense(m+1, n+m+1, nil)
	e.basis = make([]int, m)

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			e.t.Set(i, j, a[i][j])
		}
		e.t.Set(i, n+i, 1)
		e.t.Set(i, rhs, b[i])
		e.basis[i] = n + i
	}

	for j := 0; j < n; j++ {
		if e.maximize {
			e.t.Set(m, j, -c[j])
		} else {
			e.t.Set(m, j, c[j])
		}
	}
}

// Pivot performs a single Simplex step. It reports false with a nil error
// when the objective row has no negative entry left, i.e. the tableau is
// optimal. An improving column without any positive entry yields
// ErrUnbounded.
func (e *Engine) Pivot() (bool, error) {
	col := e.enteringColumn()
	if col < 0 {
		return false, nil
	}

	if e.maxIterations > 0 && e.pivots >= e.maxIterations {
		return false, fmt.Errorf("%d pivots performed: %w", e.pivots, ErrIterationLimit)
	}

	row, ratio := e.leavingRow(col)
	if row < 0 {
		return false, fmt.Errorf("column %d has no positive entry: %w", col, ErrUnbounded)
	}

	e.snapshot()

	e.logger.Debug("pivot",
		"iteration", e.pivots+1,
		"column", col,
		"row", row,
		"leaving", e.basis[row],
		"ratio", ratio,
	)

	e.eliminate(row, col)
	e.pivots++

	return true, nil
}

// enteringColumn returns the first objective-row column holding a negative
// entry, or -1.
func (e *Engine) enteringColumn() int {
	obj := e.t.RawRowView(e.m)
	for j := 0; j < len(obj)-1; j++ {
		if obj[j] < -e.eps {
			return j
		}
	}

	return -1
}

// leavingRow runs the minimum ratio test on col. Rows whose entry in col is
// not positive never win. It returns -1 when no row qualifies.
func (e *Engine) leavingRow(col int) (int, float64) {
	rhs := e.n + e.m
	row, best := -1, math.Inf(1)

	for i := 0; i < e.m; i++ {
		a := e.t.At(i, col)
		if a <= e.eps {
			continue
		}
		if ratio := e.t.At(i, rhs) / a; ratio < best {
			row, best = i, ratio
		}
	}

	return row, best
}

func (e *Engine) eliminate(row, col int) {
	pr := e.t.RawRowView(row)
	p := pr[col]
	for j := range pr {
		pr[j] /= p
	}
	pr[col] = 1

	for i := 0; i <= e.m; i++ {
		if i == row {
			continue
		}

		r := e.t.RawRowView(i)
		f := r[col]
		if f == 0 {
			continue
		}
		for j := range r {
			r[j] -= f * pr[j]
		}
		r[col] = 0
	}

	e.basis[row] = col
}

func (e *Engine) snapshot() {
	e.history = append(e.history, mat.DenseCopyOf(e.t))
	e.bases = append(e.bases, e.Basis())
}

// Solve pivots until the tableau is optimal and returns a copy of the final
// tableau together with the history of tableaus: one taken before every
// pivot and a last one of the final state.
//
// On failure no tableau is returned. Tableaus recorded before the failing
// step stay available through History.
func (e *Engine) Solve() (*mat.Dense, []*mat.Dense, error) {
	return e.SolveContext(context.Background())
}

// SolveContext is Solve with a context checked between pivots. If the
// context is done, its error is returned.
func (e *Engine) SolveContext(ctx context.Context) (*mat.Dense, []*mat.Dense, error) {
	switch e.state {
	case stateOptimal:
		return e.Tableau(), e.History(), nil
	case stateFailed:
		return nil, nil, e.err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		ok, err := e.Pivot()
		if err != nil {
			e.state, e.err = stateFailed, err
			return nil, nil, err
		}
		if !ok {
			break
		}
	}

	e.snapshot()
	e.state = stateOptimal

	return e.Tableau(), e.History(), nil
}

// Dims returns the number of constraints and decision variables.
func (e *Engine) Dims() (m, n int) {
	return e.m, e.n
}

// Iterations returns the number of pivots performed so far.
func (e *Engine) Iterations() int {
	return e.pivots
}

// Tableau returns a copy of the current tableau.
func (e *Engine) Tableau() *mat.Dense {
	return mat.DenseCopyOf(e.t)
}

// History returns copies of the recorded tableaus, oldest first.
func (e *Engine) History() []*mat.Dense {
	out := make([]*mat.Dense, len(e.history))
	for i, h := range e.history {
		out[i] = mat.DenseCopyOf(h)
	}

	return out
}

// Basis returns, for every constraint row, the column index of its basic
// variable. Indices below n are decision variables, the rest slacks.
func (e *Engine) Basis() []int {
	out := make([]int, len(e.basis))
	copy(out, e.basis)

	return out
}

// BasisHistory returns the basis of every tableau in History.
func (e *Engine) BasisHistory() [][]int {
	out := make([][]int, len(e.bases))
	for i, b := range e.bases {
		out[i] = append([]int(nil), b...)
	}

	return out
}

// Values returns the value of every decision variable in the current basic
// solution: the right-hand side of the row it is basic in, or zero.
func (e *Engine) Values() []float64 {
	x := make([]float64, e.n)
	rhs := e.n + e.m

	for i, col := range e.basis {
		if col < e.n {
			x[col] = e.t.At(i, rhs)
		}
	}

	return x
}

// SlackValues returns the value of every slack variable in the current
// basic solution.
func (e *Engine) SlackValues() []float64 {
	s := make([]float64, e.m)
	rhs := e.n + e.m

	for i, col := range e.basis {
		if col >= e.n {
			s[col-e.n] = e.t.At(i, rhs)
		}
	}

	return s
}

// DualValues returns the shadow price of every constraint row: the change
// of Objective per unit increase of its right-hand side. It is read from
// the objective row under the slack columns, negated when minimizing.
func (e *Engine) DualValues() []float64 {
	y := make([]float64, e.m)
	obj := e.t.RawRowView(e.m)

	for i := range y {
		v := obj[e.n+i]
		if v != 0 && !e.maximize {
			v = -v
		}
		y[i] = v
	}

	return y
}

// Objective returns the objective value of the current basic solution.
// When minimizing, the objective row holds c and the tableau effectively
// maximizes -c·x, so the bottom-right cell is negated.
func (e *Engine) Objective() float64 {
	v := e.t.At(e.m, e.n+e.m)
	switch {
	case v == 0:
		return 0
	case e.maximize:
		return v
	}

	return -v
}
