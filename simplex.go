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
Package simplex models linear programs with named variables and
constraints and solves them with the tableau Simplex method, keeping
every tableau along the way.

As an example of the API, the model of the following problem:

	Maximize:
	  z = 3x + 5y
	Subject to:
	  x       <= 4
	       2y <= 12
	  3x + 2y <= 18
	  x, y >= 0

can be expressed like this:

	package main

	import (
		"fmt"

		"github.com/costela/simplex"
		"github.com/costela/simplex/linexpr"
	)

	func main() {
		model, _ := simplex.NewModel("wyndor", simplex.Maximize)
		x, _ := model.AddVariable("x")
		y, _ := model.AddVariable("y")
		model.SetObjectiveFunction([]float64{3, 5}, []*simplex.Variable{x, y})

		model.AddConstraint("plant 1", []*simplex.Variable{x}, []float64{1}, linexpr.LessEqual, 4)
		// constraints may also be written out:
		model.AddExpressionConstraint("plant 2", "2y <= 12")
		model.AddExpressionConstraint("plant 3", "3x + 2y <= 18")

		result, _ := model.Solve() // you should check for errors

		fmt.Printf("z = %f\n", result.ObjectiveValue())  // 36
		fmt.Printf("x = %f\n", result.Value(x))          // 2
		fmt.Printf("pivots: %d\n", result.Iterations())  // 3
	}

Every constraint is turned into a row of the form a·x <= b before solving:
>= rows are negated and = rows are passed through unchanged, so a model
relying on them may report an optimum of a relaxed problem. Variables are
implicitly non-negative.
*/
package simplex

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/costela/simplex/linexpr"
	"github.com/costela/simplex/tableau"
)

/* Types */

type Model struct {
	mu          sync.RWMutex
	name        string
	dir         Direction
	vars        []*Variable
	byName      map[string]*Variable
	objective   []float64
	offset      float64
	constraints []ConstraintRecord

	logger        Logger
	eps           float64
	maxIterations int
}

// Direction is the optimization sense of a model.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}

	return "minimize"
}

// ParseDirection accepts "max", "maximize", "min" and "minimize" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "max", "maximize", "maximise":
		return Maximize, nil
	case "min", "minimize", "minimise":
		return Minimize, nil
	}

	return Minimize, fmt.Errorf("unknown optimization direction %q", s)
}

// Variable is a decision variable of a model. It is only meaningful
// together with the model that created it.
type Variable struct {
	model *Model
	index int
	name  string
}

// ConstraintRecord is a constraint as it was added to the model, before
// normalization.
type ConstraintRecord struct {
	Name         string
	Coefficients map[string]float64
	Op           linexpr.Operator
	RHS          float64
}

/* Model related functions */

// NewModel instantiates a new linear programming model, providing a
// name (purely informational) and a optimization direction (either
// Minimize or Maximize)
func NewModel(name string, dir Direction, opts ...Option) (*Model, error) {
	model := &Model{
		name:          name,
		dir:           dir,
		byName:        map[string]*Variable{},
		logger:        noopLogger{},
		eps:           tableau.DefaultEpsilon,
		maxIterations: tableau.DefaultMaxIterations,
	}

	for _, opt := range opts {
		if err := opt(model); err != nil {
			return nil, fmt.Errorf("applying model option: %w", err)
		}
	}

	return model, nil
}

// Clone returns a copy of the model. Variables of the copy are distinct
// from the original's; look them up by name.
func (model *Model) Clone() *Model {
	model.mu.RLock()
	defer model.mu.RUnlock()

	newModel := &Model{
		name:          model.name,
		dir:           model.dir,
		byName:        make(map[string]*Variable, len(model.vars)),
		objective:     append([]float64(nil), model.objective...),
		offset:        model.offset,
		logger:        model.logger,
		eps:           model.eps,
		maxIterations: model.maxIterations,
	}

	for _, v := range model.vars {
		nv := &Variable{model: newModel, index: v.index, name: v.name}
		newModel.vars = append(newModel.vars, nv)
		newModel.byName[nv.name] = nv
	}

	for _, c := range model.constraints {
		newModel.constraints = append(newModel.constraints, c.clone())
	}

	return newModel
}

// Name returns the name provided upon instantiation of a model
func (model *Model) Name() string {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return model.name
}

// SetDirection changes the direction of the model's optimization
func (model *Model) SetDirection(dir Direction) {
	model.mu.Lock()
	defer model.mu.Unlock()

	model.dir = dir
}

// Direction returns the model's current optimization direction
func (model *Model) Direction() Direction {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return model.dir
}

/* Column-related functions */

func (model *Model) VariableCount() int {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return len(model.vars)
}

// Variables returns a new slice with the model's variables, in the order
// they were added. This is also the column order of the tableau.
func (model *Model) Variables() []*Variable {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return append([]*Variable(nil), model.vars...)
}

// Variable looks a variable up by name.
func (model *Model) Variable(name string) (*Variable, bool) {
	model.mu.RLock()
	defer model.mu.RUnlock()

	v, ok := model.byName[name]
	return v, ok
}

// AddVariable adds a variable with an objective coefficient of 0 to the
// model and returns a reference to it.
// Empty names will automatically replaced by a unique name.
func (model *Model) AddVariable(name string) (*Variable, error) {
	return model.AddDefinedVariable(name, 0)
}

// AddDefinedVariable adds a variable with the given objective coefficient.
func (model *Model) AddDefinedVariable(name string, coefficient float64) (*Variable, error) {
	model.mu.Lock()
	defer model.mu.Unlock()

	return model.addVariable(name, coefficient)
}

func (model *Model) addVariable(name string, coefficient float64) (*Variable, error) {
	if name == "" {
		name = fmt.Sprintf("V%d", len(model.vars))
	}
	if _, ok := model.byName[name]; ok {
		return nil, fmt.Errorf("variable %q already defined", name)
	}

	v := &Variable{model: model, index: len(model.vars), name: name}
	model.vars = append(model.vars, v)
	model.byName[name] = v
	model.objective = append(model.objective, coefficient)

	return v, nil
}

// variable returns the variable called name, adding it if needed.
func (model *Model) variable(name string) *Variable {
	if v, ok := model.byName[name]; ok {
		return v
	}

	v, _ := model.addVariable(name, 0)
	return v
}

func (model *Model) owns(vars []*Variable) error {
	for _, v := range vars {
		if v == nil || v.model != model {
			return fmt.Errorf("variable does not belong to model %q", model.name)
		}
	}

	return nil
}

// SetObjectiveFunction defines the objective function for the model as
// a slice of coefficients and a slice of its respective variables.
// E.g.: an objective function of the form 2x+3y is passed as:
//
//	SetObjectiveFunction([]float64{2,3}, []*Variable{x, y})
//
// Variables not listed keep their coefficient.
func (model *Model) SetObjectiveFunction(coefs []float64, vars []*Variable) error {
	if len(vars) != len(coefs) {
		return fmt.Errorf("inconsistent number of variables and coefficients: %d != %d", len(vars), len(coefs))
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	if err := model.owns(vars); err != nil {
		return err
	}

	for i, v := range vars {
		model.objective[v.index] = coefs[i]
	}

	return nil
}

// SetObjective replaces the whole objective function with the parsed
// expression, e.g. "3x + 5y". Variables that do not exist yet are added
// in alphabetical order. A constant term is added to the reported
// objective value but never enters the tableau.
func (model *Model) SetObjective(expr string) error {
	e, err := linexpr.Parse(expr)
	if err != nil {
		return fmt.Errorf("parsing objective: %w", err)
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	for _, name := range e.Variables() {
		model.variable(name)
	}
	for i, v := range model.vars {
		model.objective[i] = e.Coefficient(v.name)
	}
	model.offset = e.Constant

	return nil
}

/* Constraint-related functions */

// ConstraintCount returns the number of individual constraints in
// the model
func (model *Model) ConstraintCount() int {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return len(model.constraints)
}

// Constraints returns copies of the model's constraints in the order they
// were added.
func (model *Model) Constraints() []ConstraintRecord {
	model.mu.RLock()
	defer model.mu.RUnlock()

	out := make([]ConstraintRecord, len(model.constraints))
	for i, c := range model.constraints {
		out[i] = c.clone()
	}

	return out
}

// AddConstraint adds the constraint Σ coefs[i]·vars[i] op rhs. An empty
// name is replaced by "c<n>", n counting from 1.
func (model *Model) AddConstraint(name string, vars []*Variable, coefs []float64, op linexpr.Operator, rhs float64) error {
	if len(vars) != len(coefs) {
		return fmt.Errorf("inconsistent number of variables and coefficients: %d != %d", len(vars), len(coefs))
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	if err := model.owns(vars); err != nil {
		return err
	}

	row := make(map[string]float64, len(vars))
	for i, v := range vars {
		row[v.name] += coefs[i]
	}

	return model.addConstraint(name, row, op, rhs)
}

// AddExpressionConstraint parses text, e.g. "2x + 3y <= 12", and adds the
// result. Variables that do not exist yet are added in alphabetical order.
func (model *Model) AddExpressionConstraint(name, text string) error {
	c, err := linexpr.ParseConstraint(text)
	if err != nil {
		return fmt.Errorf("parsing constraint: %w", err)
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	for _, v := range c.Expression().Variables() {
		model.variable(v)
	}

	return model.addConstraint(name, c.Coefficients, c.Op, c.RHS)
}

func (model *Model) hasConstraint(name string) bool {
	for _, c := range model.constraints {
		if c.Name == name {
			return true
		}
	}

	return false
}

// RemoveConstraint drops the constraint called name. The remaining
// constraints keep their order and names.
func (model *Model) RemoveConstraint(name string) error {
	model.mu.Lock()
	defer model.mu.Unlock()

	for i, c := range model.constraints {
		if c.Name == name {
			model.constraints = append(model.constraints[:i:i], model.constraints[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("constraint %q not defined", name)
}

func (model *Model) addConstraint(name string, row map[string]float64, op linexpr.Operator, rhs float64) error {
	switch op {
	case linexpr.LessEqual, linexpr.GreaterEqual, linexpr.Equal:
	default:
		return fmt.Errorf("unknown constraint operator %v", op)
	}

	if name == "" {
		for n := len(model.constraints) + 1; name == "" || model.hasConstraint(name); n++ {
			name = fmt.Sprintf("c%d", n)
		}
	}
	if model.hasConstraint(name) {
		return fmt.Errorf("constraint %q already defined", name)
	}

	model.constraints = append(model.constraints, ConstraintRecord{
		Name:         name,
		Coefficients: row,
		Op:           op,
		RHS:          rhs,
	})

	return nil
}

func (c ConstraintRecord) clone() ConstraintRecord {
	row := make(map[string]float64, len(c.Coefficients))
	for k, v := range c.Coefficients {
		row[k] = v
	}
	c.Coefficients = row

	return c
}

func (c ConstraintRecord) String() string {
	return fmt.Sprintf("%s: %s", c.Name, linexpr.Constraint{Coefficients: c.Coefficients, Op: c.Op, RHS: c.RHS})
}

/* Solving */

// problem is a normalized snapshot of a model.
type problem struct {
	c        []float64
	a        [][]float64
	b        []float64
	maximize bool
	names    []string
	offset   float64

	constraints []string
	rhs         []float64
	negated     []bool
}

// normalize turns the model into coefficient form. Callers hold model.mu.
func (model *Model) normalize() problem {
	p := problem{
		c:        append([]float64(nil), model.objective...),
		a:        make([][]float64, len(model.constraints)),
		b:        make([]float64, len(model.constraints)),
		maximize: model.dir == Maximize,
		names:    make([]string, len(model.vars)),
		offset:   model.offset,

		constraints: make([]string, len(model.constraints)),
		rhs:         make([]float64, len(model.constraints)),
		negated:     make([]bool, len(model.constraints)),
	}

	for i, v := range model.vars {
		p.names[i] = v.name
	}

	for i, con := range model.constraints {
		row := make([]float64, len(model.vars))
		for name, coef := range con.Coefficients {
			row[model.byName[name].index] = coef
		}
		rhs := con.RHS
		p.constraints[i], p.rhs[i] = con.Name, con.RHS

		switch con.Op {
		case linexpr.GreaterEqual:
			for j := range row {
				row[j] = -row[j]
			}
			rhs = -rhs
			p.negated[i] = true
		case linexpr.Equal:
			model.logger.Debug("equality constraint passed through as <=", "model", model.name, "constraint", con.Name)
		}

		p.a[i], p.b[i] = row, rhs
	}

	return p
}

// Coefficients returns the model in the (c, A, b) form handed to the
// tableau, with every constraint as a <= row.
func (model *Model) Coefficients() (c []float64, a [][]float64, b []float64) {
	model.mu.RLock()
	defer model.mu.RUnlock()

	p := model.normalize()
	return p.c, p.a, p.b
}

// Solve attempts to find an optimal solution to the model.
// Information about the solution can be queried from the returned
// SolveResult value.
func (model *Model) Solve() (*SolveResult, error) {
	return model.SolveWithContext(context.Background())
}

// SolveWithContext wraps Solve() with a context. If the context is cancelled or times out, the solution search will be
// aborted between two pivots and the context error will be returned.
func (model *Model) SolveWithContext(ctx context.Context) (*SolveResult, error) {
	model.mu.RLock()
	p := model.normalize()
	opts := []tableau.Option{
		tableau.WithEpsilon(model.eps),
		tableau.WithMaxIterations(model.maxIterations),
		tableau.WithLogger(model.logger),
	}
	name := model.name
	logger := model.logger
	model.mu.RUnlock()

	engine, err := tableau.New(p.c, p.a, p.b, p.maximize, opts...)
	if err != nil {
		return nil, err
	}

	final, history, err := engine.SolveContext(ctx)
	if err != nil {
		logger.Debug("solve failed", "model", name, "pivots", engine.Iterations(), "error", err)
		return nil, err
	}

	duals := engine.DualValues()
	for i, neg := range p.negated {
		if neg && duals[i] != 0 {
			duals[i] = -duals[i]
		}
	}

	res := &SolveResult{
		status:      SolutionOptimal,
		names:       p.names,
		constraints: p.constraints,
		rhs:         p.rhs,
		objective:   engine.Objective() + p.offset,
		values:      engine.Values(),
		slacks:      engine.SlackValues(),
		duals:       duals,
		basis:       engine.Basis(),
		bases:       engine.BasisHistory(),
		final:       final,
		history:     history,
		pivots:      engine.Iterations(),
	}

	logger.Debug("solved", "model", name, "pivots", res.pivots, "objective", res.objective)

	return res, nil
}
