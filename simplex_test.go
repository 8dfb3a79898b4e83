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
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/costela/simplex/linexpr"
	"github.com/costela/simplex/tableau"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const (
	delta = 0.0000001 // acceptable numerical deviation for test results
)

func wyndorModel(t *testing.T, opts ...Option) *Model {
	t.Helper()

	model, err := NewModel("wyndor", Maximize, opts...)
	require.NoError(t, err)

	require.NoError(t, model.SetObjective("3x + 5y"))
	require.NoError(t, model.AddExpressionConstraint("plant 1", "x <= 4"))
	require.NoError(t, model.AddExpressionConstraint("plant 2", "2y <= 12"))
	require.NoError(t, model.AddExpressionConstraint("plant 3", "3x + 2y <= 18"))

	return model
}

func TestInstantiation(t *testing.T) {
	name := "test model 1"
	model, err := NewModel(name, Maximize)
	require.NoError(t, err)

	assert.Equal(t, name, model.Name())
	assert.Equal(t, Maximize, model.Direction())

	model.SetDirection(Minimize)
	assert.Equal(t, Minimize, model.Direction())
}

func TestInvalidOptions(t *testing.T) {
	_, err := NewModel("test", Maximize, WithLogger(nil))
	assert.Error(t, err)

	_, err = NewModel("test", Maximize, WithEpsilon(-1))
	assert.Error(t, err)

	_, err = NewModel("test", Maximize, WithMaxIterations(-1))
	assert.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"max":       Maximize,
		"Maximize":  Maximize,
		"min":       Minimize,
		" MINIMIZE": Minimize,
	} {
		dir, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, dir, in)
	}

	_, err := ParseDirection("sideways")
	assert.Error(t, err)

	assert.Equal(t, "maximize", Maximize.String())
	assert.Equal(t, "minimize", Minimize.String())
}

func TestAddVariable(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)

	v0, err := model.AddVariable("")
	require.NoError(t, err)
	assert.Equal(t, "V0", v0.Name())
	assert.Equal(t, 0.0, v0.Coefficient())

	v1, err := model.AddDefinedVariable("x", 3.1416)
	require.NoError(t, err)
	assert.Equal(t, "x", v1.Name())
	assert.Equal(t, 1, v1.Index())
	assert.Equal(t, 3.1416, v1.Coefficient())

	_, err = model.AddVariable("x")
	assert.Error(t, err)

	got, ok := model.Variable("x")
	require.True(t, ok)
	assert.Same(t, v1, got)

	_, ok = model.Variable("nope")
	assert.False(t, ok)

	assert.Equal(t, 2, model.VariableCount())
	assert.Equal(t, []*Variable{v0, v1}, model.Variables())
}

func TestSetObjectiveFunction(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)

	v1, _ := model.AddVariable("x")
	v2, _ := model.AddVariable("y")
	v3, _ := model.AddVariable("z")

	vars := []*Variable{v1, v2, v3}
	coefs := []float64{1.3, 2.7182, 3.1416}
	require.NoError(t, model.SetObjectiveFunction(coefs, vars))
	for i, coef := range coefs {
		assert.Equal(t, coef, vars[i].Coefficient())
	}

	v2.SetObjectiveCoefficient(-1)
	assert.Equal(t, -1.0, v2.Coefficient())

	assert.Error(t, model.SetObjectiveFunction([]float64{1}, vars))

	other, err := NewModel("other", Maximize)
	require.NoError(t, err)
	foreign, _ := other.AddVariable("x")
	assert.Error(t, model.SetObjectiveFunction([]float64{1}, []*Variable{foreign}))
}

func TestSetObjectiveExpression(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)

	z, _ := model.AddDefinedVariable("z", 7)

	require.NoError(t, model.SetObjective("5y + 3x"))

	names := []string{}
	for _, v := range model.Variables() {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{"z", "x", "y"}, names)
	assert.Equal(t, 0.0, z.Coefficient())

	err = model.SetObjective("x*y")
	assert.ErrorIs(t, err, linexpr.ErrNonLinear)
}

func TestConstraints(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)

	x, _ := model.AddVariable("x")
	y, _ := model.AddVariable("y")

	require.NoError(t, model.AddConstraint("", []*Variable{x, y}, []float64{1, 1}, linexpr.LessEqual, 4))
	require.NoError(t, model.AddExpressionConstraint("", "x + 2y >= 1"))
	require.NoError(t, model.AddExpressionConstraint("named", "z = 2"))

	assert.Error(t, model.AddConstraint("bad", []*Variable{x}, []float64{1, 2}, linexpr.LessEqual, 1))
	assert.Error(t, model.AddConstraint("c1", []*Variable{x}, []float64{1}, linexpr.LessEqual, 1))
	assert.Error(t, model.AddConstraint("op", []*Variable{x}, []float64{1}, linexpr.Operator(9), 1))
	assert.ErrorIs(t, model.AddExpressionConstraint("junk", "x +"), linexpr.ErrSyntax)

	cons := model.Constraints()
	require.Len(t, cons, 3)
	assert.Equal(t, 3, model.ConstraintCount())

	assert.Equal(t, "c1", cons[0].Name)
	assert.Equal(t, map[string]float64{"x": 1, "y": 1}, cons[0].Coefficients)
	assert.Equal(t, "c2", cons[1].Name)
	assert.Equal(t, linexpr.GreaterEqual, cons[1].Op)
	assert.Equal(t, "named: z = 2", cons[2].String())

	// z was added by the expression
	assert.Equal(t, 3, model.VariableCount())

	// the returned records are copies
	cons[0].Coefficients["x"] = 100
	assert.Equal(t, 1.0, model.Constraints()[0].Coefficients["x"])
}

func TestCoefficients(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)
	require.NoError(t, model.SetObjective("2x + 3y"))

	require.NoError(t, model.AddExpressionConstraint("le", "x + y <= 4"))
	require.NoError(t, model.AddExpressionConstraint("ge", "-x - 2y >= -5"))
	require.NoError(t, model.AddExpressionConstraint("eq", "x = 3"))

	c, a, b := model.Coefficients()
	assert.Equal(t, []float64{2, 3}, c)
	assert.Equal(t, [][]float64{{1, 1}, {1, 2}, {1, 0}}, a)
	assert.Equal(t, []float64{4, 5, 3}, b)
}

func TestClone(t *testing.T) {
	model := wyndorModel(t)

	modelClone := model.Clone()

	assert.Equal(t, model.Name(), modelClone.Name())
	assert.Equal(t, model.Direction(), modelClone.Direction())
	assert.Equal(t, model.VariableCount(), modelClone.VariableCount())
	assert.Equal(t, model.ConstraintCount(), modelClone.ConstraintCount())

	x, _ := modelClone.Variable("x")
	assert.Equal(t, 3.0, x.Coefficient())
	x.SetObjectiveCoefficient(10)
	require.NoError(t, modelClone.AddExpressionConstraint("extra", "x + y <= 1"))

	orig, _ := model.Variable("x")
	assert.Equal(t, 3.0, orig.Coefficient())
	assert.Equal(t, 3, model.ConstraintCount())

	res, err := model.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 36.0, res.ObjectiveValue(), delta)
}

func TestSolveWyndor(t *testing.T) {
	model := wyndorModel(t)

	res, err := model.Solve()
	require.NoError(t, err)

	assert.Equal(t, SolutionOptimal, res.Status())
	assert.Equal(t, "optimal", res.Status().String())
	assert.InDelta(t, 36.0, res.ObjectiveValue(), delta)

	x, _ := model.Variable("x")
	y, _ := model.Variable("y")
	assert.InDelta(t, 2.0, res.Value(x), delta)
	assert.InDelta(t, 6.0, res.Value(y), delta)
	assert.InDeltaMapValues(t, map[string]float64{"x": 2, "y": 6}, res.Values(), delta)
	assert.InDelta(t, 2.0, res.SlackValue(0), delta)
	assert.InDelta(t, 0.0, res.SlackValue(2), delta)

	assert.Equal(t, 3, res.Iterations())
	assert.Equal(t, []string{"x", "y", "s1", "s2", "s3", "RHS"}, res.Labels())
	assert.Equal(t, []string{"x", "s1", "y"}, res.Basis())

	assert.Equal(t, [][]string{
		{"s1", "s2", "s3"},
		{"x", "s2", "s3"},
		{"x", "s2", "y"},
		{"x", "s1", "y"},
	}, res.BasisHistory())

	history := res.History()
	require.Len(t, history, 4)
	assert.True(t, mat.Equal(res.Tableau(), history[3]))
	assert.InDelta(t, 36.0, res.Tableau().At(3, 5), delta)

	initial := mat.NewDense(4, 6, []float64{
		1, 0, 1, 0, 0, 4,
		0, 2, 0, 1, 0, 12,
		3, 2, 0, 0, 1, 18,
		-3, -5, 0, 0, 0, 0,
	})
	assert.True(t, mat.Equal(initial, history[0]))

	// results hand out copies
	res.Tableau().Set(3, 5, 0)
	history[0].Set(0, 0, 42)
	assert.InDelta(t, 36.0, res.Tableau().At(3, 5), delta)
	assert.Equal(t, 1.0, res.History()[0].At(0, 0))
}

func TestSolveLP(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)

	x1, _ := model.AddDefinedVariable("x1", 1)
	x2, _ := model.AddDefinedVariable("x2", 2)
	x3, _ := model.AddDefinedVariable("x3", -1)

	require.NoError(t, model.AddConstraint("", []*Variable{x1, x2, x3}, []float64{2, 1, 1}, linexpr.LessEqual, 14))
	require.NoError(t, model.AddConstraint("", []*Variable{x1, x2, x3}, []float64{4, 2, 3}, linexpr.LessEqual, 28))
	require.NoError(t, model.AddConstraint("", []*Variable{x1, x2, x3}, []float64{2, 5, 5}, linexpr.LessEqual, 30))

	res, err := model.Solve()
	require.NoError(t, err)

	expected_xs := []float64{5, 4, 0}
	expected_obj := 13.0

	assert.Equal(t, SolutionOptimal, res.Status())

	// ignore numerical inaccuracies
	assert.InDelta(t, expected_obj, res.ObjectiveValue(), delta)

	for i, x := range []*Variable{x1, x2, x3} {
		assert.InDelta(t, expected_xs[i], res.Value(x), delta)
	}
}

func TestSolveGreaterEqual(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)
	require.NoError(t, model.SetObjective("2x + 3y"))
	require.NoError(t, model.AddExpressionConstraint("", "-x - y >= -4"))
	require.NoError(t, model.AddExpressionConstraint("", "x + 2y <= 5"))

	res, err := model.Solve()
	require.NoError(t, err)

	assert.InDelta(t, 9.0, res.ObjectiveValue(), delta)
	assert.InDeltaMapValues(t, map[string]float64{"x": 3, "y": 1}, res.Values(), delta)
	assert.Equal(t, 2, res.Iterations())
}

func TestSolveMinimize(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)
	require.NoError(t, model.SetObjective("-2x - 3y"))
	require.NoError(t, model.AddExpressionConstraint("", "x + y <= 4"))
	require.NoError(t, model.AddExpressionConstraint("", "x + 2y <= 5"))

	res, err := model.Solve()
	require.NoError(t, err)

	assert.InDelta(t, -9.0, res.ObjectiveValue(), delta)
	assert.InDeltaMapValues(t, map[string]float64{"x": 3, "y": 1}, res.Values(), delta)

	// the tableau keeps the raw cell
	assert.InDelta(t, 9.0, res.Tableau().At(2, 4), delta)
}

func TestObjectiveConstant(t *testing.T) {
	model := wyndorModel(t)
	require.NoError(t, model.SetObjective("3x + 5y + 10"))

	res, err := model.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 46.0, res.ObjectiveValue(), delta)
	assert.InDelta(t, 36.0, res.Tableau().At(3, 5), delta)
}

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Debug(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.msgs = append(l.msgs, msg)
}

func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, m := range l.msgs {
		if m == msg {
			n++
		}
	}

	return n
}

func TestEqualityPassedThrough(t *testing.T) {
	logger := &recordingLogger{}
	model, err := NewModel("test", Maximize, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, model.SetObjective("2x + 3y"))
	require.NoError(t, model.AddExpressionConstraint("", "x + y = 4"))
	require.NoError(t, model.AddExpressionConstraint("", "x + 2y <= 5"))

	res, err := model.Solve()
	require.NoError(t, err)

	// solved as x + y <= 4
	assert.InDelta(t, 9.0, res.ObjectiveValue(), delta)
	assert.Equal(t, 1, logger.count("equality constraint passed through as <="))
	assert.Equal(t, 2, logger.count("pivot"))
	assert.Equal(t, 1, logger.count("solved"))
}

func TestUnbounded(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)
	require.NoError(t, model.SetObjective("x + y"))
	require.NoError(t, model.AddExpressionConstraint("", "x - y <= 1"))

	res, err := model.Solve()
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrModelUnbounded)
	assert.ErrorIs(t, err, tableau.ErrUnbounded)
}

func TestIterationLimit(t *testing.T) {
	model := wyndorModel(t, WithMaxIterations(1))

	_, err := model.Solve()
	assert.ErrorIs(t, err, ErrIterationLimit)
}

func TestNonFinite(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)
	x, _ := model.AddDefinedVariable("x", 1)
	require.NoError(t, model.AddConstraint("", []*Variable{x}, []float64{1}, linexpr.LessEqual, 1))
	x.SetObjectiveCoefficient(math.Inf(1))

	_, err = model.Solve()
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestEmptyModel(t *testing.T) {
	model, err := NewModel("empty", Maximize)
	require.NoError(t, err)

	res, err := model.Solve()
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.ObjectiveValue())
	assert.Equal(t, []string{"RHS"}, res.Labels())
	assert.Len(t, res.History(), 1)
}

func TestContext(t *testing.T) {
	model := wyndorModel(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := model.SolveWithContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrModelUnbounded))
}

func TestValueOfUnknownVariable(t *testing.T) {
	model := wyndorModel(t)

	res, err := model.Solve()
	require.NoError(t, err)

	late, err := model.AddVariable("late")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Value(late))
	assert.Equal(t, 0.0, res.Value(nil))
}

func TestDualValues(t *testing.T) {
	res, err := wyndorModel(t).Solve()
	require.NoError(t, err)

	assert.InDelta(t, 0.0, res.DualValue(0), delta)
	assert.InDelta(t, 1.5, res.DualValue(1), delta)
	assert.InDelta(t, 1.0, res.DualValue(2), delta)
	assert.InDeltaMapValues(t, map[string]float64{"plant 1": 0, "plant 2": 1.5, "plant 3": 1}, res.DualValues(), delta)
	assert.Equal(t, []string{"plant 1", "plant 2", "plant 3"}, res.ConstraintNames())
	assert.Equal(t, 18.0, res.RightHandSide(2))

	// a >= row is negated for the tableau, its price is not
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)
	require.NoError(t, model.SetObjective("2x + 3y"))
	require.NoError(t, model.AddExpressionConstraint("", "-x - y >= -4"))
	require.NoError(t, model.AddExpressionConstraint("", "x + 2y <= 5"))

	res, err = model.Solve()
	require.NoError(t, err)
	assert.InDelta(t, -1.0, res.DualValue(0), delta)
	assert.InDelta(t, 1.0, res.DualValue(1), delta)
	assert.Equal(t, -4.0, res.RightHandSide(0))

	// raising the right-hand side of the >= row by one costs one unit
	require.NoError(t, model.RemoveConstraint("c1"))
	require.NoError(t, model.AddExpressionConstraint("c1", "-x - y >= -3"))
	relaxed, err := model.Solve()
	require.NoError(t, err)
	assert.InDelta(t, res.ObjectiveValue()+res.DualValue(0), relaxed.ObjectiveValue(), delta)

	model, err = NewModel("test", Minimize)
	require.NoError(t, err)
	require.NoError(t, model.SetObjective("-2x - 3y"))
	require.NoError(t, model.AddExpressionConstraint("", "x + y <= 4"))
	require.NoError(t, model.AddExpressionConstraint("", "x + 2y <= 5"))

	res, err = model.Solve()
	require.NoError(t, err)
	assert.InDeltaMapValues(t, map[string]float64{"c1": -1, "c2": -1}, res.DualValues(), delta)
}

func TestRemoveConstraint(t *testing.T) {
	model := wyndorModel(t)

	require.NoError(t, model.RemoveConstraint("plant 3"))
	assert.Error(t, model.RemoveConstraint("plant 3"))
	assert.Equal(t, 2, model.ConstraintCount())

	res, err := model.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 42.0, res.ObjectiveValue(), delta)

	// generated names skip the ones in use
	require.NoError(t, model.AddExpressionConstraint("", "x + y <= 100"))
	require.NoError(t, model.RemoveConstraint("plant 1"))
	require.NoError(t, model.AddExpressionConstraint("", "y <= 100"))

	names := []string{}
	for _, c := range model.Constraints() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"plant 2", "c3", "c4"}, names)
}

func TestSlackLabelsAvoidVariableNames(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)
	require.NoError(t, model.SetObjective("s1 + x"))
	require.NoError(t, model.AddExpressionConstraint("", "x <= 4"))
	require.NoError(t, model.AddExpressionConstraint("", "s1 <= 2"))

	res, err := model.Solve()
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "x", "s1'", "s2", "RHS"}, res.Labels())
	assert.Equal(t, []string{"x", "s1"}, res.Basis())
	assert.Equal(t, [][]string{{"s1'", "s2"}, {"s1'", "s1"}, {"x", "s1"}}, res.BasisHistory())
	assert.InDeltaMapValues(t, map[string]float64{"s1": 2, "x": 4}, res.Values(), delta)
}

// Every solve builds its own engine, so a model may be solved concurrently.
func TestParallel(t *testing.T) {
	model := wyndorModel(t)

	results := make([]float64, 8)
	wg := sync.WaitGroup{}
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := model.Solve()
			if err == nil {
				results[i] = res.ObjectiveValue()
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.InDelta(t, 36.0, r, delta)
	}
}
