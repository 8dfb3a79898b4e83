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

// Package render formats tableaus and solve results as aligned text
// tables and as JSON-ready views. Numbers are rounded with
// shopspring/decimal so that views never carry binary float noise.
package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/costela/simplex"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

// DefaultPrecision is the number of decimal places shown by default.
const DefaultPrecision = 4

// Options controls rendering.
type Options struct {
	// Precision is the number of decimal places; zero selects
	// DefaultPrecision.
	Precision int
}

func (o Options) places() int32 {
	if o.Precision <= 0 {
		return DefaultPrecision
	}

	return int32(o.Precision)
}

// Round rounds v half away from zero to the given number of places.
func Round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

// TableauView is a rounded tableau with its column and row labels.
type TableauView struct {
	Columns []string            `json:"columns"`
	Basis   []string            `json:"basis,omitempty"`
	Rows    [][]decimal.Decimal `json:"rows"`
}

// ResultView is the rounded outcome of a solve.
type ResultView struct {
	Name       string                     `json:"name,omitempty"`
	Status     string                     `json:"status"`
	Objective  decimal.Decimal            `json:"objective"`
	Values     map[string]decimal.Decimal `json:"values"`
	Duals      map[string]decimal.Decimal `json:"duals,omitempty"`
	Basis      []string                   `json:"basis"`
	Iterations int                        `json:"iterations"`
	Tableaus   []TableauView              `json:"tableaus,omitempty"`
}

// NewTableauView rounds t. labels must hold one entry per column; basis,
// if given, one entry per constraint row.
func NewTableauView(t mat.Matrix, labels, basis []string, opts Options) (TableauView, error) {
	r, c := t.Dims()
	if len(labels) != c {
		return TableauView{}, fmt.Errorf("%d labels for %d columns", len(labels), c)
	}
	if basis != nil && len(basis) != r-1 {
		return TableauView{}, fmt.Errorf("%d basis labels for %d constraint rows", len(basis), r-1)
	}

	places := opts.places()
	v := TableauView{
		Columns: append([]string(nil), labels...),
		Basis:   append([]string(nil), basis...),
		Rows:    make([][]decimal.Decimal, r),
	}
	if basis == nil {
		v.Basis = nil
	}

	for i := 0; i < r; i++ {
		v.Rows[i] = make([]decimal.Decimal, c)
		for j := 0; j < c; j++ {
			v.Rows[i][j] = Round(t.At(i, j), places)
		}
	}

	return v, nil
}

// NewResultView builds the view of res. With trace set, every tableau of
// the history is included.
func NewResultView(name string, res *simplex.SolveResult, trace bool, opts Options) (ResultView, error) {
	places := opts.places()

	v := ResultView{
		Name:       name,
		Status:     res.Status().String(),
		Objective:  Round(res.ObjectiveValue(), places),
		Values:     map[string]decimal.Decimal{},
		Basis:      res.Basis(),
		Iterations: res.Iterations(),
	}

	for k, x := range res.Values() {
		v.Values[k] = Round(x, places)
	}
	if duals := res.DualValues(); len(duals) > 0 {
		v.Duals = make(map[string]decimal.Decimal, len(duals))
		for k, y := range duals {
			v.Duals[k] = Round(y, places)
		}
	}

	if !trace {
		return v, nil
	}

	labels := res.Labels()
	bases := res.BasisHistory()
	for i, t := range res.History() {
		tv, err := NewTableauView(t, labels, bases[i], opts)
		if err != nil {
			return ResultView{}, fmt.Errorf("tableau %d: %w", i+1, err)
		}
		v.Tableaus = append(v.Tableaus, tv)
	}

	return v, nil
}

// WriteTo writes v as an aligned text table. The objective row is
// labelled z.
func (v TableauView) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', 0)

	if v.Basis != nil {
		fmt.Fprint(tw, "basis\t")
	}
	for j, l := range v.Columns {
		fmt.Fprint(tw, l)
		if j < len(v.Columns)-1 {
			fmt.Fprint(tw, "\t")
		}
	}
	fmt.Fprintln(tw)

	for i, row := range v.Rows {
		if v.Basis != nil {
			label := "z"
			if i < len(v.Basis) {
				label = v.Basis[i]
			}
			fmt.Fprint(tw, label, "\t")
		}
		for j, d := range row {
			fmt.Fprint(tw, d.String())
			if j < len(row)-1 {
				fmt.Fprint(tw, "\t")
			}
		}
		fmt.Fprintln(tw)
	}

	if err := tw.Flush(); err != nil {
		return cw.n, err
	}

	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil && c.err == nil {
		c.err = err
	}

	return n, err
}

// Table writes t as an aligned text table.
func Table(w io.Writer, t mat.Matrix, labels, basis []string, opts Options) error {
	v, err := NewTableauView(t, labels, basis, opts)
	if err != nil {
		return err
	}

	_, err = v.WriteTo(w)
	return err
}

// Trace writes every tableau of res followed by the variable values and
// the optimal value.
func Trace(w io.Writer, res *simplex.SolveResult, opts Options) error {
	v, err := NewResultView("", res, true, opts)
	if err != nil {
		return err
	}

	for i, t := range v.Tableaus {
		if _, err := fmt.Fprintf(w, "Tableau %d:\n", i+1); err != nil {
			return err
		}
		if _, err := t.WriteTo(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return Result(w, res, opts)
}

// Result writes one "name = value" line per variable, in column order,
// the optimal value and, for every constraint, its dual value next to
// its right-hand side.
func Result(w io.Writer, res *simplex.SolveResult, opts Options) error {
	places := opts.places()
	values := res.Values()
	labels := res.Labels()

	if _, err := fmt.Fprintln(w, "Final result:"); err != nil {
		return err
	}
	for _, name := range labels[:len(values)] {
		if _, err := fmt.Fprintf(w, "%s = %s\n", name, Round(values[name], places)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Optimal value: %s\n", Round(res.ObjectiveValue(), places)); err != nil {
		return err
	}

	names := res.ConstraintNames()
	if len(names) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Dual values:"); err != nil {
		return err
	}
	for i, name := range names {
		if _, err := fmt.Fprintf(w, "%s = %s (rhs %s)\n", name, Round(res.DualValue(i), places), Round(res.RightHandSide(i), places)); err != nil {
			return err
		}
	}

	return nil
}
