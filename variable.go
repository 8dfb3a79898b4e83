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

/* Variable-related functions (model variables, as opposed to Go variables) */

func (v *Variable) Name() string {
	return v.name
}

// Index returns the variable's column in the tableau.
func (v *Variable) Index() int {
	return v.index
}

// SetObjectiveCoefficient sets the coefficient of the variable in the
// objective function.
func (v *Variable) SetObjectiveCoefficient(coef float64) {
	v.model.mu.Lock()
	defer v.model.mu.Unlock()

	v.model.objective[v.index] = coef
}

func (v *Variable) Coefficient() float64 {
	v.model.mu.RLock()
	defer v.model.mu.RUnlock()

	return v.model.objective[v.index]
}

func (v *Variable) String() string {
	return v.name
}
