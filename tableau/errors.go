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

package tableau

// SolveError enumerates the failure kinds of an Engine. Errors returned by
// the engine wrap one of these values, so callers match them with errors.Is.
type SolveError int

const (
	ErrDimension SolveError = iota + 1
	ErrNonFinite
	ErrUnbounded
	ErrIterationLimit
)

// Error returns a string representation of the given error value.
func (e SolveError) Error() string {
	switch e {
	case ErrDimension:
		return "tableau: inconsistent problem dimensions"
	case ErrNonFinite:
		return "tableau: NaN or infinite coefficient"
	case ErrUnbounded:
		return "tableau: problem is unbounded"
	case ErrIterationLimit:
		return "tableau: iteration limit reached"
	default:
		panic("unrecognized error")
	}
}
