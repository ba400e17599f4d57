/*
Copyright © 2019-2024 Sigopti

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

package nlp

/* Types */

// Status is the solver's tri-state outcome.
type Status int

const (
	// StatusOK means the solver converged to a solution.
	StatusOK Status = iota
	// StatusWarning means the solver terminated without a usable
	// solution for a recoverable reason (iteration limit, infeasible
	// problem, user abort).
	StatusWarning
	// StatusError means the solver failed outright.
	StatusError
)

// String returns the status as reported to callers: "ok", "warning" or
// "error".
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		panic("unrecognized status")
	}
}

// Result is the outcome of a solve attempt. Values is populated only
// when Status is StatusOK; otherwise TerminationCondition carries the
// solver's reason.
type Result struct {
	Status               Status
	TerminationCondition string
	Values               []float64
	Objective            float64
}

// Ok reports whether the solver converged and Values is populated.
func (r *Result) Ok() bool {
	return r.Status == StatusOK
}

// Value returns the computed value of the given variable for this
// result. It must only be called when Ok returns true.
func (r *Result) Value(v *Variable) float64 {
	return r.Values[v.index]
}
