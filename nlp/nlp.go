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

// Package nlp holds an assembled nonlinear program: continuous variables
// with bounds and initial values, two-sided constraints over nonlinear
// evaluation functions, and a scalar objective. It is the hand-off point
// between problem assembly and an external solver.
package nlp

import (
	"context"
	"fmt"
	"math"
)

// Func evaluates a scalar expression at the given variable assignment.
// The slice is indexed by variable index, in declaration order.
type Func func(x []float64) float64

// Problem is a nonlinear program under construction. It is not safe for
// concurrent mutation; independent problems may be solved in parallel.
type Problem struct {
	name        string
	vars        []*Variable
	constraints []*Constraint
	objective   Func
}

// Variable is a continuous decision variable bound to its problem.
type Variable struct {
	problem *Problem
	index   int
	name    string
	lower   float64
	upper   float64
	initial float64
}

// Constraint restricts an expression to lower <= f(x) <= upper.
// Equalities are expressed with lower == upper.
type Constraint struct {
	name  string
	lower float64
	upper float64
	f     Func
}

// NewProblem instantiates an empty problem. The name is purely
// informational.
func NewProblem(name string) *Problem {
	return &Problem{name: name}
}

// Name returns the name provided upon instantiation of a problem.
func (p *Problem) Name() string {
	return p.name
}

// AddVariable declares a continuous variable with its bounds and initial
// value. A fixed variable is declared with lower == upper.
// Empty names are automatically replaced by a unique name.
func (p *Problem) AddVariable(name string, lower, upper, initial float64) *Variable {
	if name == "" {
		name = fmt.Sprintf("V%d", len(p.vars))
	}

	v := &Variable{
		problem: p,
		index:   len(p.vars),
		name:    name,
		lower:   lower,
		upper:   upper,
		initial: initial,
	}
	p.vars = append(p.vars, v)

	return v
}

// AddConstraint adds a two-sided constraint lower <= f(x) <= upper.
// Use math.Inf to leave a side open.
func (p *Problem) AddConstraint(name string, lower, upper float64, f Func) {
	p.constraints = append(p.constraints, &Constraint{
		name:  name,
		lower: lower,
		upper: upper,
		f:     f,
	})
}

// SetObjective defines the scalar objective to be minimized.
func (p *Problem) SetObjective(f Func) {
	p.objective = f
}

// VariableCount returns the number of declared variables.
func (p *Problem) VariableCount() int {
	return len(p.vars)
}

// ConstraintCount returns the number of individual constraints.
func (p *Problem) ConstraintCount() int {
	return len(p.constraints)
}

// Variables returns the problem's variables in declaration order.
// The slice must not be modified.
func (p *Problem) Variables() []*Variable {
	return p.vars
}

// Constraints returns the problem's constraints in declaration order.
// The slice must not be modified.
func (p *Problem) Constraints() []*Constraint {
	return p.constraints
}

// Constraint returns the constraint with the given name, or nil.
func (p *Problem) Constraint(name string) *Constraint {
	for _, c := range p.constraints {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Bounds fills lower and upper with the variable bounds, in declaration
// order. Both slices must have length VariableCount.
func (p *Problem) Bounds(lower, upper []float64) {
	for i, v := range p.vars {
		lower[i] = v.lower
		upper[i] = v.upper
	}
}

// ConstraintBounds fills lower and upper with the constraint bounds, in
// declaration order. Both slices must have length ConstraintCount.
func (p *Problem) ConstraintBounds(lower, upper []float64) {
	for i, c := range p.constraints {
		lower[i] = c.lower
		upper[i] = c.upper
	}
}

// InitialValues returns a fresh assignment vector holding every
// variable's initial value.
func (p *Problem) InitialValues() []float64 {
	x := make([]float64, len(p.vars))
	for i, v := range p.vars {
		x[i] = v.initial
	}
	return x
}

// EvalConstraints evaluates every constraint expression at x into dst,
// which must have length ConstraintCount.
func (p *Problem) EvalConstraints(x, dst []float64) {
	for i, c := range p.constraints {
		dst[i] = c.f(x)
	}
}

// EvalObjective evaluates the objective at x. A problem without an
// objective evaluates to 0.
func (p *Problem) EvalObjective(x []float64) float64 {
	if p.objective == nil {
		return 0
	}
	return p.objective(x)
}

/* Variable-related functions (model variables, as opposed to Go variables) */

// Name returns the variable's name.
func (v *Variable) Name() string {
	return v.name
}

// Index returns the variable's position in the assignment vector.
func (v *Variable) Index() int {
	return v.index
}

// Bounds returns the variable's lower and upper bounds.
func (v *Variable) Bounds() (lower, upper float64) {
	return v.lower, v.upper
}

// Initial returns the variable's initial value.
func (v *Variable) Initial() float64 {
	return v.initial
}

// At returns the variable's value in the given assignment vector.
func (v *Variable) At(x []float64) float64 {
	return x[v.index]
}

// SetBounds overrides the variable's bounds. Passing lower == upper pins
// the variable to a single value.
func (v *Variable) SetBounds(lower, upper float64) {
	v.lower = lower
	v.upper = upper
}

// SetInitial overrides the variable's initial value.
func (v *Variable) SetInitial(initial float64) {
	v.initial = initial
}

/* Constraint accessors */

// Name returns the constraint's name.
func (c *Constraint) Name() string {
	return c.name
}

// Bounds returns the constraint's lower and upper bounds.
func (c *Constraint) Bounds() (lower, upper float64) {
	return c.lower, c.upper
}

// Eval evaluates the constraint expression at x.
func (c *Constraint) Eval(x []float64) float64 {
	return c.f(x)
}

// Violation returns how far the constraint value at x lies outside its
// bounds; 0 when satisfied.
func (c *Constraint) Violation(x []float64) float64 {
	val := c.f(x)
	switch {
	case val < c.lower:
		return c.lower - val
	case val > c.upper:
		return val - c.upper
	default:
		return 0
	}
}

// Options is a pass-through map of solver-specific tuning options, e.g.
// "tol" or "max_iter" for IPOPT. No defaults are enforced here.
type Options map[string]interface{}

// Solver abstracts the external nonlinear optimizer consumed as a black
// box. Implementations receive the fully assembled problem and report a
// status plus, on success, a complete variable assignment.
type Solver interface {
	Solve(p *Problem, options Options) (*Result, error)
	SolveWithContext(ctx context.Context, p *Problem, options Options) (*Result, error)
}

// Inf returns positive infinity, for use as an open bound.
func Inf() float64 {
	return math.Inf(1)
}
