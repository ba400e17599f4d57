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

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 0.0000001 // acceptable numerical deviation for test results

func buildQuadratic() (*Problem, *Variable, *Variable) {
	p := NewProblem("quadratic")
	x := p.AddVariable("x", 0, 10, 1)
	y := p.AddVariable("y", -5, 5, 0)
	p.AddConstraint("sum", 1, 1, func(v []float64) float64 {
		return x.At(v) + y.At(v)
	})
	p.SetObjective(func(v []float64) float64 {
		xv, yv := x.At(v), y.At(v)
		return xv*xv + yv*yv
	})
	return p, x, y
}

func TestProblemConstruction(t *testing.T) {
	p, x, y := buildQuadratic()

	assert.Equal(t, "quadratic", p.Name())
	assert.Equal(t, 2, p.VariableCount())
	assert.Equal(t, 1, p.ConstraintCount())

	assert.Equal(t, "x", x.Name())
	assert.Equal(t, 0, x.Index())
	assert.Equal(t, 1, y.Index())

	lower, upper := y.Bounds()
	assert.Equal(t, -5.0, lower)
	assert.Equal(t, 5.0, upper)
	assert.Equal(t, 1.0, x.Initial())
}

func TestBoundsVectors(t *testing.T) {
	p, _, _ := buildQuadratic()

	lower := make([]float64, p.VariableCount())
	upper := make([]float64, p.VariableCount())
	p.Bounds(lower, upper)
	assert.Equal(t, []float64{0, -5}, lower)
	assert.Equal(t, []float64{10, 5}, upper)

	cl := make([]float64, p.ConstraintCount())
	cu := make([]float64, p.ConstraintCount())
	p.ConstraintBounds(cl, cu)
	assert.Equal(t, []float64{1}, cl)
	assert.Equal(t, []float64{1}, cu)

	assert.Equal(t, []float64{1, 0}, p.InitialValues())
}

func TestEvaluation(t *testing.T) {
	p, _, _ := buildQuadratic()

	x := []float64{3, -2}
	assert.InDelta(t, 13, p.EvalObjective(x), delta)

	g := make([]float64, p.ConstraintCount())
	p.EvalConstraints(x, g)
	assert.InDelta(t, 1, g[0], delta)
}

func TestConstraintLookup(t *testing.T) {
	p, _, _ := buildQuadratic()

	c := p.Constraint("sum")
	require.NotNil(t, c)
	assert.Equal(t, "sum", c.Name())

	assert.Nil(t, p.Constraint("no such constraint"))
}

func TestConstraintViolation(t *testing.T) {
	p := NewProblem("violation")
	x := p.AddVariable("x", 0, 10, 0)
	p.AddConstraint("box", 2, 4, x.At)

	c := p.Constraint("box")
	require.NotNil(t, c)

	assert.InDelta(t, 0, c.Violation([]float64{3}), delta)
	assert.InDelta(t, 1, c.Violation([]float64{1}), delta)
	assert.InDelta(t, 2, c.Violation([]float64{6}), delta)
}

func TestSetBounds(t *testing.T) {
	p := NewProblem("bounds")
	x := p.AddVariable("x", 0, 1, 0.5)

	x.SetBounds(0, 0)
	x.SetInitial(0)

	lower, upper := x.Bounds()
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 0.0, upper)
	assert.Equal(t, 0.0, x.Initial())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "warning", StatusWarning.String())
	assert.Equal(t, "error", StatusError.String())

	assert.Panics(t, func() {
		_ = Status(42).String()
	})
}

func TestResultValue(t *testing.T) {
	_, x, y := buildQuadratic()

	res := &Result{
		Status: StatusOK,
		Values: []float64{2, -1},
	}
	require.True(t, res.Ok())
	assert.Equal(t, 2.0, res.Value(x))
	assert.Equal(t, -1.0, res.Value(y))
}

func TestInf(t *testing.T) {
	assert.True(t, math.IsInf(Inf(), 1))
}
