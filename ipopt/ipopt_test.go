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
package ipopt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigopti/pyodhean"
	"github.com/sigopti/pyodhean/ipopt"
	"github.com/sigopti/pyodhean/nlp"
)

// buildSmallProblem is min (x-2)² + (y-3)² subject to x + y == 4,
// whose optimum is (1.5, 2.5).
func buildSmallProblem() (*nlp.Problem, *nlp.Variable, *nlp.Variable) {
	p := nlp.NewProblem("small")
	x := p.AddVariable("x", -10, 10, 0)
	y := p.AddVariable("y", -10, 10, 0)
	p.AddConstraint("sum", 4, 4, func(v []float64) float64 {
		return x.At(v) + y.At(v)
	})
	p.SetObjective(func(v []float64) float64 {
		dx := x.At(v) - 2
		dy := y.At(v) - 3
		return dx*dx + dy*dy
	})
	return p, x, y
}

func TestSolveSmallProblem(t *testing.T) {
	if testing.Short() {
		t.Skip("needs the IPOPT shared library")
	}

	solver, err := ipopt.New()
	require.NoError(t, err)

	p, _, _ := buildSmallProblem()
	res, err := solver.Solve(p, nlp.Options{"tol": 1e-8})
	require.NoError(t, err)
	require.True(t, res.Ok())
	assert.Equal(t, "optimal", res.TerminationCondition)
}

func TestSolveSmallProblemValues(t *testing.T) {
	if testing.Short() {
		t.Skip("needs the IPOPT shared library")
	}

	solver, err := ipopt.New()
	require.NoError(t, err)

	p, x, y := buildSmallProblem()
	res, err := solver.Solve(p, nlp.Options{"tol": 1e-8})
	require.NoError(t, err)
	require.True(t, res.Ok())

	assert.InDelta(t, 1.5, res.Value(x), 1e-4)
	assert.InDelta(t, 2.5, res.Value(y), 1e-4)
	assert.InDelta(t, 0.5, res.Objective, 1e-4)
}

func TestSolveCancelledContext(t *testing.T) {
	if testing.Short() {
		t.Skip("needs the IPOPT shared library")
	}

	solver, err := ipopt.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _, _ := buildSmallProblem()
	res, err := solver.SolveWithContext(ctx, p, nil)
	require.NoError(t, err)
	assert.False(t, res.Ok())
	assert.Equal(t, "userInterrupt", res.TerminationCondition)
}

func TestInvalidOption(t *testing.T) {
	if testing.Short() {
		t.Skip("needs the IPOPT shared library")
	}

	solver, err := ipopt.New()
	require.NoError(t, err)

	p, _, _ := buildSmallProblem()
	_, err = solver.Solve(p, nlp.Options{"no_such_option": 1.0})
	require.Error(t, err)
}

/* End-to-end network scenarios */

func scenarioModel(t *testing.T) *pyodhean.Model {
	t.Helper()

	production := map[string]pyodhean.ProductionNode{
		"P1": {Technologies: map[string]pyodhean.Technology{
			"k1": {Eff: 0.9, TOutMax: 100, TInMin: 30, CHprodUnit: 800, CHeatUnit: 0.08, RateI: 0.04},
			"k2": {Eff: 0.9, TOutMax: 100, TInMin: 30, CHprodUnit: 1000, CHeatUnit: 0.08, RateI: 0.04},
		}},
	}
	consumption := map[string]pyodhean.ConsumptionNode{
		"C1": {HReq: 80, TReqOut: 80, TReqIn: 60},
		"C2": {HReq: 80, TReqOut: 80, TReqIn: 60},
	}
	config := pyodhean.Configuration{
		ProdConsPipes: map[pyodhean.Pair]float64{
			{Source: "P1", Target: "C1"}: 10,
		},
		ConsConsPipes: map[pyodhean.Pair]float64{
			{Source: "C1", Target: "C2"}: 100,
		},
	}

	m, err := pyodhean.New(production, consumption, config)
	require.NoError(t, err)
	return m
}

func TestNetworkConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("needs the IPOPT shared library")
	}

	solver, err := ipopt.New()
	require.NoError(t, err)

	result, err := scenarioModel(t).Solve(solver, nlp.Options{"tol": 1e-3})
	require.NoError(t, err)

	require.True(t, result.Success, "termination: %s", result.TerminationCondition)
	require.NotNil(t, result.Solution)

	// demands are met exactly
	assert.InDelta(t, 80, result.Solution.Consumption["C1"].ExchangedPower, 0.5)
	assert.InDelta(t, 80, result.Solution.Consumption["C2"].ExchangedPower, 0.5)

	ind := result.Solution.GlobalIndicators
	assert.Greater(t, ind.TotalCost, 0.0)
	assert.Equal(t, 220.0, ind.NetworkLength)
}

func TestNetworkIterationCap(t *testing.T) {
	if testing.Short() {
		t.Skip("needs the IPOPT shared library")
	}

	solver, err := ipopt.New()
	require.NoError(t, err)

	result, err := scenarioModel(t).Solve(solver, nlp.Options{"tol": 1e-3, "max_iter": 2})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, nlp.StatusWarning, result.Status)
	assert.Equal(t, "maxIterations", result.TerminationCondition)
	assert.Nil(t, result.Solution)
}
