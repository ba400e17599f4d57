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
package pyodhean

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigopti/pyodhean/nlp"
)

const delta = 0.0000001 // acceptable numerical deviation for test results

func testProduction() map[string]ProductionNode {
	coverage := 0.80
	return map[string]ProductionNode{
		"P1": {Technologies: map[string]Technology{
			"k1": {
				Eff: 0.9, TOutMax: 100, TInMin: 30,
				CHprodUnit: 800, CHeatUnit: 0.08, RateI: 0.04,
				CoverageRate: &coverage,
			},
			"k2": {
				Eff: 0.9, TOutMax: 100, TInMin: 30,
				CHprodUnit: 1000, CHeatUnit: 0.08, RateI: 0.04,
			},
		}},
	}
}

func testConsumption() map[string]ConsumptionNode {
	return map[string]ConsumptionNode{
		"C1": {HReq: 80, TReqOut: 80, TReqIn: 60},
		"C2": {HReq: 80, TReqOut: 80, TReqIn: 60},
	}
}

func testConfiguration() Configuration {
	return Configuration{
		ProdConsPipes: map[Pair]float64{
			{Source: "P1", Target: "C1"}: 10,
		},
		ConsConsPipes: map[Pair]float64{
			{Source: "C1", Target: "C2"}: 100,
		},
	}
}

func testModel(t *testing.T, opts ...Option) *Model {
	t.Helper()

	m, err := New(testProduction(), testConsumption(), testConfiguration(), opts...)
	require.NoError(t, err)
	return m
}

// setValue writes a variable value into a raw solver vector.
func setValue(x []float64, v *nlp.Variable, value float64) {
	x[v.Index()] = value
}

func TestNew(t *testing.T) {
	m := testModel(t)
	p := m.Problem()

	// 12 directional pipes with 6 variables each, 2 technologies with
	// 4, 1 producer with 3, 2 consumers with 12, 8 cost accumulators.
	assert.Equal(t, 115, p.VariableCount())
	assert.Greater(t, p.ConstraintCount(), 100)
}

func TestNewInvalidOverride(t *testing.T) {
	_, err := New(testProduction(), testConsumption(), testConfiguration(),
		WithParameterOverrides(map[string]float64{"bogus": 1}))
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewUnknownLinkTarget(t *testing.T) {
	config := testConfiguration()
	config.ProdConsPipes[Pair{"P1", "C9"}] = 5

	_, err := New(testProduction(), testConsumption(), config)
	require.Error(t, err)
}

func TestDeterministicAssembly(t *testing.T) {
	m1 := testModel(t)
	m2 := testModel(t)

	vars1 := m1.Problem().Variables()
	vars2 := m2.Problem().Variables()
	require.Equal(t, len(vars1), len(vars2))
	for i := range vars1 {
		assert.Equal(t, vars1[i].Name(), vars2[i].Name())
		l1, u1 := vars1[i].Bounds()
		l2, u2 := vars2[i].Bounds()
		assert.Equal(t, l1, l2)
		assert.Equal(t, u1, u2)
		assert.Equal(t, vars1[i].Initial(), vars2[i].Initial())
	}

	cons1 := m1.Problem().Constraints()
	cons2 := m2.Problem().Constraints()
	require.Equal(t, len(cons1), len(cons2))
	for i := range cons1 {
		assert.Equal(t, cons1[i].Name(), cons2[i].Name())
	}
}

func TestExistenceGating(t *testing.T) {
	m := testModel(t)
	p := m.Problem()

	// the P1->C1 pipe exists: velocity may reach the physical maximum
	c := p.Constraint("Ex_V_linePC_max[P1,C1]")
	require.NotNil(t, c)
	_, upper := c.Bounds()
	assert.Equal(t, 3.0, upper)

	// the P1->C2 route was not declared: velocity is forced to 0
	c = p.Constraint("Ex_V_linePC_max[P1,C2]")
	require.NotNil(t, c)
	_, upper = c.Bounds()
	assert.Equal(t, 0.0, upper)

	// same gating on the flow rate
	c = p.Constraint("Ex_M_linePC_max[P1,C2]")
	require.NotNil(t, c)
	_, upper = c.Bounds()
	assert.Equal(t, 0.0, upper)
}

func TestSpeedMinGatedNotBounded(t *testing.T) {
	m, err := New(testProduction(), testConsumption(), testConfiguration(),
		WithParameterOverrides(map[string]float64{"speed_min": 0.1}))
	require.NoError(t, err)
	p := m.Problem()

	// the minimum speed only binds through the existence gate: the raw
	// variable bound stays at 0 so an absent route keeps a feasible V=0
	for _, pair := range []Pair{{"P1", "C1"}, {"P1", "C2"}} {
		lower, _ := m.vars.linePC.V[pair].Bounds()
		assert.Equal(t, 0.0, lower)
	}

	c := p.Constraint("Ex_V_linePC_min[P1,C1]")
	require.NotNil(t, c)
	lower, _ := c.Bounds()
	assert.InDelta(t, 0.1, lower, delta)

	c = p.Constraint("Ex_V_linePC_min[P1,C2]")
	require.NotNil(t, c)
	lower, _ = c.Bounds()
	assert.Equal(t, 0.0, lower)
}

func TestBigMVelocityFlowCoupling(t *testing.T) {
	m := testModel(t)
	p := m.Problem()

	c := p.Constraint("Def_V_linePC_bigM[P1,C1]")
	require.NotNil(t, c)

	// existing pipe: the relaxation collapses to a tight equality
	lower, upper := c.Bounds()
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 0.0, upper)

	pair := Pair{"P1", "C1"}
	x := p.InitialValues()
	setValue(x, m.vars.linePC.V[pair], 1)
	setValue(x, m.vars.linePC.Dint[pair], 0.1)
	setValue(x, m.vars.linePC.M[pair], 974*math.Pi*0.01/4)
	assert.InDelta(t, 0, c.Eval(x), delta)

	// absent pipe: the slack is the full big-M band
	c = p.Constraint("Def_V_linePC_bigM[P1,C2]")
	require.NotNil(t, c)
	lower, upper = c.Bounds()
	assert.InDelta(t, -m.derived.MBigM, lower, delta)
	assert.InDelta(t, m.derived.MBigM, upper, delta)
}

func TestGeometricDiameter(t *testing.T) {
	m := testModel(t)
	c := m.Problem().Constraint("Def_Dout_PC[P1,C1]")
	require.NotNil(t, c)

	pair := Pair{"P1", "C1"}
	x := m.Problem().InitialValues()
	setValue(x, m.vars.linePC.Dint[pair], 0.1)
	setValue(x, m.vars.linePC.Dout[pair], 0.1+0.025+0.0276)
	assert.InDelta(t, 0, c.Eval(x), delta)
}

func TestMassBalanceSupply(t *testing.T) {
	m := testModel(t)
	c := m.Problem().Constraint("bilanA_debit_supply[C1]")
	require.NotNil(t, c)

	x := m.Problem().InitialValues()
	setValue(x, m.vars.MSupply["C1"], 5)
	setValue(x, m.vars.linePC.M[Pair{"P1", "C1"}], 3)
	setValue(x, m.vars.lineCCPar.M[Pair{"C2", "C1"}], 2)
	assert.InDelta(t, 0, c.Eval(x), delta)

	setValue(x, m.vars.MSupply["C1"], 6)
	assert.InDelta(t, 1, c.Eval(x), delta)
}

func TestEnergyBalanceMixing(t *testing.T) {
	m := testModel(t)
	c := m.Problem().Constraint("bilanA_H_supply[C1]")
	require.NotNil(t, c)

	// 3 kg/s at 90°C mixed with 2 kg/s at 65°C gives 5 kg/s at 80°C
	x := m.Problem().InitialValues()
	setValue(x, m.vars.MSupply["C1"], 5)
	setValue(x, m.vars.TSupply["C1"], 80)
	setValue(x, m.vars.linePC.M[Pair{"P1", "C1"}], 3)
	setValue(x, m.vars.linePC.TOut[Pair{"P1", "C1"}], 90)
	setValue(x, m.vars.lineCCPar.M[Pair{"C2", "C1"}], 2)
	setValue(x, m.vars.lineCCPar.TOut[Pair{"C2", "C1"}], 65)
	assert.InDelta(t, 0, c.Eval(x), delta)
}

func TestHeatLoss(t *testing.T) {
	m := testModel(t)
	c := m.Problem().Constraint("loss_linePC[P1,C1]")
	require.NotNil(t, c)

	// 10 m at 0.002 °C/m
	pair := Pair{"P1", "C1"}
	x := m.Problem().InitialValues()
	setValue(x, m.vars.linePC.TIn[pair], 90)
	setValue(x, m.vars.linePC.TOut[pair], 89.98)
	assert.InDelta(t, 0, c.Eval(x), delta)
}

func TestExchangerSurrogate(t *testing.T) {
	m := testModel(t)
	c := m.Problem().Constraint("diffTemplog[C1]")
	require.NotNil(t, c)

	x := m.Problem().InitialValues()
	setValue(x, m.vars.DT1["C1"], 20)
	setValue(x, m.vars.DT2["C1"], 10)
	setValue(x, m.vars.DTLM["C1"], math.Cbrt(20*10*0.5*30))
	assert.InDelta(t, 0, c.Eval(x), delta)
}

func TestExchangerDemand(t *testing.T) {
	m := testModel(t)
	c := m.Problem().Constraint("contrainte_appro[C1]")
	require.NotNil(t, c)

	lower, upper := c.Bounds()
	assert.Equal(t, 80.0, lower)
	assert.Equal(t, 80.0, upper)
}

func TestZeroDemandConsumer(t *testing.T) {
	consumption := testConsumption()
	consumption["C3"] = ConsumptionNode{HReq: 0, TReqOut: 80, TReqIn: 60}
	config := testConfiguration()
	config.ConsConsPipes[Pair{"C2", "C3"}] = 50

	m, err := New(testProduction(), consumption, config)
	require.NoError(t, err)

	// flow and deltas pinned to zero
	lower, upper := m.vars.MHx["C3"].Bounds()
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 0.0, upper)
	lower, upper = m.vars.DTLM["C3"].Bounds()
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 0.0, upper)

	// the singular delta equations are not emitted
	assert.Nil(t, m.Problem().Constraint("bilan_DT1[C3]"))
	assert.Nil(t, m.Problem().Constraint("diffTemplog[C3]"))

	// the pass-through balances still are
	assert.NotNil(t, m.Problem().Constraint("bilan_chaleur_HX[C3]"))
	assert.NotNil(t, m.Problem().Constraint("bilanA_debit_supply[C3]"))
}

func TestCoverageRate(t *testing.T) {
	m := testModel(t)
	p := m.Problem()

	c := p.Constraint("coverage_rate[P1:k1]")
	require.NotNil(t, c)
	assert.Nil(t, p.Constraint("coverage_rate[P1:k2]"))

	// k1 at 80% of a 100 kW total
	x := p.InitialValues()
	setValue(x, m.vars.HInst["P1:k1"], 80)
	setValue(x, m.vars.HInst["P1:k2"], 20)
	assert.InDelta(t, 0, c.Eval(x), delta)
}

func TestFlowRegularization(t *testing.T) {
	plain := testModel(t)
	regularized := testModel(t, WithFlowRegularization())

	x := plain.Problem().InitialValues()
	setValue(x, plain.vars.MProdTot["P1"], 7)
	base := plain.Problem().EvalObjective(x)

	x = regularized.Problem().InitialValues()
	setValue(x, regularized.vars.MProdTot["P1"], 7)
	assert.InDelta(t, base+7, regularized.Problem().EvalObjective(x), delta)
}

func TestObjectiveSum(t *testing.T) {
	m := testModel(t)
	p := m.Problem()

	x := p.InitialValues()
	setValue(x, m.vars.CPump, 1)
	setValue(x, m.vars.CHeat, 2)
	setValue(x, m.vars.CHinst, 3)
	setValue(x, m.vars.CHx, 4)
	setValue(x, m.vars.CLineTot, 5)
	// C_pipe and C_tr only enter through C_line_tot
	setValue(x, m.vars.CPipe, 100)
	setValue(x, m.vars.CTr, 100)
	assert.InDelta(t, 15, p.EvalObjective(x), delta)
}

func TestTrenchCost(t *testing.T) {
	m := testModel(t)
	c := m.Problem().Constraint("cout_canalisation_tranchee")
	require.NotNil(t, c)

	// both families of both routes: 2*(10+100) m of pipe, half-priced
	// trench at 800 €/ml, discounted, in M€
	want := 1e-6 * m.derived.FCapex * 800 / 2 * 220
	x := m.Problem().InitialValues()
	setValue(x, m.vars.CTr, want)
	assert.InDelta(t, 0, c.Eval(x), delta)
}

/* Solve and extraction */

type stubSolver struct {
	result *nlp.Result
	err    error
}

func (s stubSolver) Solve(p *nlp.Problem, options nlp.Options) (*nlp.Result, error) {
	return s.SolveWithContext(context.Background(), p, options)
}

func (s stubSolver) SolveWithContext(ctx context.Context, p *nlp.Problem, options nlp.Options) (*nlp.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	if res.Values == nil && res.Status == nlp.StatusOK {
		res.Values = p.InitialValues()
	}
	return &res, nil
}

func TestSolveExtraction(t *testing.T) {
	m := testModel(t)

	values := m.Problem().InitialValues()
	setValue(values, m.vars.MProdTot["P1"], 2.5)
	setValue(values, m.vars.TProdTotOut["P1"], 90)
	setValue(values, m.vars.HInst["P1:k1"], 100)
	setValue(values, m.vars.HInst["P1:k2"], 100)
	setValue(values, m.vars.HHx["C1"], 80)
	setValue(values, m.vars.linePC.M[Pair{"P1", "C1"}], 2.5)
	setValue(values, m.vars.linePC.TIn[Pair{"P1", "C1"}], 90)
	setValue(values, m.vars.lineCP.TOut[Pair{"C1", "P1"}], 60)
	setValue(values, m.vars.CHinst, 1.5)
	setValue(values, m.vars.LTot, 220)

	solver := stubSolver{result: &nlp.Result{
		Status:               nlp.StatusOK,
		TerminationCondition: "optimal",
		Values:               values,
	}}

	result, err := m.Solve(solver, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Solution)

	prod := result.Solution.Production["P1"]
	assert.Equal(t, 2.5, prod.FlowRate)
	assert.Equal(t, 90.0, prod.TSupply)
	require.Len(t, prod.Technologies, 2)
	assert.Equal(t, 100.0, prod.Technologies["k1"].InstalledPower)

	cons := result.Solution.Consumption["C1"]
	assert.Equal(t, 80.0, cons.ExchangedPower)

	// only declared routes are reported
	require.Len(t, result.Solution.ProdConsPipes, 1)
	require.Len(t, result.Solution.ConsConsPipes, 1)
	pipe := result.Solution.ProdConsPipes[Pair{"P1", "C1"}]
	assert.Equal(t, 2.5, pipe.FlowRate)
	// 2.5 kg/s cooled from 90°C supply to 60°C return
	assert.InDelta(t, 2.5*4.196*30, pipe.Power, delta)
	assert.InDelta(t, pipe.Power*5808, pipe.YearlyEnergy, delta)

	ind := result.Solution.GlobalIndicators
	assert.InDelta(t, 1.5e6, ind.ProductionCapex, delta)
	assert.Equal(t, 220.0, ind.NetworkLength)
	assert.InDelta(t, 200*5808*0.7*1.05, ind.YearlyProduction, 1e-6)
	assert.InDelta(t, ind.YearlyProduction*15, ind.TotalProduction, 1e-3)
}

func TestSolveNonConvergence(t *testing.T) {
	m := testModel(t)

	solver := stubSolver{result: &nlp.Result{
		Status:               nlp.StatusWarning,
		TerminationCondition: "maxIterations",
	}}

	result, err := m.Solve(solver, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, nlp.StatusWarning, result.Status)
	assert.Equal(t, "maxIterations", result.TerminationCondition)
	assert.Nil(t, result.Solution)
}
