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
	"github.com/sigopti/pyodhean/nlp"
)

// Result is the outcome of a solve attempt. Non-convergence is data,
// not an error: Success is false, TerminationCondition carries the
// solver's detail and Solution is nil.
type Result struct {
	Success              bool
	Status               nlp.Status
	TerminationCondition string
	Solution             *Solution
}

// Solution is the designed network, read back from the solver values.
type Solution struct {
	Production       map[string]ProductionResult
	Consumption      map[string]ConsumptionResult
	ProdConsPipes    map[Pair]PipeResult
	ConsConsPipes    map[Pair]PipeResult
	GlobalIndicators GlobalIndicators
}

// TechnologyResult describes one production technology. TReturn is the
// node's mixed return temperature, shared across its technologies.
type TechnologyResult struct {
	FlowRate       float64 // kg/s
	TSupply        float64 // °C
	TReturn        float64 // °C
	InstalledPower float64 // kW
}

// ProductionResult aggregates a production node and its technologies.
type ProductionResult struct {
	FlowRate     float64 // kg/s
	TSupply      float64 // °C
	TReturn      float64 // °C
	Technologies map[string]TechnologyResult
}

// ConsumptionResult describes the substation exchanger of a consumer.
type ConsumptionResult struct {
	FlowRate       float64 // kg/s, primary side
	TSupply        float64 // °C, node supply header
	TReturn        float64 // °C, node return header
	THxIn          float64 // °C
	THxOut         float64 // °C
	DT1            float64 // °C
	DT2            float64 // °C
	DTLM           float64 // °C
	ExchangerArea  float64 // m²
	ExchangedPower float64 // kW
}

// PipeResult describes one installed route, supply and return legs
// together.
type PipeResult struct {
	Speed        float64 // m/s
	DiameterInt  float64 // m
	DiameterOut  float64 // m
	FlowRate     float64 // kg/s
	TSupplyIn    float64 // °C
	TSupplyOut   float64 // °C
	TReturnIn    float64 // °C
	TReturnOut   float64 // °C
	Power        float64 // kW carried by the route
	YearlyEnergy float64 // kWh
}

// GlobalIndicators are the reporting rollups. Costs are in €, undoing
// the model's internal M€ scaling; production figures in kWh.
type GlobalIndicators struct {
	ProductionCapex  float64
	ExchangersCapex  float64
	NetworkCapex     float64
	TotalCapex       float64
	PumpsOpex        float64
	HeatOpex         float64
	TotalOpex        float64
	TotalCost        float64
	YearlyProduction float64
	TotalProduction  float64
	NetworkLength    float64 // m of laid pipe
}

// extractSolution maps the raw value vector back onto the network. It
// is only called on an ok solver status.
func (m *Model) extractSolution(res *nlp.Result) *Solution {
	v := m.vars
	top := m.top

	sol := &Solution{
		Production:    make(map[string]ProductionResult, len(top.producers)),
		Consumption:   make(map[string]ConsumptionResult, len(top.consumers)),
		ProdConsPipes: make(map[Pair]PipeResult),
		ConsConsPipes: make(map[Pair]PipeResult),
	}

	for _, i := range top.producers {
		prod := ProductionResult{
			FlowRate:     res.Value(v.MProdTot[i]),
			TSupply:      res.Value(v.TProdTotOut[i]),
			TReturn:      res.Value(v.TProdTotIn[i]),
			Technologies: make(map[string]TechnologyResult, len(top.techsByProd[i])),
		}
		for _, k := range top.techsByProd[i] {
			prod.Technologies[top.techName[k]] = TechnologyResult{
				FlowRate:       res.Value(v.MProd[k]),
				TSupply:        res.Value(v.TProdOut[k]),
				TReturn:        res.Value(v.TProdIn[k]),
				InstalledPower: res.Value(v.HInst[k]),
			}
		}
		sol.Production[i] = prod
	}

	for _, j := range top.consumers {
		sol.Consumption[j] = ConsumptionResult{
			FlowRate:       res.Value(v.MHx[j]),
			TSupply:        res.Value(v.TSupply[j]),
			TReturn:        res.Value(v.TReturn[j]),
			THxIn:          res.Value(v.THxIn[j]),
			THxOut:         res.Value(v.THxOut[j]),
			DT1:            res.Value(v.DT1[j]),
			DT2:            res.Value(v.DT2[j]),
			DTLM:           res.Value(v.DTLM[j]),
			ExchangerArea:  res.Value(v.AHx[j]),
			ExchangedPower: res.Value(v.HHx[j]),
		}
	}

	// A route pairs the supply leg with its transposed return leg.
	for _, pair := range top.pcPairs() {
		if top.lenPC[pair] == 0 {
			continue
		}
		back := Pair{pair.Target, pair.Source}
		sol.ProdConsPipes[pair] = m.extractPipe(res, &v.linePC, pair, &v.lineCP, back)
	}
	for _, pair := range top.ccParallelPairs() {
		if top.lenCCParallel[pair] == 0 {
			continue
		}
		back := Pair{pair.Target, pair.Source}
		sol.ConsConsPipes[pair] = m.extractPipe(res, &v.lineCCPar, pair, &v.lineCCRet, back)
	}

	sol.GlobalIndicators = m.extractIndicators(res)
	return sol
}

func (m *Model) extractPipe(res *nlp.Result, supply *pipeFamily, fwd Pair, ret *pipeFamily, back Pair) PipeResult {
	flow := res.Value(supply.M[fwd])
	tSupplyIn := res.Value(supply.TIn[fwd])
	tReturnOut := res.Value(ret.TOut[back])
	power := flow * m.params.WaterCp * (tSupplyIn - tReturnOut)
	return PipeResult{
		Speed:        res.Value(supply.V[fwd]),
		DiameterInt:  res.Value(supply.Dint[fwd]),
		DiameterOut:  res.Value(supply.Dout[fwd]),
		FlowRate:     flow,
		TSupplyIn:    tSupplyIn,
		TSupplyOut:   res.Value(supply.TOut[fwd]),
		TReturnIn:    res.Value(ret.TIn[back]),
		TReturnOut:   tReturnOut,
		Power:        power,
		YearlyEnergy: power * m.params.OperationTime,
	}
}

func (m *Model) extractIndicators(res *nlp.Result) GlobalIndicators {
	const unscale = 1e6

	ind := GlobalIndicators{
		ProductionCapex: unscale * res.Value(m.vars.CHinst),
		ExchangersCapex: unscale * res.Value(m.vars.CHx),
		NetworkCapex:    unscale * res.Value(m.vars.CLineTot),
		PumpsOpex:       unscale * res.Value(m.vars.CPump),
		HeatOpex:        unscale * res.Value(m.vars.CHeat),
		NetworkLength:   res.Value(m.vars.LTot),
	}
	ind.TotalCapex = ind.ProductionCapex + ind.ExchangersCapex + ind.NetworkCapex
	ind.TotalOpex = ind.PumpsOpex + ind.HeatOpex
	ind.TotalCost = ind.TotalCapex + ind.TotalOpex

	var installed float64
	for _, k := range m.top.techs {
		installed += res.Value(m.vars.HInst[k])
	}
	ind.YearlyProduction = installed * m.params.OperationTime *
		m.params.SimultaneityRatio * (1 + m.params.HeatLossRate)
	ind.TotalProduction = ind.YearlyProduction * m.params.DepreciationPeriod
	return ind
}
