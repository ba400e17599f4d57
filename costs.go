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

// assembleCosts writes the annualized cost equalities and sets the
// objective. All cost variables are in M€; the 1e-6 factor converts
// from € so the objective terms stay well scaled for the solver.
func assembleCosts(p *nlp.Problem, top *topology, params Parameters, der derived, v modelVars, flowRegularization bool) {
	const scale = 1e-6

	// Energy cost over the depreciation period, discounted and
	// inflated per technology, corrected for simultaneity and network
	// losses.
	heatFactor := scale * params.OperationTime * params.SimultaneityRatio * (1 + params.HeatLossRate)
	heatTerms := []*nlp.Variable{}
	heatCoeffs := []float64{}
	for _, k := range top.techs {
		heatTerms = append(heatTerms, v.HInst[k])
		heatCoeffs = append(heatCoeffs, der.FOpex[k]*top.techDefs[k].CHeatUnit)
	}
	cHeat := v.CHeat
	p.AddConstraint("cout_heat", 0, 0, func(x []float64) float64 {
		var total float64
		for i, h := range heatTerms {
			total += heatCoeffs[i] * h.At(x)
		}
		return cHeat.At(x) - heatFactor*total
	})

	// Pumping cost as a fixed fraction of the total energy spend.
	cPump := v.CPump
	ratio := params.PumpEnergyRatioCost
	p.AddConstraint("cout_pompage", 0, 0, func(x []float64) float64 {
		return cPump.At(x) - ratio*(cPump.At(x)+cHeat.At(x))
	})

	// Production capacity investment.
	prodCoeffs := []float64{}
	for _, k := range top.techs {
		prodCoeffs = append(prodCoeffs, top.techDefs[k].CHprodUnit)
	}
	cHinst := v.CHinst
	fCapex := scale * der.FCapex
	p.AddConstraint("cout_puissance", 0, 0, func(x []float64) float64 {
		var total float64
		for i, h := range heatTerms {
			total += prodCoeffs[i] * h.At(x)
		}
		return cHinst.At(x) - fCapex*total
	})

	// Exchanger investment, affine in the exchanged power.
	hxVars := []*nlp.Variable{}
	for _, j := range top.consumers {
		hxVars = append(hxVars, v.HHx[j])
	}
	hxFixed := params.ExchangerPowerCostYIntercept * float64(len(top.consumers))
	cHx := v.CHx
	aHx := params.ExchangerPowerCostSlope
	p.AddConstraint("cout_echangeur", 0, 0, func(x []float64) float64 {
		var total float64
		for _, h := range hxVars {
			total += aHx * h.At(x)
		}
		return cHx.At(x) - fCapex*(total+hxFixed)
	})

	// Pipe investment, affine in the internal diameter, per meter.
	families := []*pipeFamily{&v.linePC, &v.lineCP, &v.lineCCPar, &v.lineCCRet}
	pipeDiams := []*nlp.Variable{}
	pipeLens := []float64{}
	var totalLength float64
	for _, fam := range families {
		for _, pair := range fam.pairs {
			pipeDiams = append(pipeDiams, fam.Dint[pair])
			pipeLens = append(pipeLens, fam.length[pair])
			totalLength += fam.length[pair]
		}
	}
	cPipe := v.CPipe
	aPipe := params.PipeDiameterUnitCostSlope
	bPipe := params.PipeDiameterUnitCostYIntercept
	p.AddConstraint("cout_canalisation_tuyau", 0, 0, func(x []float64) float64 {
		var total float64
		for i, d := range pipeDiams {
			total += pipeLens[i] * (aPipe*d.At(x) + bPipe)
		}
		return cPipe.At(x) - fCapex*total
	})

	// Trench investment. Supply and return share a trench, hence the
	// half unit cost over the summed pipe lengths.
	cTr := v.CTr
	trenchTotal := fCapex * params.TrenchUnitCost / 2 * totalLength
	p.AddConstraint("cout_canalisation_tranchee", 0, 0, func(x []float64) float64 {
		return cTr.At(x) - trenchTotal
	})

	cLineTot := v.CLineTot
	p.AddConstraint("cout_canalisation_tot", 0, 0, func(x []float64) float64 {
		return cLineTot.At(x) - cPipe.At(x) - cTr.At(x)
	})

	// Total laid pipe length, twice the trench length since supply and
	// return run side by side.
	lTot := v.LTot
	laid := totalLength
	p.AddConstraint("Ex_L_tot", 0, 0, func(x []float64) float64 {
		return lTot.At(x) - laid
	})

	objectiveTerms := []*nlp.Variable{cPump, cHeat, cHinst, cHx, cLineTot}

	// The optional regularizer adds the total production flow to the
	// objective, nudging the solver away from flat flow directions on
	// degenerate topologies.
	regTerms := []*nlp.Variable{}
	if flowRegularization {
		for _, i := range top.producers {
			regTerms = append(regTerms, v.MProdTot[i])
		}
	}
	p.SetObjective(func(x []float64) float64 {
		total := sumAt(x, objectiveTerms)
		total += sumAt(x, regTerms)
		return total
	})
}
