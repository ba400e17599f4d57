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
	"fmt"
	"math"

	"github.com/sigopti/pyodhean/nlp"
)

// assembleConstraints builds the full equation/inequality system. The
// whole system is solved simultaneously; ordering only matters for
// reproducibility of the assembled problem.
//
// Conditional existence is encoded with the big-M method: a constraint
// relaxed by a slack of 1000 times the natural range of its quantity
// is vacuous when the binary existence flag is 0 and collapses to a
// tight equality when it is 1.
func assembleConstraints(p *nlp.Problem, top *topology, params Parameters, der derived, v modelVars, consumption map[string]ConsumptionNode) {
	inf := nlp.Inf()

	families := []*pipeFamily{&v.linePC, &v.lineCP, &v.lineCCPar, &v.lineCCRet}

	// External diameter = internal diameter + metal wall + insulation,
	// for each of the four pipe families.
	wall := params.PipeThickness + params.PipeInsulationThickness
	for _, fam := range families {
		for _, pair := range fam.pairs {
			idx := pairIdx(pair)
			dout := fam.Dout[pair]
			dint := fam.Dint[pair]
			p.AddConstraint("Def_Dout_"+fam.dLabel+idx, 0, 0, func(x []float64) float64 {
				return dout.At(x) - dint.At(x) - wall
			})
		}
	}

	// Big-M coupling of velocity and flow rate: when the pipe exists
	// the relaxation collapses to M = V·rho·pi·D²/4; when it does not,
	// the direct existence bounds below force both to zero.
	rhoPiOver4 := params.WaterRho * math.Pi / 4
	for _, fam := range families {
		for _, pair := range fam.pairs {
			idx := pairIdx(pair)
			y := exists(fam.length[pair])
			slack := der.MBigM * (1 - y)
			vel := fam.V[pair]
			dint := fam.Dint[pair]
			flow := fam.M[pair]
			p.AddConstraint("Def_V_"+fam.label+"_bigM"+idx, -slack, slack, func(x []float64) float64 {
				d := dint.At(x)
				return vel.At(x)*rhoPiOver4*d*d - flow.At(x)
			})

			p.AddConstraint("Ex_V_"+fam.label+"_max"+idx, -inf, params.SpeedMax*y, vel.At)
			p.AddConstraint("Ex_V_"+fam.label+"_min"+idx, params.SpeedMin*y, inf, vel.At)
			p.AddConstraint("Ex_M_"+fam.label+"_max"+idx, -inf, der.MMax*y, flow.At)
		}
	}

	// Technology flow gating. Every listed technology is installed, so
	// the existence flag is 1 and the gate equals the natural bound.
	for _, k := range top.techs {
		const yP = 1.0
		flow := v.MProd[k]
		p.AddConstraint("Ex_M_prod_max["+k+"]", -inf, der.MMax*yP, flow.At)
		p.AddConstraint("Ex_M_prod_min["+k+"]", 0, inf, flow.At)
	}

	assembleMassBalances(p, top, v)
	assembleEnergyBalances(p, top, der, v)
	assembleHeatLoss(p, params, families)
	assembleProduction(p, top, params, der, v)
	assembleExchangers(p, top, params, v, consumption)
}

func pairIdx(pair Pair) string {
	return fmt.Sprintf("[%s,%s]", pair.Source, pair.Target)
}

// sumAt evaluates the sum of a set of variables at x.
func sumAt(x []float64, vars []*nlp.Variable) float64 {
	var total float64
	for _, v := range vars {
		total += v.At(x)
	}
	return total
}

// dotAt evaluates Σ flow·temperature over paired variable sets at x.
func dotAt(x []float64, flows, temps []*nlp.Variable) float64 {
	var total float64
	for i, f := range flows {
		total += f.At(x) * temps[i].At(x)
	}
	return total
}

// assembleMassBalances writes the mass conservation equalities at the
// topological junction points of every node: supply-side arrival (A)
// and split (B), return-side merge (D) and departure (E) at consumers;
// return arrival (F), technology split (G/H) and supply departure (I)
// at producers.
func assembleMassBalances(p *nlp.Problem, top *topology, v modelVars) {
	for _, j := range top.consumers {
		j := j

		// A: a consumer is fed by producers and by other consumers.
		inbound := []*nlp.Variable{}
		for _, i := range top.producers {
			inbound = append(inbound, v.linePC.M[Pair{i, j}])
		}
		for _, o := range top.consumers {
			if o != j {
				inbound = append(inbound, v.lineCCPar.M[Pair{o, j}])
			}
		}
		mSupply := v.MSupply[j]
		p.AddConstraint("bilanA_debit_supply["+j+"]", 0, 0, func(x []float64) float64 {
			return mSupply.At(x) - sumAt(x, inbound)
		})

		// B: part of the arriving flow feeds the exchanger, the rest
		// moves on to other consumers.
		onward := []*nlp.Variable{}
		for _, o := range top.consumers {
			if o != j {
				onward = append(onward, v.lineCCPar.M[Pair{j, o}])
			}
		}
		mHx := v.MHx[j]
		p.AddConstraint("bilanB_debit_hx_in["+j+"]", 0, 0, func(x []float64) float64 {
			return mSupply.At(x) - mHx.At(x) - sumAt(x, onward)
		})

		// D: the return flow merges the exchanger outlet with returns
		// from other consumers.
		backIn := []*nlp.Variable{}
		for _, o := range top.consumers {
			if o != j {
				backIn = append(backIn, v.lineCCRet.M[Pair{o, j}])
			}
		}
		mReturn := v.MReturn[j]
		p.AddConstraint("bilanD_debit_hx_out["+j+"]", 0, 0, func(x []float64) float64 {
			return mReturn.At(x) - mHx.At(x) - sumAt(x, backIn)
		})

		// E: the return flow leaves toward producers or other
		// consumers.
		backOut := []*nlp.Variable{}
		for _, i := range top.producers {
			backOut = append(backOut, v.lineCP.M[Pair{j, i}])
		}
		for _, o := range top.consumers {
			if o != j {
				backOut = append(backOut, v.lineCCRet.M[Pair{j, o}])
			}
		}
		p.AddConstraint("bilanE_debit_return["+j+"]", 0, 0, func(x []float64) float64 {
			return mReturn.At(x) - sumAt(x, backOut)
		})
	}

	for _, i := range top.producers {
		i := i

		// F: the production return flow collects the last consumers.
		returning := []*nlp.Variable{}
		for _, j := range top.consumers {
			returning = append(returning, v.lineCP.M[Pair{j, i}])
		}
		mProdTot := v.MProdTot[i]
		p.AddConstraint("bilanF_debit_prod_tot_in["+i+"]", 0, 0, func(x []float64) float64 {
			return mProdTot.At(x) - sumAt(x, returning)
		})

		// I: the production supply flow feeds the first consumers.
		leaving := []*nlp.Variable{}
		for _, j := range top.consumers {
			leaving = append(leaving, v.linePC.M[Pair{i, j}])
		}
		p.AddConstraint("bilanI_debit_prod_tot_out["+i+"]", 0, 0, func(x []float64) float64 {
			return mProdTot.At(x) - sumAt(x, leaving)
		})

		// G/H: the production flow splits across its technologies.
		techFlows := []*nlp.Variable{}
		for _, k := range top.techsByProd[i] {
			techFlows = append(techFlows, v.MProd[k])
		}
		p.AddConstraint("bilanGH_debit_prod_out["+i+"]", 0, 0, func(x []float64) float64 {
			return mProdTot.At(x) - sumAt(x, techFlows)
		})
	}
}

// assembleEnergyBalances writes the temperature propagation system. At
// convergent junctions the flow-weighted mixing equality holds exactly
// (bilinear, no big-M); at divergent junctions the temperature equality
// only binds for pipes that exist, via the big-M relaxation.
func assembleEnergyBalances(p *nlp.Problem, top *topology, der derived, v modelVars) {
	for _, j := range top.consumers {
		j := j

		// A: convergent mixing of everything arriving at the consumer.
		inFlows := []*nlp.Variable{}
		inTemps := []*nlp.Variable{}
		for _, i := range top.producers {
			pair := Pair{i, j}
			inFlows = append(inFlows, v.linePC.M[pair])
			inTemps = append(inTemps, v.linePC.TOut[pair])
		}
		for _, o := range top.consumers {
			if o != j {
				pair := Pair{o, j}
				inFlows = append(inFlows, v.lineCCPar.M[pair])
				inTemps = append(inTemps, v.lineCCPar.TOut[pair])
			}
		}
		mSupply := v.MSupply[j]
		tSupply := v.TSupply[j]
		p.AddConstraint("bilanA_H_supply["+j+"]", 0, 0, func(x []float64) float64 {
			return mSupply.At(x)*tSupply.At(x) - dotAt(x, inFlows, inTemps)
		})

		// B: divergent; the supply temperature propagates to the
		// consumer-consumer pipes that exist.
		for _, o := range top.consumers {
			pair := Pair{j, o}
			slack := der.TBigM * (1 - exists(v.lineCCPar.length[pair]))
			tIn := v.lineCCPar.TIn[pair]
			p.AddConstraint("bilanB_T_hx_in_bigM"+pairIdx(pair), -slack, slack, func(x []float64) float64 {
				return tSupply.At(x) - tIn.At(x)
			})
		}

		// B2: the exchanger is always fed, no big-M needed.
		tHxIn := v.THxIn[j]
		p.AddConstraint("bilanB2_T_hx_in["+j+"]", 0, 0, func(x []float64) float64 {
			return tHxIn.At(x) - tSupply.At(x)
		})

		// D: convergent mixing on the return side.
		retFlows := []*nlp.Variable{v.MHx[j]}
		retTemps := []*nlp.Variable{v.THxOut[j]}
		for _, o := range top.consumers {
			if o != j {
				pair := Pair{o, j}
				retFlows = append(retFlows, v.lineCCRet.M[pair])
				retTemps = append(retTemps, v.lineCCRet.TOut[pair])
			}
		}
		mReturn := v.MReturn[j]
		tReturn := v.TReturn[j]
		p.AddConstraint("bilanD_H_hx_out["+j+"]", 0, 0, func(x []float64) float64 {
			return mReturn.At(x)*tReturn.At(x) - dotAt(x, retFlows, retTemps)
		})

		// E: divergent; the return temperature propagates to the
		// consumer-producer pipes that exist.
		for _, i := range top.producers {
			pair := Pair{j, i}
			slack := der.TBigM * (1 - exists(v.lineCP.length[pair]))
			tIn := v.lineCP.TIn[pair]
			p.AddConstraint("bilanE_T_return_bigM"+pairIdx(pair), -slack, slack, func(x []float64) float64 {
				return tReturn.At(x) - tIn.At(x)
			})
		}

		// E2: same for the consumer-consumer return pipes leaving j.
		for _, o := range top.consumers {
			pair := Pair{j, o}
			slack := der.TBigM * (1 - exists(v.lineCCRet.length[pair]))
			tIn := v.lineCCRet.TIn[pair]
			p.AddConstraint("bilanE2_T_return_bigM"+pairIdx(pair), -slack, slack, func(x []float64) float64 {
				return tReturn.At(x) - tIn.At(x)
			})
		}
	}

	for _, i := range top.producers {
		i := i

		// F: convergent mixing of returns at the production inlet.
		inFlows := []*nlp.Variable{}
		inTemps := []*nlp.Variable{}
		for _, j := range top.consumers {
			pair := Pair{j, i}
			inFlows = append(inFlows, v.lineCP.M[pair])
			inTemps = append(inTemps, v.lineCP.TOut[pair])
		}
		mProdTot := v.MProdTot[i]
		tProdTotIn := v.TProdTotIn[i]
		p.AddConstraint("bilanF_H_prod_tot_in["+i+"]", 0, 0, func(x []float64) float64 {
			return mProdTot.At(x)*tProdTotIn.At(x) - dotAt(x, inFlows, inTemps)
		})

		// G: every installed technology sees the same return
		// temperature. The existence flag is always 1, so the big-M
		// relaxation is tight.
		for _, k := range top.techsByProd[i] {
			const yP = 1.0
			slack := der.TBigM * (1 - yP)
			tProdIn := v.TProdIn[k]
			p.AddConstraint("bilanG_T_prod_in_bigM["+k+"]", -slack, slack, func(x []float64) float64 {
				return tProdTotIn.At(x) - tProdIn.At(x)
			})
		}

		// H: convergent mixing of the technology outlets.
		outFlows := []*nlp.Variable{}
		outTemps := []*nlp.Variable{}
		for _, k := range top.techsByProd[i] {
			outFlows = append(outFlows, v.MProd[k])
			outTemps = append(outTemps, v.TProdOut[k])
		}
		tProdTotOut := v.TProdTotOut[i]
		p.AddConstraint("bilanH_H_prod_out["+i+"]", 0, 0, func(x []float64) float64 {
			return mProdTot.At(x)*tProdTotOut.At(x) - dotAt(x, outFlows, outTemps)
		})

		// I: divergent; the production outlet temperature propagates
		// to the producer-consumer pipes that exist.
		for _, j := range top.consumers {
			pair := Pair{i, j}
			slack := der.TBigM * (1 - exists(v.linePC.length[pair]))
			tIn := v.linePC.TIn[pair]
			p.AddConstraint("bilanI_T_prod_tot_out_bigM"+pairIdx(pair), -slack, slack, func(x []float64) float64 {
				return tIn.At(x) - tProdTotOut.At(x)
			})
		}
	}
}

// assembleHeatLoss writes the linear in-pipe temperature drop on all
// four families. Zero-length (nonexistent) pipes reduce to an in/out
// equality.
func assembleHeatLoss(p *nlp.Problem, params Parameters, families []*pipeFamily) {
	for _, fam := range families {
		for _, pair := range fam.pairs {
			drop := params.LinearHeatLoss * fam.length[pair]
			tIn := fam.TIn[pair]
			tOut := fam.TOut[pair]
			p.AddConstraint("loss_"+fam.label+pairIdx(pair), 0, 0, func(x []float64) float64 {
				return tOut.At(x) - tIn.At(x) + drop
			})
		}
	}
}

// assembleProduction ties installed power to the thermal power actually
// delivered by each technology, and applies declared coverage rates.
func assembleProduction(p *nlp.Problem, top *topology, params Parameters, der derived, v modelVars) {
	inf := nlp.Inf()

	for _, k := range top.techs {
		const yP = 1.0
		slack := der.HInstBigM * (1 - yP)
		eff := top.techDefs[k].Eff
		cp := params.WaterCp
		hInst := v.HInst[k]
		mProd := v.MProd[k]
		tOut := v.TProdOut[k]
		tIn := v.TProdIn[k]
		delivered := func(x []float64) float64 {
			return hInst.At(x)*eff - mProd.At(x)*cp*(tOut.At(x)-tIn.At(x))
		}
		p.AddConstraint("bilan_H_inst_bigM1["+k+"]", -inf, slack, delivered)
		p.AddConstraint("bilan_H_inst_bigM2["+k+"]", -slack, inf, delivered)
	}

	// Optional coverage constraint: a declared rate pins a
	// technology's share of the node's total installed power.
	for _, i := range top.producers {
		siblings := []*nlp.Variable{}
		for _, k := range top.techsByProd[i] {
			siblings = append(siblings, v.HInst[k])
		}
		for _, k := range top.techsByProd[i] {
			rate := top.techDefs[k].CoverageRate
			if rate == nil {
				continue
			}
			coverage := *rate
			hInst := v.HInst[k]
			all := siblings
			p.AddConstraint("coverage_rate["+k+"]", 0, 0, func(x []float64) float64 {
				return hInst.At(x) - coverage*sumAt(x, all)
			})
		}
	}
}

// assembleExchangers writes the thermal design system of every consumer
// exchanger. The log-mean temperature difference uses the smooth
// cube-root surrogate (DT1·DT2·(DT1+DT2)/2)^(1/3) instead of the exact
// logarithmic formula; downstream sizing is calibrated against it. The
// surrogate's derivative is singular at 0, so the delta equations are
// only written for consumers with demand; demand-free consumers have
// all deltas pinned to zero.
func assembleExchangers(p *nlp.Problem, top *topology, params Parameters, v modelVars, consumption map[string]ConsumptionNode) {
	inf := nlp.Inf()
	cp := params.WaterCp
	kHx := params.ExchangerOverallTransferCoefficient

	for _, j := range top.consumers {
		node := consumption[j]

		// Exchanger duty from the primary-side flow and temperatures.
		hHx := v.HHx[j]
		mHx := v.MHx[j]
		tHxIn := v.THxIn[j]
		tHxOut := v.THxOut[j]
		p.AddConstraint("bilan_chaleur_HX["+j+"]", 0, 0, func(x []float64) float64 {
			return hHx.At(x) - mHx.At(x)*cp*(tHxIn.At(x)-tHxOut.At(x))
		})

		dt1 := v.DT1[j]
		dt2 := v.DT2[j]
		dtlm := v.DTLM[j]

		if node.HReq > 0 {
			tReqOut := node.TReqOut
			tReqIn := node.TReqIn
			p.AddConstraint("bilan_DT1["+j+"]", 0, 0, func(x []float64) float64 {
				return dt1.At(x) - (tHxIn.At(x) - tReqOut)
			})
			p.AddConstraint("bilan_DT2["+j+"]", 0, 0, func(x []float64) float64 {
				return dt2.At(x) - (tHxOut.At(x) - tReqIn)
			})
			p.AddConstraint("bilan_DT1_pinch["+j+"]", params.ExchangerTPinchMin, inf, dt1.At)
			p.AddConstraint("bilan_DT2_pinch["+j+"]", params.ExchangerTPinchMin, inf, dt2.At)
			p.AddConstraint("diffTemplog["+j+"]", 0, 0, func(x []float64) float64 {
				d1 := dt1.At(x)
				d2 := dt2.At(x)
				return dtlm.At(x) - math.Cbrt(d1*d2*0.5*(d1+d2))
			})
		}

		// Duty from area and driving temperature difference. Both duty
		// equations must hold simultaneously.
		aHx := v.AHx[j]
		p.AddConstraint("bilan_chaleur_HX_DTLM["+j+"]", 0, 0, func(x []float64) float64 {
			return hHx.At(x) - aHx.At(x)*kHx*dtlm.At(x)
		})

		// Demand is met exactly, never as an inequality.
		p.AddConstraint("contrainte_appro["+j+"]", node.HReq, node.HReq, hHx.At)
	}
}
