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

	"github.com/sigopti/pyodhean/nlp"
)

// pipeFamily holds the decision variables of one directional pipe
// family, keyed by ordered id pair.
type pipeFamily struct {
	// label names the family in variable names ("linePC", ...);
	// dLabel is the shorter diameter suffix ("PC", ...).
	label  string
	dLabel string
	pairs  []Pair
	length map[Pair]float64

	V    map[Pair]*nlp.Variable
	Dint map[Pair]*nlp.Variable
	Dout map[Pair]*nlp.Variable
	M    map[Pair]*nlp.Variable
	TIn  map[Pair]*nlp.Variable
	TOut map[Pair]*nlp.Variable
}

// modelVars is the complete catalogue of decision variables of one
// problem instance, grouped the way the solution extractor reads them
// back: by (entity id, family) keys.
type modelVars struct {
	linePC    pipeFamily
	lineCP    pipeFamily
	lineCCPar pipeFamily
	lineCCRet pipeFamily

	// Per technology id.
	MProd    map[string]*nlp.Variable
	TProdIn  map[string]*nlp.Variable
	TProdOut map[string]*nlp.Variable
	HInst    map[string]*nlp.Variable

	// Per producer id.
	MProdTot    map[string]*nlp.Variable
	TProdTotIn  map[string]*nlp.Variable
	TProdTotOut map[string]*nlp.Variable

	// Per consumer id.
	MHx     map[string]*nlp.Variable
	MSupply map[string]*nlp.Variable
	MReturn map[string]*nlp.Variable
	THxIn   map[string]*nlp.Variable
	THxOut  map[string]*nlp.Variable
	TSupply map[string]*nlp.Variable
	TReturn map[string]*nlp.Variable
	DTLM    map[string]*nlp.Variable
	DT1     map[string]*nlp.Variable
	DT2     map[string]*nlp.Variable
	AHx     map[string]*nlp.Variable
	HHx     map[string]*nlp.Variable

	// Cost accumulators and total network length.
	CPump    *nlp.Variable
	CHeat    *nlp.Variable
	CHinst   *nlp.Variable
	CHx      *nlp.Variable
	CPipe    *nlp.Variable
	CTr      *nlp.Variable
	CLineTot *nlp.Variable
	LTot     *nlp.Variable
}

// pcPairs returns the producer×consumer cross product in deterministic
// order, cpPairs its transpose; likewise for the consumer×consumer
// families.
func (t *topology) pcPairs() []Pair {
	pairs := make([]Pair, 0, len(t.producers)*len(t.consumers))
	for _, i := range t.producers {
		for _, j := range t.consumers {
			pairs = append(pairs, Pair{i, j})
		}
	}
	return pairs
}

func (t *topology) cpPairs() []Pair {
	pairs := make([]Pair, 0, len(t.producers)*len(t.consumers))
	for _, j := range t.consumers {
		for _, i := range t.producers {
			pairs = append(pairs, Pair{j, i})
		}
	}
	return pairs
}

func (t *topology) ccParallelPairs() []Pair {
	pairs := make([]Pair, 0, len(t.consumers)*len(t.consumers))
	for _, j := range t.consumers {
		for _, o := range t.consumers {
			pairs = append(pairs, Pair{j, o})
		}
	}
	return pairs
}

func (t *topology) ccReturnPairs() []Pair {
	pairs := make([]Pair, 0, len(t.consumers)*len(t.consumers))
	for _, o := range t.consumers {
		for _, j := range t.consumers {
			pairs = append(pairs, Pair{o, j})
		}
	}
	return pairs
}

func declarePipeFamily(p *nlp.Problem, label, dLabel string, pairs []Pair, length map[Pair]float64, params Parameters, der derived) pipeFamily {
	fam := pipeFamily{
		label:  label,
		dLabel: dLabel,
		pairs:  pairs,
		length: length,
		V:      make(map[Pair]*nlp.Variable, len(pairs)),
		Dint:   make(map[Pair]*nlp.Variable, len(pairs)),
		Dout:   make(map[Pair]*nlp.Variable, len(pairs)),
		M:      make(map[Pair]*nlp.Variable, len(pairs)),
		TIn:    make(map[Pair]*nlp.Variable, len(pairs)),
		TOut:   make(map[Pair]*nlp.Variable, len(pairs)),
	}

	vInit := (params.SpeedMin + params.SpeedMax) / 2
	dIntInit := (params.DiameterIntMin + params.DiameterIntMax) / 2
	dOutInit := (der.DoutMin + der.DoutMax) / 2

	for _, pair := range pairs {
		idx := fmt.Sprintf("[%s,%s]", pair.Source, pair.Target)
		fam.V[pair] = p.AddVariable("V_"+label+idx, 0, params.SpeedMax, vInit)
		fam.Dint[pair] = p.AddVariable("Dint_"+dLabel+idx, params.DiameterIntMin, params.DiameterIntMax, dIntInit)
		fam.Dout[pair] = p.AddVariable("Dout_"+dLabel+idx, der.DoutMin, der.DoutMax, dOutInit)
		fam.M[pair] = p.AddVariable("M_"+label+idx, 0, der.MMax, 0)
		fam.TIn[pair] = p.AddVariable("T_"+label+"_in"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
		fam.TOut[pair] = p.AddVariable("T_"+label+"_out"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
	}

	return fam
}

// declareVariables declares every decision variable with its bounds and
// initial value. Flow and temperature-delta variables of demand-free
// consumers are pinned to exactly zero: such a node is a pass-through
// with no heat draw.
func declareVariables(p *nlp.Problem, top *topology, params Parameters, der derived, consumption map[string]ConsumptionNode) modelVars {
	v := modelVars{
		linePC:    declarePipeFamily(p, "linePC", "PC", top.pcPairs(), top.lenPC, params, der),
		lineCP:    declarePipeFamily(p, "lineCP", "CP", top.cpPairs(), top.lenCP, params, der),
		lineCCPar: declarePipeFamily(p, "lineCC_parallel", "CC_parallel", top.ccParallelPairs(), top.lenCCParallel, params, der),
		lineCCRet: declarePipeFamily(p, "lineCC_return", "CC_return", top.ccReturnPairs(), top.lenCCReturn, params, der),

		MProd:    make(map[string]*nlp.Variable, len(top.techs)),
		TProdIn:  make(map[string]*nlp.Variable, len(top.techs)),
		TProdOut: make(map[string]*nlp.Variable, len(top.techs)),
		HInst:    make(map[string]*nlp.Variable, len(top.techs)),

		MProdTot:    make(map[string]*nlp.Variable, len(top.producers)),
		TProdTotIn:  make(map[string]*nlp.Variable, len(top.producers)),
		TProdTotOut: make(map[string]*nlp.Variable, len(top.producers)),

		MHx:     make(map[string]*nlp.Variable, len(top.consumers)),
		MSupply: make(map[string]*nlp.Variable, len(top.consumers)),
		MReturn: make(map[string]*nlp.Variable, len(top.consumers)),
		THxIn:   make(map[string]*nlp.Variable, len(top.consumers)),
		THxOut:  make(map[string]*nlp.Variable, len(top.consumers)),
		TSupply: make(map[string]*nlp.Variable, len(top.consumers)),
		TReturn: make(map[string]*nlp.Variable, len(top.consumers)),
		DTLM:    make(map[string]*nlp.Variable, len(top.consumers)),
		DT1:     make(map[string]*nlp.Variable, len(top.consumers)),
		DT2:     make(map[string]*nlp.Variable, len(top.consumers)),
		AHx:     make(map[string]*nlp.Variable, len(top.consumers)),
		HHx:     make(map[string]*nlp.Variable, len(top.consumers)),
	}

	for _, k := range top.techs {
		idx := "[" + k + "]"
		v.MProd[k] = p.AddVariable("M_prod"+idx, 0, der.MMax, 0)
		v.TProdIn[k] = p.AddVariable("T_prod_in"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
		v.TProdOut[k] = p.AddVariable("T_prod_out"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
		v.HInst[k] = p.AddVariable("H_inst"+idx, 0, der.HInstMax, 0)
	}

	for _, i := range top.producers {
		idx := "[" + i + "]"
		v.MProdTot[i] = p.AddVariable("M_prod_tot"+idx, 0, der.MMax, 0)
		v.TProdTotIn[i] = p.AddVariable("T_prod_tot_in"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
		v.TProdTotOut[i] = p.AddVariable("T_prod_tot_out"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
	}

	kHx := params.ExchangerOverallTransferCoefficient
	for _, j := range top.consumers {
		idx := "[" + j + "]"
		hReq := consumption[j].HReq

		v.MHx[j] = p.AddVariable("M_hx"+idx, 0, der.MMax, 0)
		v.MSupply[j] = p.AddVariable("M_supply"+idx, 0, der.MMax, 0)
		v.MReturn[j] = p.AddVariable("M_return"+idx, 0, der.MMax, 0)

		v.THxIn[j] = p.AddVariable("T_hx_in"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
		v.THxOut[j] = p.AddVariable("T_hx_out"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
		v.TSupply[j] = p.AddVariable("T_supply"+idx, der.TInitMin, der.TInitMax, der.TInitMin)
		v.TReturn[j] = p.AddVariable("T_return"+idx, der.TInitMin, der.TInitMax, der.TInitMin)

		v.DTLM[j] = p.AddVariable("DTLM"+idx, 0, der.TProdOutMax, der.TProdOutMax)
		v.DT1[j] = p.AddVariable("DT1"+idx, params.ExchangerTPinchMin, der.TInitMax, params.ExchangerTPinchMin)
		v.DT2[j] = p.AddVariable("DT2"+idx, params.ExchangerTPinchMin, der.TInitMax, params.ExchangerTPinchMin)

		// Lower bound: area needed at the maximum theoretical delta T;
		// the factor 10 caps area growth as the delta shrinks toward
		// the pinch. A zero demand degenerates to area 0.
		aMin := hReq / (kHx * der.TProdOutMax)
		v.AHx[j] = p.AddVariable("A_hx"+idx, aMin, 10*aMin, aMin)

		// An exchanger can never exceed the demand that defines it.
		v.HHx[j] = p.AddVariable("H_hx"+idx, 0, hReq, 0)

		if hReq == 0 {
			v.MHx[j].SetBounds(0, 0)
			v.DT1[j].SetBounds(0, 0)
			v.DT1[j].SetInitial(0)
			v.DT2[j].SetBounds(0, 0)
			v.DT2[j].SetInitial(0)
			v.DTLM[j].SetBounds(0, 0)
			v.DTLM[j].SetInitial(0)
		}
	}

	inf := nlp.Inf()
	v.CPump = p.AddVariable("C_pump", 0, inf, 0)
	v.CHeat = p.AddVariable("C_heat", 0, inf, 0)
	v.CHinst = p.AddVariable("C_Hinst", 0, inf, 0)
	v.CHx = p.AddVariable("C_hx", 0, inf, 0)
	v.CPipe = p.AddVariable("C_pipe", 0, inf, 0)
	v.CTr = p.AddVariable("C_tr", 0, inf, 0)
	v.CLineTot = p.AddVariable("C_line_tot", 0, inf, 0)
	v.LTot = p.AddVariable("L_tot", 0, inf, 0)

	return v
}
