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

/*
PyODHeaN is a library for optimal design of district heating networks.

Given a set of production nodes (each carrying one or several heating
technologies), a set of consumption nodes with their heat demand and
temperature regime, and the candidate pipe routes between them, it
assembles a nonlinear optimization problem that sizes pipes, substation
exchangers and production capacities at minimal annualized cost, and
reads the solver output back into a structured network design.

A two-consumer line network can be solved like this:

	package main

	import (
		"fmt"

		"github.com/sigopti/pyodhean"
		"github.com/sigopti/pyodhean/ipopt"
		"github.com/sigopti/pyodhean/nlp"
	)

	func main() {
		production := map[string]pyodhean.ProductionNode{
			"P1": {Technologies: map[string]pyodhean.Technology{
				"k1": {Eff: 0.9, TOutMax: 100, TInMin: 30, CHprodUnit: 800, CHeatUnit: 0.08, RateI: 0.04},
			}},
		}
		consumption := map[string]pyodhean.ConsumptionNode{
			"C1": {HReq: 80, TReqOut: 80, TReqIn: 60},
			"C2": {HReq: 80, TReqOut: 80, TReqIn: 60},
		}
		config := pyodhean.Configuration{
			ProdConsPipes: map[pyodhean.Pair]float64{{Source: "P1", Target: "C1"}: 10},
			ConsConsPipes: map[pyodhean.Pair]float64{{Source: "C1", Target: "C2"}: 100},
		}

		model, _ := pyodhean.New(production, consumption, config) // you should check for errors
		solver, _ := ipopt.New()

		result, _ := model.Solve(solver, nlp.Options{"tol": 1e-3})

		fmt.Printf("status: %s\n", result.Status)
		if result.Success {
			fmt.Printf("total cost: %.0f €\n", result.Solution.GlobalIndicators.TotalCost)
		}
	}

The JSONInterface type offers the same pipeline over JSON documents
with coordinate-identified nodes.
*/
package pyodhean
