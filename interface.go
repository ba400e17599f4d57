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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sigopti/pyodhean/nlp"
)

// Input is the JSON problem description. Nodes are identified by their
// (x, y) coordinates.
type Input struct {
	Nodes      InputNodes         `json:"nodes"`
	Links      []InputLink        `json:"links"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

type InputNodes struct {
	Production  []InputProductionNode  `json:"production"`
	Consumption []InputConsumptionNode `json:"consumption"`
}

type InputProductionNode struct {
	ID           [2]float64                 `json:"id"`
	Technologies map[string]InputTechnology `json:"technologies"`
}

type InputTechnology struct {
	Efficiency              float64  `json:"efficiency"`
	TOutMax                 float64  `json:"t_out_max"`
	TInMin                  float64  `json:"t_in_min"`
	ProductionUnitaryCost   float64  `json:"production_unitary_cost"`
	EnergyUnitaryCost       float64  `json:"energy_unitary_cost"`
	EnergyCostInflationRate float64  `json:"energy_cost_inflation_rate"`
	CoverageRate            *float64 `json:"coverage_rate,omitempty"`
}

type InputConsumptionNode struct {
	ID   [2]float64 `json:"id"`
	KW   float64    `json:"kW"`
	TIn  float64    `json:"t_in"`
	TOut float64    `json:"t_out"`
}

type InputLink struct {
	Length float64    `json:"length"`
	Source [2]float64 `json:"source"`
	Target [2]float64 `json:"target"`
}

// Output is the JSON solve result. Solution is only present on an ok
// status.
type Output struct {
	Status               string          `json:"status"`
	TerminationCondition string          `json:"termination_condition,omitempty"`
	Success              bool            `json:"success"`
	Solution             *OutputSolution `json:"solution,omitempty"`
}

type OutputSolution struct {
	Nodes            OutputNodes      `json:"nodes"`
	Links            []OutputLink     `json:"links"`
	GlobalIndicators OutputIndicators `json:"global_indicators"`
}

type OutputNodes struct {
	Production  []OutputProductionNode  `json:"production"`
	Consumption []OutputConsumptionNode `json:"consumption"`
}

type OutputProductionNode struct {
	ID           [2]float64                  `json:"id"`
	FlowRate     float64                     `json:"flow_rate"`
	TSupply      float64                     `json:"t_supply"`
	TReturn      float64                     `json:"t_return"`
	Technologies map[string]OutputTechnology `json:"technologies"`
}

type OutputTechnology struct {
	FlowRate       float64 `json:"flow_rate"`
	TSupply        float64 `json:"t_supply"`
	TReturn        float64 `json:"t_return"`
	InstalledPower float64 `json:"installed_power"`
}

type OutputConsumptionNode struct {
	ID             [2]float64 `json:"id"`
	FlowRate       float64    `json:"flow_rate"`
	TSupply        float64    `json:"t_supply"`
	TReturn        float64    `json:"t_return"`
	THxIn          float64    `json:"t_hx_in"`
	THxOut         float64    `json:"t_hx_out"`
	DT1            float64    `json:"dt1"`
	DT2            float64    `json:"dt2"`
	DTLM           float64    `json:"dtlm"`
	ExchangerArea  float64    `json:"exchanger_area"`
	ExchangedPower float64    `json:"exchanged_power"`
}

type OutputLink struct {
	Source       [2]float64 `json:"source"`
	Target       [2]float64 `json:"target"`
	Speed        float64    `json:"speed"`
	DiameterInt  float64    `json:"diameter_int"`
	DiameterOut  float64    `json:"diameter_out"`
	FlowRate     float64    `json:"flow_rate"`
	TSupplyIn    float64    `json:"t_supply_in"`
	TSupplyOut   float64    `json:"t_supply_out"`
	TReturnIn    float64    `json:"t_return_in"`
	TReturnOut   float64    `json:"t_return_out"`
	Power        float64    `json:"power"`
	YearlyEnergy float64    `json:"yearly_energy"`
}

type OutputIndicators struct {
	ProductionCapex  float64 `json:"production_capex"`
	ExchangersCapex  float64 `json:"exchangers_capex"`
	NetworkCapex     float64 `json:"network_capex"`
	TotalCapex       float64 `json:"total_capex"`
	PumpsOpex        float64 `json:"pumps_opex"`
	HeatOpex         float64 `json:"heat_opex"`
	TotalOpex        float64 `json:"total_opex"`
	TotalCost        float64 `json:"total_cost"`
	YearlyProduction float64 `json:"yearly_production"`
	TotalProduction  float64 `json:"total_production"`
	NetworkLength    float64 `json:"network_length"`
}

// JSONInterface solves JSON problem descriptions. The zero Options
// value means solver defaults.
type JSONInterface struct {
	Solver       nlp.Solver
	Options      nlp.Options
	ModelOptions []Option
}

// Solve is equivalent to SolveWithContext with a background context.
func (ji *JSONInterface) Solve(input *Input) (*Output, error) {
	return ji.SolveWithContext(context.Background(), input)
}

// SolveWithContext assembles the model from input, runs the solver and
// translates the result back to coordinate-identified JSON. Malformed
// input is returned as *ConfigError; solver non-convergence is encoded
// in the Output status, not as an error.
func (ji *JSONInterface) SolveWithContext(ctx context.Context, input *Input) (*Output, error) {
	production, consumption, config, err := defineProblem(input)
	if err != nil {
		return nil, err
	}

	opts := ji.ModelOptions
	if len(input.Parameters) > 0 {
		opts = append(opts[:len(opts):len(opts)], WithParameterOverrides(input.Parameters))
	}
	model, err := New(production, consumption, config, opts...)
	if err != nil {
		return nil, err
	}

	result, err := model.SolveWithContext(ctx, ji.Solver, ji.Options)
	if err != nil {
		return nil, err
	}
	return parseResult(result)
}

// coordID flattens an (x, y) coordinate pair into a node id.
func coordID(coords [2]float64) string {
	return fmt.Sprintf("%g_%g", coords[0], coords[1])
}

func idCoords(id string) ([2]float64, error) {
	parts := strings.SplitN(id, "_", 2)
	if len(parts) != 2 {
		return [2]float64{}, configErrorf("id", "malformed node id %q", id)
	}
	var coords [2]float64
	for n, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return [2]float64{}, configErrorf("id", "malformed node id %q", id)
		}
		coords[n] = v
	}
	return coords, nil
}

func defineProblem(input *Input) (map[string]ProductionNode, map[string]ConsumptionNode, Configuration, error) {
	production := make(map[string]ProductionNode, len(input.Nodes.Production))
	for _, node := range input.Nodes.Production {
		technologies := make(map[string]Technology, len(node.Technologies))
		for name, tech := range node.Technologies {
			technologies[name] = Technology{
				Eff:          tech.Efficiency,
				TOutMax:      tech.TOutMax,
				TInMin:       tech.TInMin,
				CHprodUnit:   tech.ProductionUnitaryCost,
				CHeatUnit:    tech.EnergyUnitaryCost,
				RateI:        tech.EnergyCostInflationRate,
				CoverageRate: tech.CoverageRate,
			}
		}
		production[coordID(node.ID)] = ProductionNode{Technologies: technologies}
	}

	consumption := make(map[string]ConsumptionNode, len(input.Nodes.Consumption))
	for _, node := range input.Nodes.Consumption {
		consumption[coordID(node.ID)] = ConsumptionNode{
			HReq:    node.KW,
			TReqOut: node.TOut,
			TReqIn:  node.TIn,
		}
	}

	config := Configuration{
		ProdConsPipes: make(map[Pair]float64),
		ConsConsPipes: make(map[Pair]float64),
	}
	for _, link := range input.Links {
		src := coordID(link.Source)
		trg := coordID(link.Target)
		pair := Pair{src, trg}
		switch {
		case hasProduction(production, src):
			config.ProdConsPipes[pair] = link.Length
		case hasConsumption(consumption, src):
			config.ConsConsPipes[pair] = link.Length
		default:
			return nil, nil, Configuration{}, configErrorf("links", "link with unknown source %v", link.Source)
		}
	}

	return production, consumption, config, nil
}

func hasProduction(nodes map[string]ProductionNode, id string) bool {
	_, ok := nodes[id]
	return ok
}

func hasConsumption(nodes map[string]ConsumptionNode, id string) bool {
	_, ok := nodes[id]
	return ok
}

func parseResult(result *Result) (*Output, error) {
	out := &Output{
		Status:               result.Status.String(),
		TerminationCondition: result.TerminationCondition,
		Success:              result.Success,
	}
	if result.Solution == nil {
		return out, nil
	}

	sol := &OutputSolution{}

	for _, id := range sortedKeys(result.Solution.Production) {
		coords, err := idCoords(id)
		if err != nil {
			return nil, err
		}
		prod := result.Solution.Production[id]
		techs := make(map[string]OutputTechnology, len(prod.Technologies))
		for name, tech := range prod.Technologies {
			techs[name] = OutputTechnology{
				FlowRate:       tech.FlowRate,
				TSupply:        tech.TSupply,
				TReturn:        tech.TReturn,
				InstalledPower: tech.InstalledPower,
			}
		}
		sol.Nodes.Production = append(sol.Nodes.Production, OutputProductionNode{
			ID:           coords,
			FlowRate:     prod.FlowRate,
			TSupply:      prod.TSupply,
			TReturn:      prod.TReturn,
			Technologies: techs,
		})
	}

	for _, id := range sortedKeys(result.Solution.Consumption) {
		coords, err := idCoords(id)
		if err != nil {
			return nil, err
		}
		cons := result.Solution.Consumption[id]
		sol.Nodes.Consumption = append(sol.Nodes.Consumption, OutputConsumptionNode{
			ID:             coords,
			FlowRate:       cons.FlowRate,
			TSupply:        cons.TSupply,
			TReturn:        cons.TReturn,
			THxIn:          cons.THxIn,
			THxOut:         cons.THxOut,
			DT1:            cons.DT1,
			DT2:            cons.DT2,
			DTLM:           cons.DTLM,
			ExchangerArea:  cons.ExchangerArea,
			ExchangedPower: cons.ExchangedPower,
		})
	}

	links, err := parseLinks(result.Solution.ProdConsPipes)
	if err != nil {
		return nil, err
	}
	sol.Links = links
	links, err = parseLinks(result.Solution.ConsConsPipes)
	if err != nil {
		return nil, err
	}
	sol.Links = append(sol.Links, links...)

	ind := result.Solution.GlobalIndicators
	sol.GlobalIndicators = OutputIndicators{
		ProductionCapex:  ind.ProductionCapex,
		ExchangersCapex:  ind.ExchangersCapex,
		NetworkCapex:     ind.NetworkCapex,
		TotalCapex:       ind.TotalCapex,
		PumpsOpex:        ind.PumpsOpex,
		HeatOpex:         ind.HeatOpex,
		TotalOpex:        ind.TotalOpex,
		TotalCost:        ind.TotalCost,
		YearlyProduction: ind.YearlyProduction,
		TotalProduction:  ind.TotalProduction,
		NetworkLength:    ind.NetworkLength,
	}

	out.Solution = sol
	return out, nil
}

func parseLinks(pipes map[Pair]PipeResult) ([]OutputLink, error) {
	pairs := make([]Pair, 0, len(pipes))
	for pair := range pipes {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].Source != pairs[b].Source {
			return pairs[a].Source < pairs[b].Source
		}
		return pairs[a].Target < pairs[b].Target
	})

	links := make([]OutputLink, 0, len(pairs))
	for _, pair := range pairs {
		src, err := idCoords(pair.Source)
		if err != nil {
			return nil, err
		}
		trg, err := idCoords(pair.Target)
		if err != nil {
			return nil, err
		}
		pipe := pipes[pair]
		links = append(links, OutputLink{
			Source:       src,
			Target:       trg,
			Speed:        pipe.Speed,
			DiameterInt:  pipe.DiameterInt,
			DiameterOut:  pipe.DiameterOut,
			FlowRate:     pipe.FlowRate,
			TSupplyIn:    pipe.TSupplyIn,
			TSupplyOut:   pipe.TSupplyOut,
			TReturnIn:    pipe.TReturnIn,
			TReturnOut:   pipe.TReturnOut,
			Power:        pipe.Power,
			YearlyEnergy: pipe.YearlyEnergy,
		})
	}
	return links, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
