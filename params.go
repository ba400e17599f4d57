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

import "math"

// Parameters holds the general engineering constants of a problem.
// Zero values are meaningful, so a Parameters value is always built
// from DefaultParameters and then selectively overridden.
type Parameters struct {
	// WaterCp is the thermal capacity of water at 80°C (kJ/kg.K).
	WaterCp float64
	// WaterMu is the dynamic viscosity of water at 80°C (Pa.s).
	WaterMu float64
	// WaterRho is the density of water at 20°C (kg/m3).
	WaterRho float64
	// SpeedMin is the lower velocity bound (m/s). 0 allows dead legs
	// (consumer nodes with no demand).
	SpeedMin float64
	// SpeedMax is the upper velocity bound (m/s).
	SpeedMax float64
	// DiameterIntMin is the minimum internal pipe diameter (m).
	DiameterIntMin float64
	// DiameterIntMax is the maximum internal pipe diameter (m).
	DiameterIntMax float64
	// PipeThickness is the metal wall thickness (m).
	PipeThickness float64
	// PipeInsulationThickness is the insulation thickness around the
	// pipe (m).
	PipeInsulationThickness float64
	// ExchangerOverallTransferCoefficient is the overall heat transfer
	// coefficient K of the consumer exchangers (kW/m2.K).
	ExchangerOverallTransferCoefficient float64
	// ExchangerTPinchMin is the minimum pinch temperature difference at
	// the exchangers (°C).
	ExchangerTPinchMin float64
	// OperationTime is the yearly network operation time (h).
	OperationTime float64
	// DepreciationPeriod is the investment depreciation period (years).
	DepreciationPeriod float64
	// DiscountRate is the discount rate used for the investment
	// annuity.
	DiscountRate float64
	// TrenchUnitCost is the cost of a supply-and-return trench per
	// meter (€/ml).
	TrenchUnitCost float64
	// PipeDiameterUnitCostSlope is the slope of the linear
	// pipe-cost-per-diameter relation, insulated pipe included (€/m).
	PipeDiameterUnitCostSlope float64
	// PipeDiameterUnitCostYIntercept is the intercept of the linear
	// pipe-cost-per-diameter relation (€).
	PipeDiameterUnitCostYIntercept float64
	// ExchangerPowerCostSlope is the slope of the linear
	// exchanger-cost-per-duty relation (€/kW).
	ExchangerPowerCostSlope float64
	// ExchangerPowerCostYIntercept is the intercept of the linear
	// exchanger-cost-per-duty relation (€).
	ExchangerPowerCostYIntercept float64
	// PumpEnergyRatioCost is the pumping share of the total operating
	// cost.
	PumpEnergyRatioCost float64
	// SimultaneityRatio reduces the theoretical peak demand to account
	// for non-coincident consumer peaks.
	SimultaneityRatio float64
	// HeatLossRate is the network-wide thermal loss ratio applied to
	// the produced heat.
	HeatLossRate float64
	// LinearHeatLoss is the temperature drop per meter of pipe (°C/m).
	LinearHeatLoss float64
}

// DefaultParameters returns the default engineering parameter table.
func DefaultParameters() Parameters {
	return Parameters{
		WaterCp:                             4.196,
		WaterMu:                             0.000354,
		WaterRho:                            974,
		SpeedMin:                            0,
		SpeedMax:                            3,
		DiameterIntMin:                      0,
		DiameterIntMax:                      0.20,
		PipeThickness:                       0.025,
		PipeInsulationThickness:             0.0276,
		ExchangerOverallTransferCoefficient: 2,
		ExchangerTPinchMin:                  5,
		OperationTime:                       5808,
		DepreciationPeriod:                  15,
		DiscountRate:                        0.04,
		TrenchUnitCost:                      800,
		PipeDiameterUnitCostSlope:           0.3722,
		PipeDiameterUnitCostYIntercept:      12.48,
		ExchangerPowerCostSlope:             5.3,
		ExchangerPowerCostYIntercept:        5045,
		PumpEnergyRatioCost:                 0.01,
		SimultaneityRatio:                   0.70,
		HeatLossRate:                        0.05,
		LinearHeatLoss:                      0.002,
	}
}

// applyOverrides merges user-supplied overrides, keyed by the JSON
// parameter names, into the parameter set. An unknown key is a
// configuration error.
func (p *Parameters) applyOverrides(overrides map[string]float64) error {
	for key, value := range overrides {
		switch key {
		case "water_cp":
			p.WaterCp = value
		case "water_mu":
			p.WaterMu = value
		case "water_rho":
			p.WaterRho = value
		case "speed_min":
			p.SpeedMin = value
		case "speed_max":
			p.SpeedMax = value
		case "diameter_int_min":
			p.DiameterIntMin = value
		case "diameter_int_max":
			p.DiameterIntMax = value
		case "pipe_thickness":
			p.PipeThickness = value
		case "pipe_insulation_thickness":
			p.PipeInsulationThickness = value
		case "exchanger_overall_transfer_coefficient":
			p.ExchangerOverallTransferCoefficient = value
		case "exchanger_t_pinch_min":
			p.ExchangerTPinchMin = value
		case "operation_time":
			p.OperationTime = value
		case "depreciation_period":
			p.DepreciationPeriod = value
		case "discount_rate":
			p.DiscountRate = value
		case "trench_unit_cost":
			p.TrenchUnitCost = value
		case "pipe_diameter_unit_cost_slope":
			p.PipeDiameterUnitCostSlope = value
		case "pipe_diameter_unit_cost_y_intercept":
			p.PipeDiameterUnitCostYIntercept = value
		case "exchanger_power_cost_slope":
			p.ExchangerPowerCostSlope = value
		case "exchanger_power_cost_y_intercept":
			p.ExchangerPowerCostYIntercept = value
		case "pump_energy_ratio_cost":
			p.PumpEnergyRatioCost = value
		case "simultaneity_ratio":
			p.SimultaneityRatio = value
		case "heat_loss_rate":
			p.HeatLossRate = value
		case "linear_heat_loss":
			p.LinearHeatLoss = value
		default:
			return configErrorf("parameters", "unknown parameter %q", key)
		}
	}
	return nil
}

// derived holds the secondary constants computed from the parameter set
// and the problem topology. Big-M slacks are 1000 times the natural
// range of the quantity they relax, so a disabled constraint can never
// bind.
type derived struct {
	// MMax is the maximum mass flow rate anywhere in the network,
	// reached at SpeedMax through the largest internal section (kg/s).
	MMax  float64
	MBigM float64
	// HReqTotal is the sum of all consumer demands (kW).
	HReqTotal float64
	// HInstMax caps installed power at 1.5 times the theoretical
	// simultaneous peak.
	HInstMax  float64
	HInstBigM float64
	// TProdOutMax is the largest allowed supply temperature among all
	// technologies; it doubles as the temperature big-M.
	TProdOutMax float64
	TBigM       float64
	// TInitMin and TInitMax are the global temperature envelope: the
	// smallest minimum-return and largest maximum-supply temperature
	// over technologies and consumers.
	TInitMin float64
	TInitMax float64
	// DoutMin and DoutMax bound external diameters so the geometric
	// wall equality stays attainable over the whole internal range.
	DoutMin float64
	DoutMax float64
	// FCapex converts an initial investment into its discounted value
	// over the depreciation period.
	FCapex float64
	// FOpex converts a yearly energy cost into the discounted,
	// inflation-compounded sum over the depreciation period, per
	// technology id.
	FOpex map[string]float64
}

// annuityFactor is the discounted-growing-annuity sum
// Σ_{t=0}^{dep-1} ((1+rateA)(1+rateI))^t in closed form. The closed
// form degenerates when the combined rate is 1; the limit is the
// period itself.
func annuityFactor(rateA, rateI, depreciationPeriod float64) float64 {
	q := (1 + rateA) * (1 + rateI)
	if math.Abs(1-q) < 1e-12 {
		return depreciationPeriod
	}
	return (1 - math.Pow(1+rateA, depreciationPeriod)*math.Pow(1+rateI, depreciationPeriod)) / (1 - q)
}

// deriveParameters computes the secondary constant set from the merged
// parameters and the built topology.
func deriveParameters(params Parameters, top *topology, consumption map[string]ConsumptionNode) (derived, error) {
	var d derived

	if len(top.techs) == 0 {
		return d, configErrorf("production", "no technology defined")
	}
	if len(top.consumers) == 0 {
		return d, configErrorf("consumption", "no consumption node defined")
	}

	d.MMax = params.SpeedMax * params.WaterRho * math.Pi * params.DiameterIntMax * params.DiameterIntMax / 4
	d.MBigM = 1000 * d.MMax

	for _, j := range top.consumers {
		d.HReqTotal += consumption[j].HReq
	}
	d.HInstMax = 1.5 * d.HReqTotal
	d.HInstBigM = 1000 * d.HReqTotal

	d.TProdOutMax = math.Inf(-1)
	tProdInMin := math.Inf(1)
	for _, k := range top.techs {
		tech := top.techDefs[k]
		d.TProdOutMax = math.Max(d.TProdOutMax, tech.TOutMax)
		tProdInMin = math.Min(tProdInMin, tech.TInMin)
	}
	d.TBigM = d.TProdOutMax

	d.TInitMin = tProdInMin
	d.TInitMax = d.TProdOutMax
	for _, j := range top.consumers {
		d.TInitMin = math.Min(d.TInitMin, consumption[j].TReqIn)
		d.TInitMax = math.Max(d.TInitMax, consumption[j].TReqOut)
	}

	wall := params.PipeThickness + params.PipeInsulationThickness
	d.DoutMin = params.DiameterIntMin + wall
	d.DoutMax = params.DiameterIntMax + wall

	d.FCapex = math.Pow(1+params.DiscountRate, params.DepreciationPeriod)
	d.FOpex = make(map[string]float64, len(top.techs))
	for _, k := range top.techs {
		d.FOpex[k] = annuityFactor(params.DiscountRate, top.techDefs[k].RateI, params.DepreciationPeriod)
	}

	return d, nil
}
