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

/* Problem input types */

// Technology describes one heat production unit type at a production
// node. Values are immutable once the model is built.
type Technology struct {
	// Eff is the conversion efficiency of the technology.
	Eff float64
	// TOutMax is the maximum allowed outlet (supply) temperature (°C).
	TOutMax float64
	// TInMin is the minimum allowed inlet (return) temperature (°C).
	TInMin float64
	// CHprodUnit is the unit installation cost (€/kW).
	CHprodUnit float64
	// CHeatUnit is the unit energy cost (€/kWh).
	CHeatUnit float64
	// RateI is the energy cost inflation rate of the technology.
	RateI float64
	// CoverageRate optionally pins this technology's share of the
	// node's total installed power. nil means unconstrained.
	CoverageRate *float64
}

// ProductionNode is a heat source location hosting one or more
// technologies. Every listed technology is assumed installed.
type ProductionNode struct {
	Technologies map[string]Technology
}

// ConsumptionNode is a demand location. A zero HReq denotes a
// pass-through network junction with no heat draw.
type ConsumptionNode struct {
	// HReq is the required heat demand (kW).
	HReq float64
	// TReqOut is the required secondary-side supply temperature (°C).
	TReqOut float64
	// TReqIn is the required secondary-side return temperature (°C).
	TReqIn float64
}

// Pair is an ordered (source, target) node id pair keying the dense
// pipe tables.
type Pair struct {
	Source string
	Target string
}

// Configuration carries the pipe length tables of the forward
// (supply) legs. A zero or absent length means the link does not
// exist; the return legs are derived by transposition.
type Configuration struct {
	// ProdConsPipes maps (producer, consumer) pairs to pipe length (m).
	ProdConsPipes map[Pair]float64
	// ConsConsPipes maps (consumer, consumer) pairs to pipe length (m).
	ConsConsPipes map[Pair]float64
}
