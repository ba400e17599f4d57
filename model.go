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

	"github.com/sigopti/pyodhean/nlp"
)

// Model is a fully assembled district heating design problem, ready to
// be handed to a solver. It is built once by New and not mutated
// afterwards; a Model may be solved several times, concurrently if the
// solver allows it.
type Model struct {
	problem *nlp.Problem

	params      Parameters
	derived     derived
	top         *topology
	vars        modelVars
	consumption map[string]ConsumptionNode

	logger             Logger
	overrides          map[string]float64
	flowRegularization bool
}

// New assembles the optimization problem for the given production and
// consumption nodes over the candidate network described by config.
// Input errors are reported as *ConfigError.
func New(production map[string]ProductionNode, consumption map[string]ConsumptionNode, config Configuration, opts ...Option) (*Model, error) {
	m := &Model{
		params:      DefaultParameters(),
		consumption: consumption,
		logger:      noopLogger{},
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if err := m.params.applyOverrides(m.overrides); err != nil {
		return nil, err
	}

	top, err := buildTopology(production, consumption, config)
	if err != nil {
		return nil, err
	}
	m.top = top

	der, err := deriveParameters(m.params, top, consumption)
	if err != nil {
		return nil, err
	}
	m.derived = der

	m.problem = nlp.NewProblem("pyodhean")
	m.vars = declareVariables(m.problem, top, m.params, der, consumption)
	assembleConstraints(m.problem, top, m.params, der, m.vars, consumption)
	assembleCosts(m.problem, top, m.params, der, m.vars, m.flowRegularization)

	m.logger.Print(fmt.Sprintf("assembled problem %q: %d variables, %d constraints",
		m.problem.Name(), m.problem.VariableCount(), m.problem.ConstraintCount()))

	return m, nil
}

// Problem exposes the underlying problem, mainly for inspection and
// for solvers not implementing the nlp.Solver interface.
func (m *Model) Problem() *nlp.Problem {
	return m.problem
}

// Parameters returns the effective parameter set, overrides applied.
func (m *Model) Parameters() Parameters {
	return m.params
}

// Solve is equivalent to SolveWithContext with a background context.
func (m *Model) Solve(solver nlp.Solver, options nlp.Options) (*Result, error) {
	return m.SolveWithContext(context.Background(), solver, options)
}

// SolveWithContext runs the solver on the assembled problem and maps
// its raw result onto the network. Cancelling the context interrupts
// the solver; the interrupted run is reported with an error status, not
// an error return. Solution values are only extracted on an ok status.
func (m *Model) SolveWithContext(ctx context.Context, solver nlp.Solver, options nlp.Options) (*Result, error) {
	res, err := solver.SolveWithContext(ctx, m.problem, options)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Status:               res.Status,
		TerminationCondition: res.TerminationCondition,
		Success:              res.Ok(),
	}
	if res.Ok() {
		result.Solution = m.extractSolution(res)
	}
	return result, nil
}
