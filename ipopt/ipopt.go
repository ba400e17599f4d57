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

// Package ipopt solves nlp problems with the COIN-OR IPOPT interior
// point solver, through its stable C interface.
//
// Objective and constraint derivatives are estimated by finite
// differences and the Hessian is left to IPOPT's limited-memory
// approximation, so problems only need to provide plain evaluation
// closures.
package ipopt

// #cgo linux LDFLAGS: -lipopt
// #cgo darwin LDFLAGS: -L/usr/local/lib -lipopt
// #cgo darwin CFLAGS: -I/usr/local/include
// #include <coin-or/IpStdCInterface.h>
// #include <stdlib.h>
/*
// https://golang.org/issue/19837
extern bool evalObjective(ipindex n, ipnumber *x, bool new_x, ipnumber *obj_value, UserDataPtr user_data);
extern bool evalObjectiveGrad(ipindex n, ipnumber *x, bool new_x, ipnumber *grad_f, UserDataPtr user_data);
extern bool evalConstraints(ipindex n, ipnumber *x, bool new_x, ipindex m, ipnumber *g, UserDataPtr user_data);
extern bool evalConstraintsJac(ipindex n, ipnumber *x, bool new_x, ipindex m, ipindex nele_jac, ipindex *iRow, ipindex *jCol, ipnumber *values, UserDataPtr user_data);
extern bool evalHessian(ipindex n, ipnumber *x, bool new_x, ipnumber obj_factor, ipindex m, ipnumber *lambda, bool new_lambda, ipindex nele_hess, ipindex *iRow, ipindex *jCol, ipnumber *values, UserDataPtr user_data);
extern bool intermediateCallback(ipindex alg_mod, ipindex iter_count, ipnumber obj_value, ipnumber inf_pr, ipnumber inf_du, ipnumber mu, ipnumber d_norm, ipnumber regularization_size, ipnumber alpha_du, ipnumber alpha_pr, ipindex ls_trials, UserDataPtr user_data);
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/sigopti/pyodhean/nlp"
)

// Solver runs IPOPT on assembled problems. A Solver holds no per-solve
// state; one instance may be shared between goroutines.
type Solver struct {
	logger nlp.Logger
}

var _ nlp.Solver = (*Solver)(nil)

type Option func(*Solver) error

// WithLogger makes the solver report one line per iteration to logger.
func WithLogger(logger nlp.Logger) Option {
	return func(s *Solver) error {
		s.logger = logger

		return nil
	}
}

// New instantiates a solver.
func New(opts ...Option) (*Solver, error) {
	s := &Solver{
		logger: nlp.NoopLogger{},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("applying solver option: %w", err)
		}
	}
	return s, nil
}

// solveState is the Go-side payload handed to the C callbacks through
// the reference registry.
type solveState struct {
	ctx     context.Context
	problem *nlp.Problem
	logger  nlp.Logger

	// Scratch space for the dense finite-difference Jacobian.
	jac *mat.Dense
}

func (state *solveState) constraints(dst, x []float64) {
	state.problem.EvalConstraints(x, dst)
}

// Solve is equivalent to SolveWithContext with a background context.
func (s *Solver) Solve(p *nlp.Problem, options nlp.Options) (*nlp.Result, error) {
	return s.SolveWithContext(context.Background(), p, options)
}

// SolveWithContext runs IPOPT until convergence, an iteration/time cap
// or context cancellation. Cancellation surfaces as a warning result
// with the "userInterrupt" termination condition, mirroring how other
// convergence failures are reported. Solution values are only
// populated on an ok status.
func (s *Solver) SolveWithContext(ctx context.Context, p *nlp.Problem, options nlp.Options) (*nlp.Result, error) {
	n := p.VariableCount()
	m := p.ConstraintCount()
	if n == 0 {
		return nil, fmt.Errorf("problem %q has no variables", p.Name())
	}

	xL := make([]float64, n)
	xU := make([]float64, n)
	p.Bounds(xL, xU)
	gL := make([]float64, m)
	gU := make([]float64, m)
	p.ConstraintBounds(gL, gU)

	// The Jacobian is handled densely: one entry per (constraint,
	// variable) pair, row-major, C-style indexing.
	prob := C.CreateIpoptProblem(
		C.ipindex(n), numPtr(xL), numPtr(xU),
		C.ipindex(m), numPtr(gL), numPtr(gU),
		C.ipindex(m*n), 0, 0,
		C.Eval_F_CB(C.evalObjective),
		C.Eval_G_CB(C.evalConstraints),
		C.Eval_Grad_F_CB(C.evalObjectiveGrad),
		C.Eval_Jac_G_CB(C.evalConstraintsJac),
		C.Eval_H_CB(C.evalHessian),
	)
	if prob == nil {
		return nil, fmt.Errorf("could not create IPOPT problem for %q", p.Name())
	}
	defer C.FreeIpoptProblem(prob)

	// No Hessian callback is provided, IPOPT approximates it. The
	// banner and per-iteration prints go through our logger instead of
	// stdout.
	forced := nlp.Options{
		"hessian_approximation": "limited-memory",
		"sb":                    "yes",
		"print_level":           0,
	}
	for key, value := range forced {
		if _, overridden := options[key]; key == "print_level" && overridden {
			continue
		}
		if err := addOption(prob, key, value); err != nil {
			return nil, err
		}
	}
	for key, value := range options {
		if err := addOption(prob, key, value); err != nil {
			return nil, err
		}
	}

	C.SetIntermediateCallback(prob, C.Intermediate_CB(C.intermediateCallback))

	state := &solveState{
		ctx:     ctx,
		problem: p,
		logger:  s.logger,
	}
	if m > 0 {
		state.jac = mat.NewDense(m, n, nil)
	}
	ptr := saveRef(state)
	defer dropRef(ptr)

	x := p.InitialValues()
	g := make([]float64, m)
	var obj C.ipnumber
	ret := C.IpoptSolve(prob, numPtr(x), numPtr(g), &obj, nil, nil, nil, ptr)

	status, termination := mapStatus(ReturnStatus(ret))
	res := &nlp.Result{
		Status:               status,
		TerminationCondition: termination,
	}
	if res.Ok() {
		res.Values = x
		res.Objective = float64(obj)
	}
	return res, nil
}

func numPtr(s []float64) *C.ipnumber {
	if len(s) == 0 {
		return nil
	}
	return (*C.ipnumber)(unsafe.Pointer(&s[0]))
}

// addOption forwards one option to IPOPT, picking the numeric kind the
// library will accept. JSON-decoded options arrive as float64 even for
// integer-valued settings like max_iter, hence the fallback.
func addOption(prob C.IpoptProblem, key string, value interface{}) error {
	cKey := C.CString(key)
	defer C.free(unsafe.Pointer(cKey))

	ok := false
	switch v := value.(type) {
	case string:
		cVal := C.CString(v)
		defer C.free(unsafe.Pointer(cVal))
		ok = bool(C.AddIpoptStrOption(prob, cKey, cVal))
	case int:
		ok = bool(C.AddIpoptIntOption(prob, cKey, C.ipindex(v)))
		if !ok {
			ok = bool(C.AddIpoptNumOption(prob, cKey, C.ipnumber(v)))
		}
	case float64:
		ok = bool(C.AddIpoptNumOption(prob, cKey, C.ipnumber(v)))
		if !ok && v == float64(int(v)) {
			ok = bool(C.AddIpoptIntOption(prob, cKey, C.ipindex(int(v))))
		}
	default:
		return fmt.Errorf("solver option %q: unsupported value type %T", key, value)
	}
	if !ok {
		return fmt.Errorf("invalid solver option %q = %v", key, value)
	}
	return nil
}

func goFloats(p *C.ipnumber, n int) []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(p)), n)
}

//export evalObjective
func evalObjective(n C.ipindex, x *C.ipnumber, newX C.bool, objValue *C.ipnumber, userData unsafe.Pointer) C.bool {
	state, ok := loadRef(userData).(*solveState)
	if !ok {
		return false
	}

	*objValue = C.ipnumber(state.problem.EvalObjective(goFloats(x, int(n))))
	return true
}

//export evalObjectiveGrad
func evalObjectiveGrad(n C.ipindex, x *C.ipnumber, newX C.bool, gradF *C.ipnumber, userData unsafe.Pointer) C.bool {
	state, ok := loadRef(userData).(*solveState)
	if !ok {
		return false
	}

	fd.Gradient(goFloats(gradF, int(n)), state.problem.EvalObjective, goFloats(x, int(n)), nil)
	return true
}

//export evalConstraints
func evalConstraints(n C.ipindex, x *C.ipnumber, newX C.bool, m C.ipindex, g *C.ipnumber, userData unsafe.Pointer) C.bool {
	state, ok := loadRef(userData).(*solveState)
	if !ok {
		return false
	}

	state.problem.EvalConstraints(goFloats(x, int(n)), goFloats(g, int(m)))
	return true
}

//export evalConstraintsJac
func evalConstraintsJac(n C.ipindex, x *C.ipnumber, newX C.bool, m C.ipindex, neleJac C.ipindex, iRow, jCol *C.ipindex, values *C.ipnumber, userData unsafe.Pointer) C.bool {
	state, ok := loadRef(userData).(*solveState)
	if !ok {
		return false
	}
	if neleJac == 0 {
		return true
	}

	if values == nil {
		// Structure pass: declare the dense row-major pattern.
		rows := unsafe.Slice(iRow, int(neleJac))
		cols := unsafe.Slice(jCol, int(neleJac))
		k := 0
		for r := 0; r < int(m); r++ {
			for c := 0; c < int(n); c++ {
				rows[k] = C.ipindex(r)
				cols[k] = C.ipindex(c)
				k++
			}
		}
		return true
	}

	fd.Jacobian(state.jac, state.constraints, goFloats(x, int(n)), nil)
	// mat.Dense is row-major with a contiguous backing slice here, so
	// it matches the declared pattern directly.
	copy(goFloats(values, int(neleJac)), state.jac.RawMatrix().Data)
	return true
}

//export evalHessian
func evalHessian(n C.ipindex, x *C.ipnumber, newX C.bool, objFactor C.ipnumber, m C.ipindex, lambda *C.ipnumber, newLambda C.bool, neleHess C.ipindex, iRow, jCol *C.ipindex, values *C.ipnumber, userData unsafe.Pointer) C.bool {
	// Never called: hessian_approximation is forced to limited-memory.
	return false
}

//export intermediateCallback
func intermediateCallback(algMod, iterCount C.ipindex, objValue, infPr, infDu, mu, dNorm, regularizationSize, alphaDu, alphaPr C.ipnumber, lsTrials C.ipindex, userData unsafe.Pointer) C.bool {
	state, ok := loadRef(userData).(*solveState)
	if !ok {
		return true
	}

	state.logger.Print(fmt.Sprintf("iter %3d: obj=%.8e inf_pr=%.2e inf_du=%.2e",
		int(iterCount), float64(objValue), float64(infPr), float64(infDu)))

	// Returning false makes IPOPT stop with User_Requested_Stop.
	return state.ctx.Err() == nil
}
