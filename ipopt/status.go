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

package ipopt

import "github.com/sigopti/pyodhean/nlp"

// ReturnStatus mirrors IPOPT's ApplicationReturnStatus enum. The
// values are part of the library's stable C interface.
type ReturnStatus int

const (
	SolveSucceeded                 ReturnStatus = 0
	SolvedToAcceptableLevel        ReturnStatus = 1
	InfeasibleProblemDetected      ReturnStatus = 2
	SearchDirectionBecomesTooSmall ReturnStatus = 3
	DivergingIterates              ReturnStatus = 4
	UserRequestedStop              ReturnStatus = 5
	FeasiblePointFound             ReturnStatus = 6
	MaximumIterationsExceeded      ReturnStatus = -1
	RestorationFailed              ReturnStatus = -2
	ErrorInStepComputation         ReturnStatus = -3
	MaximumCpuTimeExceeded         ReturnStatus = -4
	MaximumWallTimeExceeded        ReturnStatus = -5
	NotEnoughDegreesOfFreedom      ReturnStatus = -10
	InvalidProblemDefinition       ReturnStatus = -11
	InvalidOption                  ReturnStatus = -12
	InvalidNumberDetected          ReturnStatus = -13
	UnrecoverableException         ReturnStatus = -100
	NonIpoptExceptionThrown        ReturnStatus = -101
	InsufficientMemory             ReturnStatus = -102
	InternalError                  ReturnStatus = -199
)

// String returns the status name as spelled by the IPOPT
// documentation.
func (s ReturnStatus) String() string {
	switch s {
	case SolveSucceeded:
		return "Solve_Succeeded"
	case SolvedToAcceptableLevel:
		return "Solved_To_Acceptable_Level"
	case InfeasibleProblemDetected:
		return "Infeasible_Problem_Detected"
	case SearchDirectionBecomesTooSmall:
		return "Search_Direction_Becomes_Too_Small"
	case DivergingIterates:
		return "Diverging_Iterates"
	case UserRequestedStop:
		return "User_Requested_Stop"
	case FeasiblePointFound:
		return "Feasible_Point_Found"
	case MaximumIterationsExceeded:
		return "Maximum_Iterations_Exceeded"
	case RestorationFailed:
		return "Restoration_Failed"
	case ErrorInStepComputation:
		return "Error_In_Step_Computation"
	case MaximumCpuTimeExceeded:
		return "Maximum_CpuTime_Exceeded"
	case MaximumWallTimeExceeded:
		return "Maximum_WallTime_Exceeded"
	case NotEnoughDegreesOfFreedom:
		return "Not_Enough_Degrees_Of_Freedom"
	case InvalidProblemDefinition:
		return "Invalid_Problem_Definition"
	case InvalidOption:
		return "Invalid_Option"
	case InvalidNumberDetected:
		return "Invalid_Number_Detected"
	case UnrecoverableException:
		return "Unrecoverable_Exception"
	case NonIpoptExceptionThrown:
		return "NonIpopt_Exception_Thrown"
	case InsufficientMemory:
		return "Insufficient_Memory"
	case InternalError:
		return "Internal_Error"
	default:
		return "Unknown"
	}
}

// mapStatus translates an IPOPT return status into the solver-agnostic
// status plus a termination condition detail. Convergence failures the
// caller may want to act on (iteration or time caps, infeasibility,
// interruption) are warnings; everything unexpected is an error.
func mapStatus(s ReturnStatus) (nlp.Status, string) {
	switch s {
	case SolveSucceeded:
		return nlp.StatusOK, "optimal"
	case SolvedToAcceptableLevel:
		return nlp.StatusOK, "acceptable"
	case MaximumIterationsExceeded:
		return nlp.StatusWarning, "maxIterations"
	case MaximumCpuTimeExceeded, MaximumWallTimeExceeded:
		return nlp.StatusWarning, "maxTimeLimit"
	case InfeasibleProblemDetected:
		return nlp.StatusWarning, "infeasible"
	case DivergingIterates:
		return nlp.StatusWarning, "diverging"
	case SearchDirectionBecomesTooSmall:
		return nlp.StatusWarning, "searchDirectionTooSmall"
	case RestorationFailed:
		return nlp.StatusWarning, "restorationFailed"
	case UserRequestedStop:
		return nlp.StatusWarning, "userInterrupt"
	case FeasiblePointFound:
		return nlp.StatusWarning, "feasible"
	default:
		return nlp.StatusError, s.String()
	}
}
