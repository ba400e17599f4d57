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

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sigopti/pyodhean/nlp"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		ret         ReturnStatus
		status      nlp.Status
		termination string
	}{
		{SolveSucceeded, nlp.StatusOK, "optimal"},
		{SolvedToAcceptableLevel, nlp.StatusOK, "acceptable"},
		{MaximumIterationsExceeded, nlp.StatusWarning, "maxIterations"},
		{MaximumCpuTimeExceeded, nlp.StatusWarning, "maxTimeLimit"},
		{MaximumWallTimeExceeded, nlp.StatusWarning, "maxTimeLimit"},
		{InfeasibleProblemDetected, nlp.StatusWarning, "infeasible"},
		{DivergingIterates, nlp.StatusWarning, "diverging"},
		{UserRequestedStop, nlp.StatusWarning, "userInterrupt"},
		{RestorationFailed, nlp.StatusWarning, "restorationFailed"},
		{InvalidNumberDetected, nlp.StatusError, "Invalid_Number_Detected"},
		{InternalError, nlp.StatusError, "Internal_Error"},
		{ReturnStatus(12345), nlp.StatusError, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.termination, func(t *testing.T) {
			status, termination := mapStatus(tt.ret)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.termination, termination)
		})
	}
}

func TestReturnStatusString(t *testing.T) {
	assert.Equal(t, "Solve_Succeeded", SolveSucceeded.String())
	assert.Equal(t, "Maximum_Iterations_Exceeded", MaximumIterationsExceeded.String())
	assert.Equal(t, "Unknown", ReturnStatus(42).String())
}
