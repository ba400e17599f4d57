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

// Option configures a Model at assembly time.
type Option func(*Model) error

// WithLogger makes the model report assembly information to logger.
func WithLogger(logger Logger) Option {
	return func(m *Model) error {
		m.logger = logger

		return nil
	}
}

// WithParameterOverrides replaces the listed physical and economic
// defaults. Keys use the snake_case parameter names; an unknown key is
// a *ConfigError.
func WithParameterOverrides(overrides map[string]float64) Option {
	return func(m *Model) error {
		m.overrides = overrides

		return nil
	}
}

// WithFlowRegularization adds the total production flow rate to the
// objective. On topologies where several flow distributions reach the
// same cost, the extra term breaks the tie toward the smallest flows.
func WithFlowRegularization() Option {
	return func(m *Model) error {
		m.flowRegularization = true

		return nil
	}
}
