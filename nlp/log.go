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

package nlp

// Logger receives solver trace output.
type Logger interface {
	Print(v ...interface{})
}

// NoopLogger discards all trace output. It is the default logger of
// every solver implementation.
type NoopLogger struct{}

// Print implements Logger.
func (NoopLogger) Print(v ...interface{}) {}
