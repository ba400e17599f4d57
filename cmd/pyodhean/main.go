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

// Command pyodhean reads a district heating network description in
// JSON, optimizes its design and writes the solution back as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sigopti/pyodhean"
	"github.com/sigopti/pyodhean/ipopt"
	"github.com/sigopti/pyodhean/nlp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// printLogger bridges the model and solver loggers onto zap.
type printLogger struct {
	sugar *zap.SugaredLogger
}

func (l printLogger) Print(v ...interface{}) {
	l.sugar.Debug(v...)
}

func newRootCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		tolerance  float64
		maxIter    int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "pyodhean",
		Short: "Optimize the design of a district heating network",
		Long: `pyodhean reads a network description (production and consumption
nodes plus candidate pipe routes) in JSON, sizes pipes, exchangers and
production technologies at minimal annualized cost, and writes the
designed network as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			sugar := logger.Sugar()

			input, err := readInput(inputPath)
			if err != nil {
				return err
			}

			solver, err := ipopt.New(ipopt.WithLogger(printLogger{sugar}))
			if err != nil {
				return err
			}

			options := nlp.Options{"tol": tolerance}
			if maxIter > 0 {
				options["max_iter"] = maxIter
			}

			ji := &pyodhean.JSONInterface{
				Solver:  solver,
				Options: options,
				ModelOptions: []pyodhean.Option{
					pyodhean.WithLogger(printLogger{sugar}),
				},
			}
			output, err := ji.SolveWithContext(cmd.Context(), input)
			if err != nil {
				return err
			}

			sugar.Infow("solve finished",
				"status", output.Status,
				"termination_condition", output.TerminationCondition,
			)
			return writeOutput(outputPath, output)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", `input JSON file ("-" for stdin)`)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "-", `output JSON file ("-" for stdout)`)
	cmd.Flags().Float64Var(&tolerance, "tol", 1e-3, "solver convergence tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "solver iteration cap (0 for solver default)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log solver iterations")

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func readInput(path string) (*pyodhean.Input, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	input := &pyodhean.Input{}
	if err := json.Unmarshal(raw, input); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}
	return input, nil
}

func writeOutput(path string, output *pyodhean.Output) error {
	raw, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	raw = append(raw, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(raw)
	} else {
		err = os.WriteFile(path, raw, 0o644)
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
