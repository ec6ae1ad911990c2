package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/matchkit/internal/catalog"
	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/prettyprinter"
	"github.com/funvibe/matchkit/pkg/match"
)

func (a *app) demoCmd() *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the built-in demonstration classifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newPrinter(a.stdout)
			engine := match.New(nil)
			found := false
			for _, demo := range catalog.All(engine) {
				if only != "" && demo.Name != only {
					continue
				}
				found = true
				fmt.Fprintf(a.stdout, "%s\n%s\n", out.paint(ansiBold, demo.Name), prettyprinter.Arms(demo.Arms))
				for _, in := range demo.Inputs {
					sel, err := engine.Evaluate(demo.Arms, in)
					var noMatch *evaluator.NoMatchError
					switch {
					case errors.As(err, &noMatch):
						out.noMatch(in)
					case err != nil:
						return withCode(exitNoMatch, fmt.Errorf("%s: %w", demo.Name, err))
					default:
						out.selected(in, sel.Index, sel.Result)
					}
				}
				fmt.Fprintln(a.stdout)
			}
			if !found {
				return withCode(exitUsage, fmt.Errorf("no demo named %q", only))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "name", "", "run only this demo")
	return cmd
}
