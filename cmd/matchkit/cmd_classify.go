package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/matchkit/internal/audit"
	"github.com/funvibe/matchkit/internal/config"
	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/rules"
)

func (a *app) classifyCmd() *cobra.Command {
	var rulesPath, set, auditPath string
	var explain bool

	cmd := &cobra.Command{
		Use:   "classify --rules FILE --set NAME VALUE...",
		Short: "Classify values with a rule set",
		Long: `Classify each VALUE with the named rule set and print the selected result.

Values are YAML: 42, -3, "text", true, ~ (null) or a flow map such as
'{$type: Circle, radius: 3}'. An empty argument is null; write '""' for the
empty string. The command exits 1 if any value matches no arm.`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{valuesAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requireFlag(rulesPath, "rules", config.EnvRules)
			if err != nil {
				return err
			}
			if set == "" {
				return withCode(exitUsage, errors.New("--set is required"))
			}
			book, err := rules.Load(path)
			if err != nil {
				return loadFailure(err)
			}
			if _, ok := book.Set(set); !ok {
				return withCode(exitUsage, &rules.UnknownRuleSetError{Name: set})
			}

			var store *audit.Store
			if auditPath = envDefault(auditPath, config.EnvAuditDB); auditPath != "" {
				store, err = audit.Open(cmd.Context(), auditPath, a.logger)
				if err != nil {
					return withCode(exitUsage, err)
				}
				defer store.Close()
			}
			return a.classify(cmd.Context(), book, set, args, explain, store)
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule file (env "+config.EnvRules+")")
	cmd.Flags().StringVar(&set, "set", "", "rule set name")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the outcome of every inspected arm")
	cmd.Flags().StringVar(&auditPath, "audit", "", "record decisions in this SQLite database (env "+config.EnvAuditDB+")")
	return cmd
}

func (a *app) classify(ctx context.Context, book *rules.RuleBook, set string, inputs []string, explain bool, store *audit.Store) error {
	out := newPrinter(a.stdout)
	misses := 0

	for _, text := range inputs {
		v, err := book.ParseValue(text)
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("value %q: %w", text, err))
		}

		var trace evaluator.Tracer
		if explain {
			trace = func(st evaluator.Step) { out.step(st.Index, st.Outcome.String()) }
		}
		sel, err := book.ClassifyTrace(set, v, trace)

		var noMatch *evaluator.NoMatchError
		rec := audit.Record{RuleSet: set, Input: v.Inspect()}
		switch {
		case errors.As(err, &noMatch):
			misses++
			out.noMatch(v)
		case err != nil:
			return withCode(exitNoMatch, fmt.Errorf("value %s: %w", v.Inspect(), err))
		default:
			out.selected(v, sel.Index, sel.Result)
			rec.Matched = true
			rec.ArmIndex = sel.Index
			rec.Result = sel.Result.Inspect()
		}

		if store != nil {
			if _, err := store.Append(ctx, rec); err != nil {
				a.logger.Warn("Failed to record decision", "rule_set", set, "error", err)
			}
		}
	}

	if misses > 0 {
		return withCode(exitNoMatch, fmt.Errorf("%d of %d values matched no arm of %s", misses, len(inputs), set))
	}
	return nil
}
