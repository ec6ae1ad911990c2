package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/funvibe/matchkit/internal/config"
	"github.com/funvibe/matchkit/internal/rules"
	"github.com/funvibe/matchkit/internal/server"
)

func (a *app) queryCmd() *cobra.Command {
	var addr, set string
	var explain bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "query --set NAME VALUE...",
		Short: "Classify values with a running matchkit server",
		Long: `Send each VALUE to a matchkit server. Without --set, list the server's
rule sets. Values use the same YAML notation as classify; object types are
checked by the server.`,
		Annotations: map[string]string{valuesAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			addr = envDefault(addr, config.EnvAddr)
			if addr == "" {
				addr = "localhost" + config.DefaultGRPCAddr
			}
			if set == "" && len(args) > 0 {
				return withCode(exitUsage, errors.New("--set is required when values are given"))
			}

			client, conn, err := server.Dial(addr)
			if err != nil {
				return withCode(exitUsage, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if set == "" {
				names, err := client.ListRuleSets(ctx)
				if err != nil {
					return withCode(exitUsage, err)
				}
				for _, n := range names {
					fmt.Fprintln(a.stdout, n)
				}
				return nil
			}
			return a.query(ctx, client, set, args, explain)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "server address (env "+config.EnvAddr+")")
	cmd.Flags().StringVar(&set, "set", "", "rule set name")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the outcome of every inspected arm")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall request timeout")
	return cmd
}

func (a *app) query(ctx context.Context, client *server.Client, set string, inputs []string, explain bool) error {
	out := newPrinter(a.stdout)
	misses := 0
	for _, text := range inputs {
		// Declared types live on the server, so only the YAML shape is
		// checked here.
		v, err := rules.ParseValue(text, nil)
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("value %q: %w", text, err))
		}
		d, err := client.Classify(ctx, set, v, explain)
		if err != nil {
			if status.Code(err) == codes.FailedPrecondition {
				return withCode(exitNoMatch, err)
			}
			return withCode(exitUsage, err)
		}
		for _, st := range d.Steps {
			out.step(st.Index, st.Outcome)
		}
		if !d.Matched {
			misses++
			out.noMatch(v)
			continue
		}
		out.selected(v, d.ArmIndex, d.Result)
	}
	if misses > 0 {
		return withCode(exitNoMatch, fmt.Errorf("%d of %d values matched no arm of %s", misses, len(inputs), set))
	}
	return nil
}
