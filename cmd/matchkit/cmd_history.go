package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/funvibe/matchkit/internal/audit"
	"github.com/funvibe/matchkit/internal/config"
)

func (a *app) historyCmd() *cobra.Command {
	var auditPath, set string
	var limit int

	cmd := &cobra.Command{
		Use:   "history --audit DB",
		Short: "Show recorded decisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := envDefault(auditPath, config.EnvAuditDB)
			if path == "" {
				path = config.DefaultAuditDBPath
			}
			store, err := audit.Open(cmd.Context(), path, a.logger)
			if err != nil {
				return withCode(exitUsage, err)
			}
			defer store.Close()

			recs, err := store.Recent(cmd.Context(), set, limit)
			if err != nil {
				return withCode(exitUsage, err)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tRULE SET\tINPUT\tARM\tRESULT\tID")
			for _, r := range recs {
				arm, result := "-", "no match"
				if r.Matched {
					arm, result = fmt.Sprint(r.ArmIndex), r.Result
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.CreatedAt.Local().Format(time.DateTime), r.RuleSet, r.Input, arm, result, r.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&auditPath, "audit", "", "audit database (env "+config.EnvAuditDB+", default "+config.DefaultAuditDBPath+")")
	cmd.Flags().StringVar(&set, "set", "", "only decisions of this rule set")
	cmd.Flags().IntVar(&limit, "limit", config.DefaultHistoryLimit, "maximum number of decisions")
	return cmd
}
