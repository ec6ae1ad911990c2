package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/matchkit/internal/config"
	"github.com/funvibe/matchkit/internal/prettyprinter"
	"github.com/funvibe/matchkit/internal/rules"
)

func (a *app) checkCmd() *cobra.Command {
	var rulesPath string
	var printArms bool

	cmd := &cobra.Command{
		Use:   "check --rules FILE",
		Short: "Validate a rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requireFlag(rulesPath, "rules", config.EnvRules)
			if err != nil {
				return err
			}
			book, err := rules.Load(path)
			if err != nil {
				return loadFailure(err)
			}

			names := book.Names()
			fmt.Fprintf(a.stdout, "%s: %d rule sets OK\n", path, len(names))
			if !printArms {
				return nil
			}
			for _, name := range names {
				set, _ := book.Set(name)
				fmt.Fprintf(a.stdout, "\n%s", name)
				if set.Description != "" {
					fmt.Fprintf(a.stdout, "  # %s", set.Description)
				}
				fmt.Fprintln(a.stdout)
				for i, arm := range set.Arms {
					fmt.Fprintf(a.stdout, "  %2d  %s\n", i, prettyprinter.Arm(arm))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule file (env "+config.EnvRules+")")
	cmd.Flags().BoolVar(&printArms, "print", false, "print every arm")
	return cmd
}
