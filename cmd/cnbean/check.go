package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and report rules that can never match",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("config:  "), cfg.Path)
		fmt.Fprintf(out, "%s %d\n", labelStyle.Render("rules:   "), len(cfg.Rules))
		fmt.Fprintf(out, "%s %d\n", labelStyle.Render("cards:   "), cfg.Registry.Len())
		fmt.Fprintf(out, "%s %s / %s\n", labelStyle.Render("fallback:"), cfg.UnknownExpense, cfg.UnknownIncome)
		for _, w := range cfg.RuleWarnings {
			fmt.Fprintln(out, fallbackStyle.Render("warning: "+w))
		}
		if len(cfg.RuleWarnings) == 0 {
			fmt.Fprintln(out, matchedStyle.Render("configuration ok"))
		}
		return nil
	},
}
