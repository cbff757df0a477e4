package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/yurifrl/cnbean/pkg/classifier"
	"github.com/yurifrl/cnbean/pkg/config"
)

var (
	labelStyle    = lipgloss.NewStyle().Bold(true)
	matchedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	fallbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

var classifyCmd = &cobra.Command{
	Use:   "classify <narration> [payee]",
	Short: "Show the destination account the rules pick for a narration and payee",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		narration, payee := args[0], ""
		if len(args) == 2 {
			payee = args[1]
		}
		income, _ := cmd.Flags().GetBool("income")
		source, _ := cmd.Flags().GetString("source")

		res := classifier.New(cfg.Rules, logger).Classify(narration, payee)
		fallback := classifier.Fallback{Expense: cfg.UnknownExpense, Income: cfg.UnknownIncome}
		ctx := config.Context{Source: source, Currency: cfg.DefaultCurrency}

		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			pp.Fprintln(cmd.OutOrStdout(), res)
		}
		printClassification(cmd, res, fallback.Account(!income, ctx))
		return nil
	},
}

func printClassification(cmd *cobra.Command, res classifier.Result, fallback string) {
	out := cmd.OutOrStdout()

	if res.Resolved() {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("account: "), matchedStyle.Render(res.Account))
	} else {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("account: "), fallbackStyle.Render(fallback+" (fallback)"))
	}
	if len(res.Tags) > 0 {
		fmt.Fprintf(out, "%s #%s\n", labelStyle.Render("tags:    "), strings.Join(res.Tags.Sorted(), " #"))
	}
	for _, key := range res.Metadata.Keys() {
		fmt.Fprintf(out, "%s %s = %v\n", labelStyle.Render("meta:    "), key, res.Metadata[key])
	}
	for _, c := range res.Conflicts {
		fmt.Fprintln(out, conflictStyle.Render(fmt.Sprintf("conflict: kept %s (%s), rejected %s (%s)", c.Kept, c.KeptRule, c.Rejected, c.RejectedRule)))
	}
}

func init() {
	classifyCmd.Flags().Bool("income", false, "Classify as income when no rule matches")
	classifyCmd.Flags().String("source", "", "Source name passed to computed fallback accounts")
	classifyCmd.Flags().Bool("debug", false, "Dump the full classification result")
}
