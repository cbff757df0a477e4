package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yurifrl/cnbean/pkg/config"
	"github.com/yurifrl/cnbean/pkg/executors"
	"github.com/yurifrl/cnbean/pkg/plan"
	"github.com/yurifrl/cnbean/pkg/service"
)

var (
	cliFilters filters
	cfgFile    string
)

var rootCmd = &cobra.Command{
	Use:           "cnbean",
	Short:         "Import Chinese bank and payment app statements into a beancount ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import [flags] <path>...",
	Short: "Import statement files, directories or glob patterns",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		processor := service.NewProcessor(cfg, logger)
		var results []service.Result
		for _, path := range args {
			res, err := processor.ProcessPath(path)
			if err != nil {
				logger.Warn("failed to process path", "error", err, "path", path)
				continue
			}
			results = append(results, res...)
		}
		if len(results) == 0 {
			return fmt.Errorf("no statements imported")
		}

		output, _ := cmd.Flags().GetString("output")
		filter, err := cliFilters.toFilterFunc()
		if err != nil {
			return err
		}
		return executors.New(logger, cmd.OutOrStdout()).Apply(results, output, filter)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Preview a YAML plan of statements, or apply it with --apply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		planPath := args[0]
		p, err := plan.Load(planPath)
		if err != nil {
			return err
		}

		processor := service.NewProcessor(cfg, logger)
		results := processor.ProcessPlan(p)
		exec := executors.New(logger, cmd.OutOrStdout())

		apply, _ := cmd.Flags().GetBool("apply")
		if apply {
			filter, err := cliFilters.toFilterFunc()
			if err != nil {
				return err
			}
			return exec.Apply(results, p.Output, filter)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Plan preview for %s\n", planPath)
		p.Print(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout())
		exec.Plan(results)
		return nil
	},
}

// setup builds the configuration and the logger shared by every component.
func setup(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		Prefix:          "cnbean",
		Level:           level,
	})

	for _, w := range cfg.RuleWarnings {
		logger.Warn("rule can never match", "detail", w)
	}
	logger.Debug("configuration loaded", "path", cfg.Path, "rules", len(cfg.Rules), "cards", cfg.Registry.Len())
	return cfg, logger, nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is ./config.yaml or ~/.config/cnbean/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSlice("rules", nil, "Additional YAML rule files")

	// Filter flags (global)
	rootCmd.PersistentFlags().StringVar(&cliFilters.startDate, "start", "", "Start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&cliFilters.endDate, "end", "", "End date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&cliFilters.minAmount, "min", "", "Minimum absolute amount")
	rootCmd.PersistentFlags().StringVar(&cliFilters.maxAmount, "max", "", "Maximum absolute amount")
	rootCmd.PersistentFlags().StringVar(&cliFilters.payee, "payee", "", "Filter by payee or narration (case insensitive)")
	rootCmd.PersistentFlags().StringVar(&cliFilters.account, "account", "", "Filter by account prefix")

	importCmd.Flags().StringP("output", "o", "", "Ledger file to write (default: stdout)")
	planCmd.Flags().Bool("apply", false, "Write the ledger instead of previewing it")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
