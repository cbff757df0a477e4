package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/yurifrl/cnbean/pkg/config"
	"github.com/yurifrl/cnbean/pkg/server"
)

func main() {
	flags := pflag.NewFlagSet("cnbean-server", pflag.ExitOnError)
	var (
		port    = flags.String("port", "3000", "Server port")
		cfgFile = flags.StringP("config", "c", "", "Config file")
	)
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.StringSlice("rules", nil, "Additional YAML rule files")
	_ = flags.Parse(os.Args[1:])

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "cnbean",
	})

	cfg, err := config.Build(*cfgFile, flags)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	for _, w := range cfg.RuleWarnings {
		logger.Warn("rule can never match", "detail", w)
	}

	srv := server.New(cfg, logger)
	addr := fmt.Sprintf("0.0.0.0:%s", *port)
	logger.Info("starting server", "addr", addr, "rules", len(cfg.Rules), "cards", cfg.Registry.Len())
	if err := srv.Start(addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
