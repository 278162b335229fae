package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/faturas/pkg/config"
	"github.com/yurifrl/faturas/pkg/metrics"
	"github.com/yurifrl/faturas/pkg/parser"
	"github.com/yurifrl/faturas/pkg/server"
)

func main() {
	var (
		port    = flag.String("port", "3000", "Server port")
		cfgFile = flag.String("config", "", "Config file (default is faturas.yaml)")
	)
	flag.Parse()

	cfg, err := config.Build(*cfgFile, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "faturas",
		Level:           cfg.Level(),
	})

	recorder := metrics.NewRecorder()
	prs := parser.New(logger, parser.WithObserver(recorder))
	srv := server.New(cfg, logger, prs, recorder)

	addr := fmt.Sprintf("0.0.0.0:%s", *port)
	logger.Info("starting server", "addr", addr)
	if err := srv.Start(addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
