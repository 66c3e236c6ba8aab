package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goflags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"LinkSentry/internal/app"
	"LinkSentry/internal/config"
	"LinkSentry/internal/logging"
	"LinkSentry/internal/report"
)

type options struct {
	Config string `short:"c" long:"config" description:"Path to the YAML config file"`
	Addr   string `long:"addr" description:"HTTP listen address override"`
	DB     string `long:"db" description:"SQLite database path override"`
	Check  string `long:"check" description:"Check a single URL and exit"`
	Export string `long:"export" description:"Export pending reviews to the given .xlsx path and exit"`
}

func main() {
	// A missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	var opts options
	parser := goflags.NewParser(&opts, goflags.Default)
	parser.Name = "linksentry"
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	cfg := config.Load(opts.Config)
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.DB != "" {
		cfg.Database.Path = opts.DB
	}

	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch {
	case opts.Check != "":
		result := application.CheckOnce(ctx, opts.Check)
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))

	case opts.Export != "":
		defer application.Close()
		count, err := report.ExportPending(ctx, application.ReviewLog(), opts.Export)
		if err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		logger.Info("exported pending reviews", "count", count, "path", opts.Export)

	default:
		if err := application.Run(ctx); err != nil {
			logger.Error("application stopped", "error", err)
			os.Exit(1)
		}
	}
}
