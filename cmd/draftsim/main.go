package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/stitts-dev/draft-sim/pkg/config"
	"github.com/stitts-dev/draft-sim/pkg/logger"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

const usage = `Usage: draftsim <command> [flags] [args]

Commands:
  simulate             run snake draft trials and write pick log, rankings and summary
  rank <pick-log.csv>  score a previously written pick log
  rank --run <id>      score a stored run's picks and backfill its rankings
  runs                 list stored runs, newest first, as CSV
  migrate [up|down]    create or drop the result tables`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, usage)
		return 3
	}
	command := args[0]

	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	var opts commandOptions
	switch command {
	case "rank":
		fs.StringVar(&opts.runID, "run", "", "stored run ID to rank instead of a pick log file")
	case "runs":
		fs.IntVar(&opts.limit, "limit", 20, "most recent runs to list (0 = all)")
	}
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 3
	}

	cfg, err := config.LoadConfig(fs)
	if err != nil {
		_, code := utils.Classify(err)
		logrus.Errorf("Failed to load config: %v", err)
		return code
	}

	logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithService("draftsim").WithField("command", command)
	log.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"data_dir":    cfg.DataDir,
		"output_dir":  cfg.OutputDir,
	}).Debug("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "simulate":
		err = runSimulate(ctx, cfg, log)
	case "rank":
		if fs.Changed("teams") {
			opts.teams = cfg.League.Teams
		}
		err = runRank(ctx, cfg, fs.Args(), opts, log)
	case "runs":
		err = runListRuns(ctx, cfg, opts.limit, os.Stdout, log)
	case "migrate":
		err = runMigrate(cfg, fs.Args(), log)
	default:
		err = fmt.Errorf("unknown command %q: %w", command, utils.ErrInvalidConfig)
	}

	appErr, code := utils.Classify(err)
	if appErr != nil {
		log.WithFields(logrus.Fields{
			"code":      appErr.Code,
			"exit_code": code,
		}).Error(appErr.Error())
	}
	return code
}
