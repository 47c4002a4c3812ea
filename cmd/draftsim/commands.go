package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/stitts-dev/draft-sim/internal/dataset"
	"github.com/stitts-dev/draft-sim/internal/export"
	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/internal/scoring"
	"github.com/stitts-dev/draft-sim/internal/simulator"
	"github.com/stitts-dev/draft-sim/internal/storage"
	"github.com/stitts-dev/draft-sim/pkg/config"
	"github.com/stitts-dev/draft-sim/pkg/database"
	"github.com/stitts-dev/draft-sim/pkg/logger"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

func newLoader(cfg *config.Config, log *logrus.Entry) (*dataset.Loader, error) {
	factors, err := cfg.WaiverFactors()
	if err != nil {
		return nil, err
	}
	return dataset.NewLoader(cfg.DataDir, dataset.Options{
		WaiverFactors:    factors,
		WaiverLeagueSize: cfg.Scoring.WaiverLeagueSize,
		Logger:           log,
	}), nil
}

func openStore(cfg *config.Config, log *logrus.Entry) (*storage.Store, func() error, error) {
	db, err := database.NewConnection(cfg.Storage.Driver, cfg.Storage.DSN, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", utils.ErrStoreUnavailable, err)
	}
	return storage.NewStore(db, log), db.Close, nil
}

func runSimulate(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	loader, err := newLoader(cfg, log)
	if err != nil {
		return err
	}
	required, err := cfg.RequiredPositions()
	if err != nil {
		return err
	}
	limits, err := cfg.PositionLimits()
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	runner, err := simulator.NewRunner(simulator.Config{
		RunID:    uuid.New(),
		Teams:    cfg.League.Teams,
		Rounds:   cfg.League.Rounds,
		Trials:   cfg.League.Trials,
		Seed:     cfg.League.Seed,
		Workers:  cfg.League.Workers,
		Seasons:  cfg.League.Seasons,
		Required: required,
		Limits:   limits,
		Rules:    rules,
	}, loader, log)
	if err != nil {
		return err
	}
	log = logger.WithRunContext(log, runner.RunID().String())

	pickFile, err := export.Create(cfg.OutputDir, export.PickLogFile)
	if err != nil {
		return err
	}
	defer pickFile.Close()
	pickLog := export.NewPickWriter(pickFile)
	collector := &simulator.Collector{}
	sinks := simulator.MultiSink{pickLog, collector}

	var store *storage.Store
	if cfg.Storage.Enabled {
		s, closeDB, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()
		if err := s.Migrate(); err != nil {
			return err
		}
		snapshot, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to snapshot config: %w", err)
		}
		run := &models.SimulationRun{
			ID:        runner.RunID(),
			StartedAt: time.Now().UTC(),
			Trials:    cfg.League.Trials,
			Teams:     cfg.League.Teams,
			Rounds:    cfg.League.Rounds,
			Seed:      runner.Seed(),
			Config:    datatypes.JSON(snapshot),
		}
		if err := s.CreateRun(ctx, run); err != nil {
			return err
		}
		store = s
		sinks = append(sinks, store.TrialSink(ctx, run.ID))
	}

	stats, runErr := runner.Run(ctx, sinks)
	if err := pickLog.Flush(); err != nil {
		return fmt.Errorf("failed to flush pick log: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	picks := collector.Picks()
	rankings, err := scoring.NewEngine(loader.WaiverTable(), log).Rank(picks, cfg.League.Teams)
	if err != nil {
		return err
	}
	summary, err := writeReports(cfg.OutputDir, rankings, picks)
	if err != nil {
		return err
	}

	if store != nil {
		// A late signal must not drop a finished run
		saveCtx := context.WithoutCancel(ctx)
		if err := store.SaveRankings(saveCtx, runner.RunID(), rankings); err != nil {
			return err
		}
		if err := store.FinishRun(saveCtx, runner.RunID(), time.Now().UTC(), stats.Emitted); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"trials":             stats.Emitted,
		"exhausted":          stats.Exhausted,
		"picks":              pickLog.Rows(),
		"seed":               stats.Seed,
		"seasons":            stats.Seasons,
		"mean_winning_total": summary.MeanWinningTotal,
		"duration":           stats.Duration.String(),
	}).Info("Simulation results written")
	return nil
}

// commandOptions carries the flags only some commands register
type commandOptions struct {
	runID string
	limit int
	teams int
}

// runRank scores a pick log file, or with --run a stored run. A stored run whose
// rankings were never saved gets them backfilled.
func runRank(ctx context.Context, cfg *config.Config, args []string, opts commandOptions, log *logrus.Entry) error {
	var (
		picks  []models.Pick
		source string
		store  *storage.Store
		runID  uuid.UUID
	)
	teams := opts.teams

	switch {
	case opts.runID != "" && len(args) == 0:
		id, err := uuid.Parse(opts.runID)
		if err != nil {
			return fmt.Errorf("run id %q: %v: %w", opts.runID, err, utils.ErrInvalidConfig)
		}
		s, closeDB, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()
		run, err := s.Run(ctx, id)
		if err != nil {
			return err
		}
		if picks, err = s.Picks(ctx, id); err != nil {
			return err
		}
		teams, store, runID, source = run.Teams, s, id, "run "+id.String()
		log = logger.WithRunContext(log, id.String())
	case opts.runID == "" && len(args) == 1:
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open pick log: %w", err)
		}
		defer f.Close()
		if picks, err = export.ReadPicks(f); err != nil {
			return err
		}
		source = args[0]
	default:
		return fmt.Errorf("rank takes exactly one pick log path or --run: %w", utils.ErrInvalidConfig)
	}

	var seasons []int
	for _, p := range picks {
		if !slices.Contains(seasons, p.Season) {
			seasons = append(seasons, p.Season)
		}
	}
	slices.Sort(seasons)

	loader, err := newLoader(cfg, log)
	if err != nil {
		return err
	}
	if err := loader.Preload(ctx, seasons); err != nil {
		return fmt.Errorf("failed to load waiver thresholds: %w", err)
	}

	rankings, err := scoring.NewEngine(loader.WaiverTable(), log).Rank(picks, teams)
	if err != nil {
		return err
	}
	if _, err := writeReports(cfg.OutputDir, rankings, picks); err != nil {
		return err
	}

	if store != nil {
		stored, err := store.Rankings(ctx, runID)
		if err != nil {
			return err
		}
		switch {
		case len(stored) == 0:
			if err := store.SaveRankings(context.WithoutCancel(ctx), runID, rankings); err != nil {
				return err
			}
			log.WithField("rosters", len(rankings)).Info("Backfilled stored rankings")
		case len(stored) != len(rankings):
			log.WithFields(logrus.Fields{
				"stored":   len(stored),
				"computed": len(rankings),
			}).Warn("Stored rankings differ from the stored pick log")
		}
	}

	log.WithFields(logrus.Fields{
		"picks":   len(picks),
		"rosters": len(rankings),
		"seasons": seasons,
		"source":  source,
	}).Info("Rankings written")
	return nil
}

func runListRuns(ctx context.Context, cfg *config.Config, limit int, out io.Writer, log *logrus.Entry) error {
	store, closeDB, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if err := export.WriteRuns(out, runs); err != nil {
		return err
	}
	log.WithField("runs", len(runs)).Debug("Listed stored runs")
	return nil
}

func writeReports(dir string, rankings []models.RosterRanking, picks []models.Pick) (scoring.Summary, error) {
	summary := scoring.Summarize(rankings, picks)

	rf, err := export.Create(dir, export.RankingFile)
	if err != nil {
		return summary, err
	}
	defer rf.Close()
	if err := export.WriteRankings(rf, rankings); err != nil {
		return summary, err
	}

	sf, err := export.Create(dir, export.SummaryFile)
	if err != nil {
		return summary, err
	}
	defer sf.Close()
	if err := export.WriteSummary(sf, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

func runMigrate(cfg *config.Config, args []string, log *logrus.Entry) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	store, closeDB, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	switch command {
	case "up":
		if err := store.Migrate(); err != nil {
			return err
		}
		log.Info("Migrations completed successfully")
	case "down":
		if err := store.DropTables(); err != nil {
			return err
		}
		log.Info("Tables dropped successfully")
	default:
		return fmt.Errorf("unknown migrate command %q: %w", command, utils.ErrInvalidConfig)
	}
	return nil
}
