// Package simulator runs batches of independent snake draft trials on a bounded
// worker pool and hands finished trials to a Sink in trial order.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/draft-sim/internal/dataset"
	"github.com/stitts-dev/draft-sim/internal/draft"
	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/internal/roster"
	"github.com/stitts-dev/draft-sim/pkg/logger"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

// SeasonSource provides season data to the runner. *dataset.Loader implements it.
type SeasonSource interface {
	Seasons() ([]int, error)
	Season(year int) (*dataset.Season, error)
	Preload(ctx context.Context, years []int) error
}

// Config represents one batch of trials
type Config struct {
	RunID    uuid.UUID
	Teams    int
	Rounds   int
	Trials   int
	Seed     int64
	Workers  int
	Seasons  []int
	Required map[models.Position]int
	Limits   map[models.Position]int
	Rules    draft.Rules
}

// Stats describes a finished batch
type Stats struct {
	RunID     uuid.UUID     `json:"run_id"`
	Seed      int64         `json:"seed"`
	Seasons   []int         `json:"seasons"`
	Scheduled int           `json:"scheduled"`
	Emitted   int           `json:"emitted"`
	Exhausted int           `json:"exhausted"`
	Picks     int           `json:"picks"`
	Duration  time.Duration `json:"duration"`
}

// Runner runs draft trials
type Runner struct {
	cfg      Config
	source   SeasonSource
	selector *draft.Selector
	log      *logrus.Entry
}

// NewRunner validates cfg. A zero Seed is replaced with a time-based one and a
// zero RunID with a fresh UUID; both are reported in Stats.
func NewRunner(cfg Config, source SeasonSource, log *logrus.Entry) (*Runner, error) {
	if cfg.Teams < 1 {
		return nil, fmt.Errorf("teams must be positive, got %d: %w", cfg.Teams, utils.ErrInvalidConfig)
	}
	if cfg.Trials < 0 {
		return nil, fmt.Errorf("trials must not be negative, got %d: %w", cfg.Trials, utils.ErrInvalidConfig)
	}
	if err := cfg.Rules.Validate(cfg.Teams); err != nil {
		return nil, err
	}
	selector, err := draft.NewSelector(cfg.Rules, cfg.Rounds)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, utils.ErrInvalidConfig)
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.RunID == uuid.Nil {
		cfg.RunID = uuid.New()
	}
	if log == nil {
		log = logrus.NewEntry(logger.Discard())
	}

	return &Runner{
		cfg:      cfg,
		source:   source,
		selector: selector,
		log:      logger.WithRunContext(log, cfg.RunID.String()),
	}, nil
}

func (r *Runner) RunID() uuid.UUID {
	return r.cfg.RunID
}

func (r *Runner) Seed() int64 {
	return r.cfg.Seed
}

// Run executes every trial and emits results to sink in trial ID order. A trial is
// emitted only once it has fully completed. When ctx is cancelled no further trials
// are scheduled; trials already emitted stay emitted and ctx's error is returned.
func (r *Runner) Run(ctx context.Context, sink Sink) (*Stats, error) {
	start := time.Now()

	seasons, err := r.seasons()
	if err != nil {
		return nil, err
	}
	if err := r.source.Preload(ctx, seasons); err != nil {
		return nil, fmt.Errorf("failed to load seasons: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"trials":  r.cfg.Trials,
		"teams":   r.cfg.Teams,
		"rounds":  r.cfg.Rounds,
		"workers": r.cfg.Workers,
		"seasons": seasons,
		"seed":    r.cfg.Seed,
	}).Info("Starting draft simulation")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	results := make(chan *draft.Result, r.cfg.Workers)
	emitted := make(chan emitOutcome, 1)
	go func() {
		emitted <- r.emit(results, sink, cancel)
	}()

	scheduled := 0
	for id := 1; id <= r.cfg.Trials; id++ {
		if gctx.Err() != nil {
			break
		}
		scheduled++
		g.Go(func() error {
			res, err := r.trial(gctx, id, seasons)
			if err != nil {
				return err
			}
			select {
			case results <- res:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	workErr := g.Wait()
	close(results)
	out := <-emitted

	stats := &Stats{
		RunID:     r.cfg.RunID,
		Seed:      r.cfg.Seed,
		Seasons:   seasons,
		Scheduled: scheduled,
		Emitted:   out.emitted,
		Exhausted: out.exhausted,
		Picks:     out.picks,
		Duration:  time.Since(start),
	}

	switch {
	case out.err != nil:
		return stats, fmt.Errorf("sink failed: %w", out.err)
	case workErr != nil && !errors.Is(workErr, context.Canceled):
		return stats, workErr
	case ctx.Err() != nil || workErr != nil:
		r.log.WithField("emitted", stats.Emitted).Warn("Draft simulation cancelled")
		if err := context.Cause(ctx); err != nil {
			return stats, err
		}
		return stats, workErr
	}

	r.log.WithFields(logrus.Fields{
		"emitted":   stats.Emitted,
		"exhausted": stats.Exhausted,
		"duration":  stats.Duration.String(),
	}).Info("Draft simulation complete")
	return stats, nil
}

func (r *Runner) seasons() ([]int, error) {
	if len(r.cfg.Seasons) > 0 {
		return slices.Clone(r.cfg.Seasons), nil
	}
	seasons, err := r.source.Seasons()
	if err != nil {
		return nil, fmt.Errorf("failed to discover seasons: %w", err)
	}
	if len(seasons) == 0 {
		return nil, fmt.Errorf("no seasons available: %w", utils.ErrDataNotFound)
	}
	return seasons, nil
}

// trialRand is the per-trial RNG; a trial replays exactly from Seed and its ID
func (r *Runner) trialRand(trialID int) *rand.Rand {
	return rand.New(rand.NewSource(r.cfg.Seed + int64(trialID)))
}

func (r *Runner) trial(ctx context.Context, trialID int, seasons []int) (*draft.Result, error) {
	rng := r.trialRand(trialID)

	year := seasons[0]
	if len(seasons) > 1 {
		year = seasons[rng.Intn(len(seasons))]
	}
	season, err := r.source.Season(year)
	if err != nil {
		return nil, fmt.Errorf("trial %d: %w", trialID, err)
	}

	order := ShuffledOrder(r.cfg.Teams, rng)
	o, err := draft.NewOrchestrator(r.selector, draft.Trial{
		ID:      trialID,
		Season:  year,
		Order:   order,
		Pool:    season.Pool(),
		Tracker: roster.NewTracker(r.cfg.Teams, r.cfg.Required, r.cfg.Limits),
		Rand:    rng,
	}, logger.WithTrialContext(r.log, trialID, year))
	if err != nil {
		return nil, err
	}
	return o.Run(ctx)
}

// ShuffledOrder returns team IDs 1..teams in Fisher-Yates shuffled order
func ShuffledOrder(teams int, rng *rand.Rand) []int {
	order := make([]int, teams)
	for i := range order {
		order[i] = i + 1
	}
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

type emitOutcome struct {
	emitted   int
	exhausted int
	picks     int
	err       error
}

// emit reorders finished trials and hands contiguous runs to the sink. After a sink
// error it cancels the batch and keeps draining so workers never block.
func (r *Runner) emit(results <-chan *draft.Result, sink Sink, cancel context.CancelFunc) emitOutcome {
	var out emitOutcome
	pending := make(map[int]*draft.Result)
	next := 1
	step := max(r.cfg.Trials/10, 1)

	for res := range results {
		if out.err != nil {
			continue
		}
		pending[res.TrialID] = res
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := sink.Consume(ready); err != nil {
				out.err = fmt.Errorf("trial %d: %w", ready.TrialID, err)
				cancel()
				break
			}
			out.emitted++
			out.picks += len(ready.Picks)
			if ready.Exhausted {
				out.exhausted++
			}
			if out.emitted%step == 0 {
				r.log.WithFields(logrus.Fields{
					"completed": out.emitted,
					"total":     r.cfg.Trials,
				}).Info("Simulation progress")
			}
			next++
		}
	}

	if len(pending) > 0 && out.err == nil {
		r.log.WithField("dropped", len(pending)).Debug("Discarding trials finished after a gap")
	}
	return out
}
