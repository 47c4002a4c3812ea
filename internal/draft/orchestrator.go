package draft

import (
	"context"
	"fmt"
	"math/rand"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/internal/pool"
	"github.com/stitts-dev/draft-sim/internal/roster"
	"github.com/stitts-dev/draft-sim/pkg/logger"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

// Phase is the draft state machine position
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseRoundInProgress
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseRoundInProgress:
		return "round_in_progress"
	case PhaseComplete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is a snapshot of one trial's draft
type State struct {
	Round     int
	PickIndex int
	Order     []int
	Pool      *pool.Pool
	Tracker   *roster.Tracker
	Phase     Phase
}

// OnTheClock returns the team picking at the current round and pick index, or 0
func (s State) OnTheClock() int {
	if s.PickIndex < 0 || s.PickIndex >= len(s.Order) {
		return 0
	}
	if s.Round%2 == 0 {
		return s.Order[len(s.Order)-1-s.PickIndex]
	}
	return s.Order[s.PickIndex]
}

// TurnOrder returns the pick order for round: order itself on odd rounds and its
// exact reverse on even rounds.
func TurnOrder(order []int, round int) []int {
	out := slices.Clone(order)
	if round%2 == 0 {
		slices.Reverse(out)
	}
	return out
}

// Trial is everything one draft needs. Pool and Tracker are owned by the trial.
type Trial struct {
	ID      int
	Season  int
	Order   []int
	Pool    *pool.Pool
	Tracker *roster.Tracker
	Rand    *rand.Rand
}

// Result is a finished trial
type Result struct {
	TrialID   int           `json:"trial_number"`
	Season    int           `json:"year"`
	Picks     []models.Pick `json:"picks"`
	Order     []int         `json:"order"`
	Teams     []roster.Team `json:"teams"`
	Exhausted bool          `json:"exhausted"`
	Remaining *pool.Pool    `json:"-"`
}

// Orchestrator runs one trial's snake draft, one pick per Step
type Orchestrator struct {
	selector  *Selector
	trial     Trial
	state     State
	picks     []models.Pick
	exhausted bool
	log       *logrus.Entry
}

// NewOrchestrator checks that trial.Order is a permutation of the tracker's team IDs
func NewOrchestrator(selector *Selector, trial Trial, log *logrus.Entry) (*Orchestrator, error) {
	if trial.Pool == nil || trial.Tracker == nil {
		return nil, fmt.Errorf("trial %d: pool and tracker are required", trial.ID)
	}
	if len(trial.Order) != trial.Tracker.NumTeams() {
		return nil, fmt.Errorf("trial %d: order has %d teams, tracker has %d: %w",
			trial.ID, len(trial.Order), trial.Tracker.NumTeams(), utils.ErrUnknownTeam)
	}
	seen := make(map[int]bool, len(trial.Order))
	for _, id := range trial.Order {
		if id < 1 || id > len(trial.Order) || seen[id] {
			return nil, fmt.Errorf("trial %d: bad team %d in draft order: %w", trial.ID, id, utils.ErrUnknownTeam)
		}
		seen[id] = true
	}
	if log == nil {
		log = logrus.NewEntry(logger.Discard())
	}

	return &Orchestrator{
		selector: selector,
		trial:    trial,
		state: State{
			Order:   slices.Clone(trial.Order),
			Pool:    trial.Pool,
			Tracker: trial.Tracker,
			Phase:   PhaseNotStarted,
		},
		picks: make([]models.Pick, 0, selector.Rounds()*len(trial.Order)),
		log:   log,
	}, nil
}

// State returns the current draft state
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) Phase() Phase {
	return o.state.Phase
}

// TurnOrder returns the pick order for round in this trial
func (o *Orchestrator) TurnOrder(round int) []int {
	return TurnOrder(o.state.Order, round)
}

// Picks returns the picks made so far
func (o *Orchestrator) Picks() []models.Pick {
	return slices.Clone(o.picks)
}

// Step makes exactly one pick. It returns false once the draft is complete,
// either because every round is done or because the pool ran out.
func (o *Orchestrator) Step() (models.Pick, bool, error) {
	switch o.state.Phase {
	case PhaseComplete:
		return models.Pick{}, false, nil
	case PhaseNotStarted:
		o.state.Phase = PhaseRoundInProgress
		o.state.Round = 1
		o.state.PickIndex = 0
	}

	player, rule, ok := o.selector.Select(o.state, o.trial.Rand)
	if !ok {
		o.exhausted = true
		o.state.Phase = PhaseComplete
		o.log.WithFields(logrus.Fields{
			"round": o.state.Round,
			"picks": len(o.picks),
		}).Debug("Player pool exhausted, ending draft early")
		return models.Pick{}, false, nil
	}

	teamID := o.state.OnTheClock()
	if err := o.charge(teamID, player.Position, rule); err != nil {
		return models.Pick{}, false, fmt.Errorf("trial %d round %d: %w", o.trial.ID, o.state.Round, err)
	}

	pick := models.NewPick(o.trial.ID, o.state.Round, len(o.picks)+1, teamID, player)
	if pick.Season == 0 {
		pick.Season = o.trial.Season
	}
	o.picks = append(o.picks, pick)
	o.state.Pool = o.state.Pool.Remove(player.ID)

	o.log.WithFields(logrus.Fields{
		"round":   pick.Round,
		"overall": pick.OverallPick,
		"team":    teamID,
		"player":  player.Name,
		"pos":     player.Position,
		"rule":    rule,
	}).Debug("Pick made")

	o.advance()
	return pick, true, nil
}

// charge applies the pick to the tracker. Override and fallback picks may land on a
// full position; those are forced and logged. Any other over-cap pick is an error.
func (o *Orchestrator) charge(teamID int, pos models.Position, rule Rule) error {
	tracker := o.state.Tracker
	soft := rule == RuleOverride || rule == RuleFallback || !o.selector.rules.EnforceCaps
	if soft && !tracker.CanAdd(teamID, pos) {
		limit, _ := tracker.Limit(pos)
		o.log.WithFields(logrus.Fields{
			"team":  teamID,
			"pos":   pos,
			"limit": limit,
			"rule":  rule,
		}).Warn("Drafting past position limit")
		return tracker.Force(teamID, pos)
	}
	return tracker.ApplyPick(teamID, pos)
}

func (o *Orchestrator) advance() {
	o.state.PickIndex++
	if o.state.PickIndex < len(o.state.Order) {
		return
	}
	o.state.PickIndex = 0
	o.state.Round++
	if o.state.Round > o.selector.Rounds() {
		o.state.Phase = PhaseComplete
	}
}

// Run steps until the draft completes or ctx is cancelled
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, ok, err := o.Step()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}

	return &Result{
		TrialID:   o.trial.ID,
		Season:    o.trial.Season,
		Picks:     o.Picks(),
		Order:     slices.Clone(o.state.Order),
		Teams:     o.state.Tracker.Teams(),
		Exhausted: o.exhausted,
		Remaining: o.state.Pool,
	}, nil
}
