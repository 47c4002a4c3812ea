// Package draft implements snake draft pick selection and the per-trial draft state machine.
package draft

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/internal/pool"
)

// Rule names the selection step that produced a pick
type Rule string

const (
	RuleOverride      Rule = "override"
	RuleScarcity      Rule = "scarcity"
	RuleBestAvailable Rule = "best_available"
	RuleWeighted      Rule = "weighted"
	RuleFallback      Rule = "fallback"
)

// Selector chooses the next player for the team on the clock. It never mutates state.
type Selector struct {
	rules  Rules
	rounds int
}

// NewSelector validates rules for a draft of the given length
func NewSelector(rules Rules, rounds int) (*Selector, error) {
	if rounds < 1 {
		return nil, fmt.Errorf("rounds must be positive, got %d", rounds)
	}
	if err := rules.Validate(0); err != nil {
		return nil, err
	}
	return &Selector{rules: rules, rounds: rounds}, nil
}

func (s *Selector) Rounds() int {
	return s.rounds
}

func (s *Selector) Rules() Rules {
	return s.rules
}

// Select picks a player for the team on the clock in st. It returns false only when
// the pool is empty. rng is only consulted for weighted picks and may be nil otherwise.
func (s *Selector) Select(st State, rng *rand.Rand) (models.Player, Rule, bool) {
	if st.Pool == nil || st.Pool.Empty() {
		return models.Player{}, "", false
	}
	p, tracker, round := st.Pool, st.Tracker, st.Round
	teamID := st.OnTheClock()

	// Override ignores every other rule
	if pos, ok := s.overrideFor(teamID, round); ok {
		if player, ok := p.Best(pool.OfPosition(pos)); ok {
			return player, RuleOverride, true
		}
		player, _ := p.Best(nil)
		return player, RuleOverride, true
	}

	addable := func(player models.Player) bool {
		return !s.rules.EnforceCaps || tracker.CanAdd(teamID, player.Position)
	}

	if s.rules.EnforceRequirements {
		// Every remaining round is owed to a required pick
		unmet := tracker.UnmetPositions(teamID)
		roundsLeft := s.rounds - round + 1
		if len(unmet) > 0 && roundsLeft <= tracker.Outstanding(teamID) {
			player, ok := p.Best(func(player models.Player) bool {
				return slices.Contains(unmet, player.Position) && addable(player)
			})
			if ok {
				return player, RuleScarcity, true
			}
		}
	}

	if band, ok := s.bandFor(round); ok && s.rules.UseWeights && rng != nil {
		candidates := p.Top(addable, len(band.Weights))
		if len(candidates) > 0 {
			return weightedChoice(candidates, band.Weights, rng), RuleWeighted, true
		}
	} else if player, ok := p.Best(addable); ok {
		return player, RuleBestAvailable, true
	}

	player, _ := p.Best(nil)
	return player, RuleFallback, true
}

func (s *Selector) overrideFor(teamID, round int) (models.Position, bool) {
	for _, o := range s.rules.Overrides {
		if o.TeamID == teamID && round <= o.ThroughRound {
			return o.Position, true
		}
	}
	return "", false
}

func (s *Selector) bandFor(round int) (WeightBand, bool) {
	for _, band := range s.rules.WeightBands {
		if band.Covers(round) {
			return band, true
		}
	}
	return WeightBand{}, false
}

// weightedChoice draws one candidate using the leading len(candidates) weights.
// Truncated weights are renormalized implicitly by drawing against their sum.
func weightedChoice(candidates []models.Player, weights []float64, rng *rand.Rand) models.Player {
	weights = weights[:min(len(weights), len(candidates))]

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return candidates[0]
	}

	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return candidates[i]
		}
	}
	return candidates[len(weights)-1]
}
