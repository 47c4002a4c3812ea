package draft

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/internal/pool"
	"github.com/stitts-dev/draft-sim/internal/roster"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

func player(id string, pos models.Position, rank float64) models.Player {
	return models.Player{ID: id, Name: "Player " + id, Position: pos, RankScore: rank, Season: 2021}
}

func strictRules() Rules {
	return Rules{EnforceCaps: true, EnforceRequirements: true}
}

func TestNewSelector_Validation(t *testing.T) {
	tests := []struct {
		name    string
		rules   Rules
		rounds  int
		wantErr bool
	}{
		{name: "defaults", rules: DefaultRules(), rounds: 16},
		{name: "zero rounds", rules: DefaultRules(), rounds: 0, wantErr: true},
		{
			name:    "weights do not sum to one",
			rules:   Rules{UseWeights: true, WeightBands: []WeightBand{{Weights: []float64{0.5, 0.4}}}},
			rounds:  4,
			wantErr: true,
		},
		{
			name:    "negative weight",
			rules:   Rules{WeightBands: []WeightBand{{Weights: []float64{1.5, -0.5}}}},
			rounds:  4,
			wantErr: true,
		},
		{name: "weights without bands", rules: Rules{UseWeights: true}, rounds: 4, wantErr: true},
		{
			name:    "override with bad position",
			rules:   Rules{Overrides: []Override{{TeamID: 1, Position: "LB", ThroughRound: 3}}},
			rounds:  4,
			wantErr: true,
		},
		{
			name:    "override with zero rounds",
			rules:   Rules{Overrides: []Override{{TeamID: 1, Position: models.PositionRB}}},
			rounds:  4,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSelector(tt.rules, tt.rounds)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateWeights_WrapsInvalidConfig(t *testing.T) {
	assert.NoError(t, ValidateWeights([]float64{0.64, 0.20, 0.10, 0.05, 0.01}))
	assert.ErrorIs(t, ValidateWeights(nil), utils.ErrInvalidConfig)
	assert.ErrorIs(t, ValidateWeights([]float64{0.3}), utils.ErrInvalidConfig)
}

func TestSelect_EmptyPool(t *testing.T) {
	sel, err := NewSelector(strictRules(), 2)
	require.NoError(t, err)

	st := State{Round: 1, Order: []int{1}, Pool: pool.New(nil), Tracker: roster.NewTracker(1, nil, nil)}
	_, _, ok := sel.Select(st, nil)
	assert.False(t, ok)
}

func TestSelect_ScarcityBeatsBetterRankedPlayer(t *testing.T) {
	sel, err := NewSelector(strictRules(), 2)
	require.NoError(t, err)

	tracker := roster.NewTracker(1, map[models.Position]int{models.PositionQB: 1, models.PositionTE: 1}, nil)
	p := pool.New([]models.Player{
		player("wr", models.PositionWR, 1),
		player("qb", models.PositionQB, 3),
		player("te", models.PositionTE, 5),
	})

	// round 2 of 2 leaves one round for two unmet positions
	st := State{Round: 2, Order: []int{1}, Pool: p, Tracker: tracker}
	chosen, rule, ok := sel.Select(st, nil)
	require.True(t, ok)
	assert.Equal(t, "qb", chosen.ID)
	assert.Equal(t, RuleScarcity, rule)
}

func TestSelect_ScarcityCountsOutstandingPicks(t *testing.T) {
	sel, err := NewSelector(strictRules(), 3)
	require.NoError(t, err)

	// one open position short of the rounds left, but three picks still owed
	tracker := roster.NewTracker(1, map[models.Position]int{models.PositionRB: 2, models.PositionWR: 1}, nil)
	p := pool.New([]models.Player{
		player("qb", models.PositionQB, 1),
		player("wr", models.PositionWR, 3),
		player("rb", models.PositionRB, 2),
	})

	chosen, rule, ok := sel.Select(State{Round: 1, Order: []int{1}, Pool: p, Tracker: tracker}, nil)
	require.True(t, ok)
	assert.Equal(t, "rb", chosen.ID)
	assert.Equal(t, RuleScarcity, rule)

	// with a spare round the best player is still taken
	sel, err = NewSelector(strictRules(), 4)
	require.NoError(t, err)
	chosen, rule, ok = sel.Select(State{Round: 1, Order: []int{1}, Pool: p, Tracker: tracker}, nil)
	require.True(t, ok)
	assert.Equal(t, "qb", chosen.ID)
	assert.Equal(t, RuleBestAvailable, rule)
}

func TestSelect_ScarcityFallsBackWhenUnmetPositionsGone(t *testing.T) {
	sel, err := NewSelector(strictRules(), 1)
	require.NoError(t, err)

	tracker := roster.NewTracker(1, map[models.Position]int{models.PositionK: 1}, nil)
	p := pool.New([]models.Player{player("wr", models.PositionWR, 4), player("rb", models.PositionRB, 2)})

	chosen, rule, ok := sel.Select(State{Round: 1, Order: []int{1}, Pool: p, Tracker: tracker}, nil)
	require.True(t, ok)
	assert.Equal(t, "rb", chosen.ID)
	assert.Equal(t, RuleBestAvailable, rule)
}

func TestSelect_RespectsCaps(t *testing.T) {
	sel, err := NewSelector(strictRules(), 10)
	require.NoError(t, err)

	tracker := roster.NewTracker(1, nil, map[models.Position]int{models.PositionRB: 1})
	require.NoError(t, tracker.ApplyPick(1, models.PositionRB))
	p := pool.New([]models.Player{player("rb", models.PositionRB, 1), player("wr", models.PositionWR, 2)})

	chosen, rule, ok := sel.Select(State{Round: 2, Order: []int{1}, Pool: p, Tracker: tracker}, nil)
	require.True(t, ok)
	assert.Equal(t, "wr", chosen.ID)
	assert.Equal(t, RuleBestAvailable, rule)

	// caps off: first RB is back in play
	loose, err := NewSelector(Rules{}, 10)
	require.NoError(t, err)
	chosen, _, _ = loose.Select(State{Round: 2, Order: []int{1}, Pool: p, Tracker: tracker}, nil)
	assert.Equal(t, "rb", chosen.ID)
}

func TestSelect_FallbackIgnoresCaps(t *testing.T) {
	sel, err := NewSelector(strictRules(), 10)
	require.NoError(t, err)

	tracker := roster.NewTracker(1, nil, map[models.Position]int{models.PositionK: 1})
	require.NoError(t, tracker.ApplyPick(1, models.PositionK))
	p := pool.New([]models.Player{player("k2", models.PositionK, 9), player("k1", models.PositionK, 8)})

	chosen, rule, ok := sel.Select(State{Round: 3, Order: []int{1}, Pool: p, Tracker: tracker}, nil)
	require.True(t, ok)
	assert.Equal(t, "k1", chosen.ID)
	assert.Equal(t, RuleFallback, rule)
}

func TestSelect_Override(t *testing.T) {
	rules := strictRules()
	rules.Overrides = []Override{{TeamID: 1, Position: models.PositionRB, ThroughRound: 2}}
	sel, err := NewSelector(rules, 16)
	require.NoError(t, err)

	tracker := roster.NewTracker(2, nil, nil)
	p := pool.New([]models.Player{player("qb", models.PositionQB, 1), player("rb", models.PositionRB, 7)})

	chosen, rule, _ := sel.Select(State{Round: 1, Order: []int{1, 2}, Pool: p, Tracker: tracker}, nil)
	assert.Equal(t, "rb", chosen.ID)
	assert.Equal(t, RuleOverride, rule)

	// team 2 has no override
	chosen, _, _ = sel.Select(State{Round: 1, PickIndex: 1, Order: []int{1, 2}, Pool: p, Tracker: tracker}, nil)
	assert.Equal(t, "qb", chosen.ID)

	// past through_round the team drafts normally
	chosen, rule, _ = sel.Select(State{Round: 3, Order: []int{1, 2}, Pool: p, Tracker: tracker}, nil)
	assert.Equal(t, "qb", chosen.ID)
	assert.NotEqual(t, RuleOverride, rule)

	// no RB left: best overall
	noRB := p.Remove("rb")
	chosen, rule, _ = sel.Select(State{Round: 1, Order: []int{1, 2}, Pool: noRB, Tracker: tracker}, nil)
	assert.Equal(t, "qb", chosen.ID)
	assert.Equal(t, RuleOverride, rule)
}

func TestSelect_WeightedDrawStaysInTopK(t *testing.T) {
	rules := DefaultRules()
	rules.EnforceRequirements = false
	sel, err := NewSelector(rules, 16)
	require.NoError(t, err)

	var players []models.Player
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		players = append(players, player(id, models.PositionWR, float64(i+1)))
	}
	p := pool.New(players)
	tracker := roster.NewTracker(1, nil, nil)
	rng := rand.New(rand.NewSource(42))

	early := map[string]int{}
	late := map[string]int{}
	for i := 0; i < 2000; i++ {
		chosen, rule, ok := sel.Select(State{Round: 1, Order: []int{1}, Pool: p, Tracker: tracker}, rng)
		require.True(t, ok)
		require.Equal(t, RuleWeighted, rule)
		early[chosen.ID]++

		chosen, _, _ = sel.Select(State{Round: 4, Order: []int{1}, Pool: p, Tracker: tracker}, rng)
		late[chosen.ID]++
	}

	assert.NotContains(t, early, "f", "rounds 1-3 draw from the top five only")
	assert.NotContains(t, late, "g", "later rounds draw from the top six only")
	assert.Greater(t, early["a"], early["b"])
	assert.Greater(t, early["a"], 1000)
}

func TestSelect_WeightedIsReproducibleFromSeed(t *testing.T) {
	sel, err := NewSelector(DefaultRules(), 16)
	require.NoError(t, err)

	var players []models.Player
	for i, id := range []string{"a", "b", "c", "d", "e", "f"} {
		players = append(players, player(id, models.PositionRB, float64(i)))
	}
	st := State{Round: 5, Order: []int{1}, Pool: pool.New(players), Tracker: roster.NewTracker(1, nil, nil)}

	draw := func(seed int64) []string {
		rng := rand.New(rand.NewSource(seed))
		var out []string
		for i := 0; i < 20; i++ {
			chosen, _, _ := sel.Select(st, rng)
			out = append(out, chosen.ID)
		}
		return out
	}
	assert.Equal(t, draw(99), draw(99))
}

func TestWeightedChoice_TruncatesToCandidates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	two := []models.Player{player("a", models.PositionWR, 1), player("b", models.PositionWR, 2)}

	for i := 0; i < 50; i++ {
		assert.Equal(t, "b", weightedChoice(two, []float64{0, 1, 0}, rng).ID)
	}
	// the only remaining weight is zero, so the top candidate is taken
	assert.Equal(t, "a", weightedChoice(two[:1], []float64{0, 1}, rng).ID)
}
