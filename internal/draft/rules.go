package draft

import (
	"fmt"
	"math"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

const weightTolerance = 1e-6

// WeightBand is the rank distribution used for top-K weighted picks up to and
// including ThroughRound. ThroughRound 0 leaves the band open ended.
type WeightBand struct {
	ThroughRound int
	Weights      []float64
}

// Covers reports whether the band applies to round
func (b WeightBand) Covers(round int) bool {
	return b.ThroughRound == 0 || round <= b.ThroughRound
}

// Override forces Team to draft Position in every round up to ThroughRound
type Override struct {
	TeamID       int
	Position     models.Position
	ThroughRound int
}

// Rules configures the selector
type Rules struct {
	UseWeights          bool
	EnforceCaps         bool
	EnforceRequirements bool
	WeightBands         []WeightBand
	Overrides           []Override
}

// DefaultRules returns the league defaults: requirements and caps enforced, weighted
// picks over the top five in rounds 1 to 3 and the top six afterwards.
func DefaultRules() Rules {
	return Rules{
		UseWeights:          true,
		EnforceCaps:         true,
		EnforceRequirements: true,
		WeightBands: []WeightBand{
			{ThroughRound: 3, Weights: []float64{0.64, 0.20, 0.10, 0.05, 0.01}},
			{ThroughRound: 0, Weights: []float64{0.50, 0.10, 0.10, 0.10, 0.10, 0.10}},
		},
	}
}

// Validate checks weight bands and overrides
func (r Rules) Validate(numTeams int) error {
	for i, band := range r.WeightBands {
		if band.ThroughRound < 0 {
			return fmt.Errorf("weight band %d: negative through_round: %w", i, utils.ErrInvalidConfig)
		}
		if err := ValidateWeights(band.Weights); err != nil {
			return fmt.Errorf("weight band %d: %w", i, err)
		}
	}
	if r.UseWeights && len(r.WeightBands) == 0 {
		return fmt.Errorf("use_weights set without weight bands: %w", utils.ErrInvalidConfig)
	}

	for i, o := range r.Overrides {
		if o.TeamID < 1 || (numTeams > 0 && o.TeamID > numTeams) {
			return fmt.Errorf("override %d: team %d outside 1..%d: %w", i, o.TeamID, numTeams, utils.ErrInvalidConfig)
		}
		if !o.Position.Valid() {
			return fmt.Errorf("override %d: unknown position %q: %w", i, o.Position, utils.ErrInvalidConfig)
		}
		if o.ThroughRound < 1 {
			return fmt.Errorf("override %d: through_round must be at least 1: %w", i, utils.ErrInvalidConfig)
		}
	}
	return nil
}

// ValidateWeights requires a non-empty, non-negative distribution summing to 1
func ValidateWeights(weights []float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("empty weight distribution: %w", utils.ErrInvalidConfig)
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("weight %v is not a probability: %w", w, utils.ErrInvalidConfig)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights sum to %.6f, want 1: %w", sum, utils.ErrInvalidConfig)
	}
	return nil
}
