package scoring

import (
	"cmp"
	"math"
	"slices"

	"github.com/stitts-dev/draft-sim/internal/models"
)

// DefaultWaiverLeagueSize is the league size the waiver factors were tuned for
const DefaultWaiverLeagueSize = 16

// DefaultWaiverFactors sets the replacement-level depth per position as a
// multiple of league size
var DefaultWaiverFactors = map[models.Position]float64{
	models.PositionQB:  1.6,
	models.PositionRB:  3.6,
	models.PositionWR:  3.6,
	models.PositionTE:  1.6,
	models.PositionK:   1.6,
	models.PositionDST: 1.6,
}

// WaiverThreshold returns the season points of the replacement-level player:
// the floor(leagueSize*factor)-th best score. It is 0 when there are not that many players.
func WaiverThreshold(points []float64, factor float64, leagueSize int) float64 {
	idx := int(math.Floor(float64(leagueSize)*factor)) - 1
	if idx < 0 || idx >= len(points) {
		return 0
	}
	sorted := slices.Clone(points)
	slices.SortFunc(sorted, func(a, b float64) int {
		return cmp.Compare(b, a)
	})
	return sorted[idx]
}

// WaiverTable holds waiver thresholds by season and position
type WaiverTable map[int]map[models.Position]float64

// Threshold returns 0 for unknown seasons or positions
func (w WaiverTable) Threshold(season int, pos models.Position) float64 {
	return w[season][pos]
}

// Set records the thresholds for a season
func (w WaiverTable) Set(season int, thresholds map[models.Position]float64) {
	w[season] = thresholds
}
