package scoring

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/draft-sim/internal/models"
)

// SlotSummary aggregates every trial result of teams that picked from one draft slot
type SlotSummary struct {
	DraftSlot   int     `json:"draft_slot"`
	Trials      int     `json:"trials"`
	MeanTotal   float64 `json:"mean_total"`
	StdDevTotal float64 `json:"stddev_total"`
	MeanRank    float64 `json:"mean_rank"`
	WinRate     float64 `json:"win_rate"`
}

// Summary is the batch view across trials
type Summary struct {
	Trials           int           `json:"trials"`
	MeanWinningTotal float64       `json:"mean_winning_total"`
	Slots            []SlotSummary `json:"slots"`
}

// Summarize groups rankings by draft slot, the team's 1-based position in the
// round-1 order of its trial, read from the picks.
func Summarize(rankings []models.RosterRanking, picks []models.Pick) Summary {
	slotOf := make(map[teamKey]int)
	firstOverall := make(map[int]int)
	for _, p := range picks {
		if p.Round != 1 {
			continue
		}
		if first, ok := firstOverall[p.TrialID]; !ok || p.OverallPick < first {
			firstOverall[p.TrialID] = p.OverallPick
		}
	}
	for _, p := range picks {
		if p.Round == 1 {
			slotOf[teamKey{trial: p.TrialID, team: p.TeamID}] = p.OverallPick - firstOverall[p.TrialID] + 1
		}
	}

	totals := make(map[int][]float64)
	ranks := make(map[int][]float64)
	wins := make(map[int][]float64)
	trials := make(map[int]bool)
	var winning []float64

	for _, r := range rankings {
		trials[r.TrialID] = true
		if r.Rank == 1 {
			winning = append(winning, r.Total)
		}
		slot, ok := slotOf[teamKey{trial: r.TrialID, team: r.TeamID}]
		if !ok {
			continue
		}
		totals[slot] = append(totals[slot], r.Total)
		ranks[slot] = append(ranks[slot], float64(r.Rank))
		won := 0.0
		if r.Rank == 1 {
			won = 1
		}
		wins[slot] = append(wins[slot], won)
	}

	summary := Summary{Trials: len(trials)}
	if len(winning) > 0 {
		summary.MeanWinningTotal = stat.Mean(winning, nil)
	}

	slots := make([]int, 0, len(totals))
	for slot := range totals {
		slots = append(slots, slot)
	}
	slices.Sort(slots)

	for _, slot := range slots {
		n := len(totals[slot])
		s := SlotSummary{
			DraftSlot: slot,
			Trials:    n,
			MeanRank:  stat.Mean(ranks[slot], nil),
			WinRate:   floats.Sum(wins[slot]) / float64(n),
		}
		if n > 1 {
			s.MeanTotal, s.StdDevTotal = stat.MeanStdDev(totals[slot], nil)
		} else {
			s.MeanTotal = totals[slot][0]
		}
		summary.Slots = append(summary.Slots, s)
	}
	return summary
}
