// Package scoring turns a pick log into each team's best starting lineup and ranks
// the teams of every trial by realized fantasy points.
package scoring

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/pkg/logger"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

// Engine scores rosters against a fixed starting lineup
type Engine struct {
	lineup  []models.Slot
	waivers WaiverTable
	log     *logrus.Entry
}

// NewEngine scores the standard lineup. A nil waiver table disables substitution.
func NewEngine(waivers WaiverTable, log *logrus.Entry) *Engine {
	if waivers == nil {
		waivers = WaiverTable{}
	}
	if log == nil {
		log = logrus.NewEntry(logger.Discard())
	}
	return &Engine{lineup: models.StandardLineup, waivers: waivers, log: log}
}

type teamKey struct {
	trial int
	team  int
}

// Rank scores and ranks every team in picks. Output is ordered by trial, then rank.
// teams is the league size: each trial in picks gets a row for every team 1..teams,
// so a team the pool ran out on is ranked on waiver slots alone. With teams 0 only
// teams found in picks are ranked. The same input always produces the same result.
func (e *Engine) Rank(picks []models.Pick, teams int) ([]models.RosterRanking, error) {
	rosters := make(map[teamKey][]models.Pick)
	seasons := make(map[int]int)
	var keys []teamKey
	var trials []int
	for i, p := range picks {
		if p.TeamID < 1 || (teams > 0 && p.TeamID > teams) {
			return nil, fmt.Errorf("pick %d: team %d: %w", i+1, p.TeamID, utils.ErrInvalidPickLog)
		}
		if !p.Position.Valid() {
			return nil, fmt.Errorf("pick %d: position %q: %w", i+1, p.Position, utils.ErrInvalidPickLog)
		}
		if _, ok := seasons[p.TrialID]; !ok {
			seasons[p.TrialID] = p.Season
			trials = append(trials, p.TrialID)
		}
		k := teamKey{trial: p.TrialID, team: p.TeamID}
		if _, ok := rosters[k]; !ok {
			keys = append(keys, k)
		}
		rosters[k] = append(rosters[k], p)
	}

	for _, trial := range trials {
		for team := 1; team <= teams; team++ {
			k := teamKey{trial: trial, team: team}
			if _, ok := rosters[k]; !ok {
				rosters[k] = nil
				keys = append(keys, k)
			}
		}
	}

	rankings := make([]models.RosterRanking, 0, len(keys))
	for _, k := range keys {
		rankings = append(rankings, e.score(k, seasons[k.trial], rosters[k]))
	}

	slices.SortStableFunc(rankings, func(a, b models.RosterRanking) int {
		return cmp.Or(
			cmp.Compare(a.TrialID, b.TrialID),
			cmp.Compare(b.Total, a.Total),
			cmp.Compare(a.TeamID, b.TeamID),
		)
	})

	trial, rank := 0, 0
	for i := range rankings {
		if i == 0 || rankings[i].TrialID != trial {
			trial, rank = rankings[i].TrialID, 0
		}
		rank++
		rankings[i].Rank = rank
	}

	e.log.WithFields(logrus.Fields{
		"picks": len(picks),
		"teams": len(rankings),
	}).Debug("Ranked rosters")
	return rankings, nil
}

// score fills the lineup with the highest scoring picks, then FLEX from what is
// left, then floors each fixed slot at the season's waiver threshold.
func (e *Engine) score(k teamKey, season int, roster []models.Pick) models.RosterRanking {
	sorted := slices.Clone(roster)
	slices.SortStableFunc(sorted, func(a, b models.Pick) int {
		return cmp.Compare(b.FantasyPoints, a.FantasyPoints)
	})
	used := make([]bool, len(sorted))

	take := func(match func(models.Position) bool) (models.Pick, bool) {
		for i, p := range sorted {
			if !used[i] && match(p.Position) {
				used[i] = true
				return p, true
			}
		}
		return models.Pick{}, false
	}

	slots := make([]models.SlotScore, 0, len(e.lineup))
	for _, slot := range e.lineup {
		if slot.Flex {
			continue
		}
		score := models.SlotScore{Slot: slot.Name, Position: slot.Position}
		if p, ok := take(func(pos models.Position) bool { return pos == slot.Position }); ok {
			score.PlayerID, score.PlayerName, score.Points = p.PlayerID, p.PlayerName, p.FantasyPoints
		}
		if threshold := e.waivers.Threshold(season, slot.Position); threshold > score.Points {
			score.PlayerID = ""
			score.PlayerName = "waiver_" + strings.ToLower(string(slot.Position))
			score.Points = threshold
			score.Waiver = true
		}
		slots = append(slots, score)
	}

	// Flex slots come after every fixed slot is filled
	for _, slot := range e.lineup {
		if !slot.Flex {
			continue
		}
		score := models.SlotScore{Slot: slot.Name}
		if p, ok := take(models.Position.FlexEligible); ok {
			score.Position, score.PlayerID, score.PlayerName, score.Points = p.Position, p.PlayerID, p.PlayerName, p.FantasyPoints
		}
		slots = append(slots, score)
	}

	total := 0.0
	for _, s := range slots {
		total += s.Points
	}

	return models.RosterRanking{
		TrialID: k.trial,
		TeamID:  k.team,
		Season:  season,
		Slots:   slots,
		Total:   math.Round(total*100) / 100,
	}
}
