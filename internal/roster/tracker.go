// Package roster tracks, per team, which starting positions are still required and
// how many players of each position have been drafted.
package roster

import (
	"fmt"
	"maps"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

// Team is one manager's roster state. Team IDs start at 1.
type Team struct {
	ID       int                     `json:"team_id"`
	Required map[models.Position]int `json:"required_positions"`
	Drafted  map[models.Position]int `json:"drafted_counts"`
}

// TotalDrafted is the number of players on the roster
func (t Team) TotalDrafted() int {
	total := 0
	for _, n := range t.Drafted {
		total += n
	}
	return total
}

func (t Team) clone() Team {
	return Team{ID: t.ID, Required: maps.Clone(t.Required), Drafted: maps.Clone(t.Drafted)}
}

// Tracker holds roster state for every team in a trial
type Tracker struct {
	teams  []Team
	limits map[models.Position]int
}

// NewTracker sizes state for numTeams teams. A position missing from limits is uncapped.
func NewTracker(numTeams int, required, limits map[models.Position]int) *Tracker {
	teams := make([]Team, numTeams)
	for i := range teams {
		req := make(map[models.Position]int, len(models.AllPositions))
		drafted := make(map[models.Position]int, len(models.AllPositions))
		for _, pos := range models.AllPositions {
			req[pos] = max(required[pos], 0)
			drafted[pos] = 0
		}
		teams[i] = Team{ID: i + 1, Required: req, Drafted: drafted}
	}
	return &Tracker{teams: teams, limits: maps.Clone(limits)}
}

func (t *Tracker) NumTeams() int {
	return len(t.teams)
}

func (t *Tracker) team(teamID int) (*Team, error) {
	if teamID < 1 || teamID > len(t.teams) {
		return nil, fmt.Errorf("team %d: %w", teamID, utils.ErrUnknownTeam)
	}
	return &t.teams[teamID-1], nil
}

// Team returns a copy of a team's state
func (t *Tracker) Team(teamID int) (Team, error) {
	team, err := t.team(teamID)
	if err != nil {
		return Team{}, err
	}
	return team.clone(), nil
}

// Teams returns copies of every team's state ordered by ID
func (t *Tracker) Teams() []Team {
	out := make([]Team, len(t.teams))
	for i := range t.teams {
		out[i] = t.teams[i].clone()
	}
	return out
}

// Limit returns the cap for a position and whether one is configured
func (t *Tracker) Limit(pos models.Position) (int, bool) {
	limit, ok := t.limits[pos]
	return limit, ok
}

func (t *Tracker) NeedsPosition(teamID int, pos models.Position) bool {
	team, err := t.team(teamID)
	if err != nil {
		return false
	}
	return team.Required[pos] > 0
}

// UnmetPositions returns required positions with outstanding count, in canonical order
func (t *Tracker) UnmetPositions(teamID int) []models.Position {
	team, err := t.team(teamID)
	if err != nil {
		return nil
	}
	var unmet []models.Position
	for _, pos := range models.AllPositions {
		if team.Required[pos] > 0 {
			unmet = append(unmet, pos)
		}
	}
	return unmet
}

// Outstanding is the number of required picks a team still has to make
func (t *Tracker) Outstanding(teamID int) int {
	team, err := t.team(teamID)
	if err != nil {
		return 0
	}
	total := 0
	for _, n := range team.Required {
		total += n
	}
	return total
}

func (t *Tracker) CanAdd(teamID int, pos models.Position) bool {
	team, err := t.team(teamID)
	if err != nil {
		return false
	}
	limit, capped := t.limits[pos]
	return !capped || team.Drafted[pos] < limit
}

// ApplyPick charges a drafted player to a team. A pick at a full position is
// rejected with a CapacityExceededError and leaves the team unchanged.
func (t *Tracker) ApplyPick(teamID int, pos models.Position) error {
	team, err := t.team(teamID)
	if err != nil {
		return err
	}
	if limit, capped := t.limits[pos]; capped && team.Drafted[pos] >= limit {
		return &utils.CapacityExceededError{TeamID: teamID, Position: string(pos), Limit: limit}
	}

	team.Drafted[pos]++
	if team.Required[pos] > 0 {
		team.Required[pos]--
	}
	return nil
}

// Force charges a pick without checking the position cap. The draft fallback uses
// it when the only players left are at positions the team has already filled.
func (t *Tracker) Force(teamID int, pos models.Position) error {
	team, err := t.team(teamID)
	if err != nil {
		return err
	}
	team.Drafted[pos]++
	if team.Required[pos] > 0 {
		team.Required[pos]--
	}
	return nil
}

// Complete reports whether every team has filled all required positions
func (t *Tracker) Complete() bool {
	for i := range t.teams {
		for _, n := range t.teams[i].Required {
			if n > 0 {
				return false
			}
		}
	}
	return true
}

// Clone deep-copies the tracker
func (t *Tracker) Clone() *Tracker {
	teams := make([]Team, len(t.teams))
	for i := range t.teams {
		teams[i] = t.teams[i].clone()
	}
	return &Tracker{teams: teams, limits: maps.Clone(t.limits)}
}
