package models

// Pick is one recorded selection in a trial's pick log
type Pick struct {
	TrialID       int      `json:"trial_number"`
	Round         int      `json:"round"`
	OverallPick   int      `json:"overall_pick"`
	TeamID        int      `json:"team_id"`
	PlayerID      string   `json:"player_id"`
	PlayerName    string   `json:"player_name"`
	Position      Position `json:"position"`
	FantasyPoints float64  `json:"fpts"`
	Season        int      `json:"year"`
}

// NewPick builds the pick record for player drafted by team at the given slot
func NewPick(trialID, round, overall, teamID int, player Player) Pick {
	return Pick{
		TrialID:       trialID,
		Round:         round,
		OverallPick:   overall,
		TeamID:        teamID,
		PlayerID:      player.ID,
		PlayerName:    player.Name,
		Position:      player.Position,
		FantasyPoints: player.FantasyPoints,
		Season:        player.Season,
	}
}
