package models

// Slot is one starting lineup slot. Flex slots accept any flex-eligible position.
type Slot struct {
	Name     string
	Position Position
	Flex     bool
}

// StandardLineup is 1 QB, 2 RB, 2 WR, 1 TE, 1 K, 1 DST and one FLEX
var StandardLineup = []Slot{
	{Name: "QB1", Position: PositionQB},
	{Name: "RB1", Position: PositionRB},
	{Name: "RB2", Position: PositionRB},
	{Name: "WR1", Position: PositionWR},
	{Name: "WR2", Position: PositionWR},
	{Name: "TE1", Position: PositionTE},
	{Name: "K1", Position: PositionK},
	{Name: "DST1", Position: PositionDST},
	{Name: "FLEX1", Flex: true},
}

// SlotScore is the realized score of one lineup slot after waiver substitution
type SlotScore struct {
	Slot       string   `json:"slot"`
	Position   Position `json:"position,omitempty"`
	PlayerID   string   `json:"player_id,omitempty"`
	PlayerName string   `json:"player_name,omitempty"`
	Points     float64  `json:"points"`
	Waiver     bool     `json:"waiver"`
}

// Filled reports whether a drafted or waiver player occupies the slot
func (s SlotScore) Filled() bool {
	return s.PlayerName != ""
}

// RosterRanking is a team's best lineup for one trial and its rank among the trial's teams
type RosterRanking struct {
	TrialID int         `json:"trial_number"`
	TeamID  int         `json:"team_id"`
	Season  int         `json:"year"`
	Slots   []SlotScore `json:"slots"`
	Total   float64     `json:"total_fpts"`
	Rank    int         `json:"rank"`
}

// Slot returns the named slot score, if present
func (r RosterRanking) Slot(name string) (SlotScore, bool) {
	for _, s := range r.Slots {
		if s.Slot == name {
			return s, true
		}
	}
	return SlotScore{}, false
}
