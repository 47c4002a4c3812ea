package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SimulationRun is one batch of draft trials persisted by the result store
type SimulationRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StartedAt  time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Trials     int            `gorm:"not null" json:"trials"`
	Teams      int            `gorm:"not null" json:"teams"`
	Rounds     int            `gorm:"not null" json:"rounds"`
	Seed       int64          `json:"seed"`
	Config     datatypes.JSON `json:"config"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (SimulationRun) TableName() string {
	return "simulation_runs"
}

// PickRecord is the persisted form of a Pick
type PickRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RunID         uuid.UUID `gorm:"type:uuid;not null;index:idx_run_trial" json:"run_id"`
	TrialID       int       `gorm:"not null;index:idx_run_trial" json:"trial_number"`
	Round         int       `gorm:"not null" json:"round"`
	OverallPick   int       `gorm:"not null" json:"overall_pick"`
	TeamID        int       `gorm:"not null" json:"team_id"`
	PlayerID      string    `gorm:"not null" json:"player_id"`
	PlayerName    string    `gorm:"not null" json:"player_name"`
	Position      string    `gorm:"not null" json:"position"`
	FantasyPoints float64   `json:"fpts"`
	Season        int       `gorm:"not null" json:"year"`
}

func (PickRecord) TableName() string {
	return "draft_picks"
}

func NewPickRecord(runID uuid.UUID, p Pick) PickRecord {
	return PickRecord{
		RunID:         runID,
		TrialID:       p.TrialID,
		Round:         p.Round,
		OverallPick:   p.OverallPick,
		TeamID:        p.TeamID,
		PlayerID:      p.PlayerID,
		PlayerName:    p.PlayerName,
		Position:      string(p.Position),
		FantasyPoints: p.FantasyPoints,
		Season:        p.Season,
	}
}

func (r PickRecord) Pick() Pick {
	return Pick{
		TrialID:       r.TrialID,
		Round:         r.Round,
		OverallPick:   r.OverallPick,
		TeamID:        r.TeamID,
		PlayerID:      r.PlayerID,
		PlayerName:    r.PlayerName,
		Position:      Position(r.Position),
		FantasyPoints: r.FantasyPoints,
		Season:        r.Season,
	}
}

// RankingRecord is the persisted form of a RosterRanking. Slot detail is kept as JSON.
type RankingRecord struct {
	ID      uint                           `gorm:"primaryKey" json:"id"`
	RunID   uuid.UUID                      `gorm:"type:uuid;not null;index:idx_ranking_run_trial" json:"run_id"`
	TrialID int                            `gorm:"not null;index:idx_ranking_run_trial" json:"trial_number"`
	TeamID  int                            `gorm:"not null" json:"team_id"`
	Season  int                            `gorm:"not null" json:"year"`
	Slots   datatypes.JSONSlice[SlotScore] `json:"slots"`
	Total   float64                        `gorm:"not null" json:"total_fpts"`
	Rank    int                            `gorm:"not null" json:"rank"`
}

func (RankingRecord) TableName() string {
	return "roster_rankings"
}

func NewRankingRecord(runID uuid.UUID, r RosterRanking) RankingRecord {
	return RankingRecord{
		RunID:   runID,
		TrialID: r.TrialID,
		TeamID:  r.TeamID,
		Season:  r.Season,
		Slots:   datatypes.NewJSONSlice(r.Slots),
		Total:   r.Total,
		Rank:    r.Rank,
	}
}

func (r RankingRecord) Ranking() RosterRanking {
	return RosterRanking{
		TrialID: r.TrialID,
		TeamID:  r.TeamID,
		Season:  r.Season,
		Slots:   []SlotScore(r.Slots),
		Total:   r.Total,
		Rank:    r.Rank,
	}
}
