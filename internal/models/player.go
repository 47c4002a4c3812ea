package models

import (
	"fmt"
	"slices"
	"strings"
)

// Position is a fantasy football roster position
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDST Position = "DST"
)

// AllPositions is the canonical position order used for deterministic iteration
var AllPositions = []Position{PositionQB, PositionRB, PositionWR, PositionTE, PositionK, PositionDST}

// ParsePosition normalizes a position label from a dataset or config file.
// "D/ST" and "DEF" are accepted as defense aliases.
func ParsePosition(s string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "QB":
		return PositionQB, nil
	case "RB":
		return PositionRB, nil
	case "WR":
		return PositionWR, nil
	case "TE":
		return PositionTE, nil
	case "K", "PK":
		return PositionK, nil
	case "DST", "D/ST", "DEF":
		return PositionDST, nil
	}
	return "", fmt.Errorf("unknown position %q", s)
}

func (p Position) Valid() bool {
	return slices.Contains(AllPositions, p)
}

// FlexEligible reports whether the position can fill the FLEX slot
func (p Position) FlexEligible() bool {
	return p != PositionQB && p != PositionDST
}

// Player is a draftable player for one season. Identity is ID.
type Player struct {
	ID            string   `json:"player_id"`
	Name          string   `json:"player_name"`
	Position      Position `json:"position"`
	RankScore     float64  `json:"rank_score"`
	FantasyPoints float64  `json:"fantasy_points"`
	Season        int      `json:"season"`
}
