// Package export writes simulation results as CSV files and reads pick logs back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stitts-dev/draft-sim/internal/draft"
	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

// PickLogHeader is the pick log column layout
var PickLogHeader = []string{
	"trial_number", "round", "overall_pick", "team_id",
	"player_id", "player_name", "position", "fpts", "year",
}

// PickWriter streams a pick log. It can be used directly as a simulator sink.
type PickWriter struct {
	w       *csv.Writer
	started bool
	rows    int
}

func NewPickWriter(w io.Writer) *PickWriter {
	return &PickWriter{w: csv.NewWriter(w)}
}

// Write appends picks, writing the header first if needed
func (p *PickWriter) Write(picks []models.Pick) error {
	if !p.started {
		if err := p.w.Write(PickLogHeader); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
		p.started = true
	}
	for _, pick := range picks {
		record := []string{
			strconv.Itoa(pick.TrialID),
			strconv.Itoa(pick.Round),
			strconv.Itoa(pick.OverallPick),
			strconv.Itoa(pick.TeamID),
			pick.PlayerID,
			pick.PlayerName,
			string(pick.Position),
			formatPoints(pick.FantasyPoints),
			strconv.Itoa(pick.Season),
		}
		if err := p.w.Write(record); err != nil {
			return fmt.Errorf("failed to write pick %d of trial %d: %w", pick.OverallPick, pick.TrialID, err)
		}
		p.rows++
	}
	return nil
}

// Consume writes a finished trial and flushes it
func (p *PickWriter) Consume(res *draft.Result) error {
	if err := p.Write(res.Picks); err != nil {
		return err
	}
	return p.Flush()
}

func (p *PickWriter) Flush() error {
	if !p.started {
		if err := p.w.Write(PickLogHeader); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
		p.started = true
	}
	p.w.Flush()
	return p.w.Error()
}

// Rows is the number of picks written
func (p *PickWriter) Rows() int {
	return p.rows
}

// ReadPicks parses a pick log written by PickWriter. Column order may differ but
// every PickLogHeader column must exist.
func ReadPicks(r io.Reader) ([]models.Pick, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty pick log: %w", utils.ErrInvalidPickLog)
		}
		return nil, fmt.Errorf("%v: %w", err, utils.ErrInvalidPickLog)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range PickLogHeader {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q: %w", name, utils.ErrInvalidPickLog)
		}
	}

	var picks []models.Pick
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, utils.ErrInvalidPickLog)
		}

		pick, err := parsePick(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, utils.ErrInvalidPickLog)
		}
		picks = append(picks, pick)
	}
	return picks, nil
}

func parsePick(record []string, cols map[string]int) (models.Pick, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[cols[name]])
	}
	ints := make(map[string]int, 5)
	for _, name := range []string{"trial_number", "round", "overall_pick", "team_id", "year"} {
		v, err := strconv.Atoi(field(name))
		if err != nil {
			return models.Pick{}, fmt.Errorf("%s: %w", name, err)
		}
		ints[name] = v
	}
	pts, err := strconv.ParseFloat(field("fpts"), 64)
	if err != nil {
		return models.Pick{}, fmt.Errorf("fpts: %w", err)
	}
	pos, err := models.ParsePosition(field("position"))
	if err != nil {
		return models.Pick{}, err
	}

	return models.Pick{
		TrialID:       ints["trial_number"],
		Round:         ints["round"],
		OverallPick:   ints["overall_pick"],
		TeamID:        ints["team_id"],
		PlayerID:      field("player_id"),
		PlayerName:    field("player_name"),
		Position:      pos,
		FantasyPoints: pts,
		Season:        ints["year"],
	}, nil
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
