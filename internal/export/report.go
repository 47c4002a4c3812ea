package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/internal/scoring"
)

// Default output file names
const (
	PickLogFile = "draft_results.csv"
	RankingFile = "fantasy_rankings.csv"
	SummaryFile = "draft_slot_summary.csv"
)

// RankingHeader returns year, trial_number, team_id, a name and points column per
// lineup slot, then total_fpts and rank
func RankingHeader(lineup []models.Slot) []string {
	header := []string{"year", "trial_number", "team_id"}
	for _, slot := range lineup {
		header = append(header, slot.Name, slot.Name+"_fpts")
	}
	return append(header, "total_fpts", "rank")
}

// WriteRankings writes one row per ranked roster in the given order
func WriteRankings(w io.Writer, rankings []models.RosterRanking) error {
	writer := csv.NewWriter(w)
	lineup := models.StandardLineup

	if err := writer.Write(RankingHeader(lineup)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, r := range rankings {
		record := []string{strconv.Itoa(r.Season), strconv.Itoa(r.TrialID), strconv.Itoa(r.TeamID)}
		for _, slot := range lineup {
			s, _ := r.Slot(slot.Name)
			record = append(record, s.PlayerName, formatPoints(s.Points))
		}
		record = append(record, formatPoints(r.Total), strconv.Itoa(r.Rank))
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write ranking for trial %d team %d: %w", r.TrialID, r.TeamID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SummaryHeader is the draft slot summary column layout
var SummaryHeader = []string{"draft_slot", "trials", "mean_total", "stddev_total", "mean_rank", "win_rate"}

func WriteSummary(w io.Writer, summary scoring.Summary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SummaryHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, s := range summary.Slots {
		record := []string{
			strconv.Itoa(s.DraftSlot),
			strconv.Itoa(s.Trials),
			strconv.FormatFloat(s.MeanTotal, 'f', 2, 64),
			strconv.FormatFloat(s.StdDevTotal, 'f', 2, 64),
			strconv.FormatFloat(s.MeanRank, 'f', 3, 64),
			strconv.FormatFloat(s.WinRate, 'f', 4, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write summary for slot %d: %w", s.DraftSlot, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// RunHeader is the stored run listing column layout
var RunHeader = []string{"run_id", "started_at", "finished_at", "trials", "teams", "rounds", "seed"}

// WriteRuns lists stored runs; an unfinished run has an empty finished_at
func WriteRuns(w io.Writer, runs []models.SimulationRun) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(RunHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, r := range runs {
		finished := ""
		if r.FinishedAt != nil {
			finished = r.FinishedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			r.ID.String(),
			r.StartedAt.UTC().Format(time.RFC3339),
			finished,
			strconv.Itoa(r.Trials),
			strconv.Itoa(r.Teams),
			strconv.Itoa(r.Rounds),
			strconv.FormatInt(r.Seed, 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write run %s: %w", r.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Create opens name under dir for writing, creating dir if needed
func Create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return f, nil
}
