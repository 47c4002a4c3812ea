// Package dataset loads per-season ADP rankings and season statistics from CSV files
// and joins them into immutable player pools.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/internal/pool"
	"github.com/stitts-dev/draft-sim/internal/scoring"
	"github.com/stitts-dev/draft-sim/pkg/logger"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

const (
	KindADP          = "adp"
	KindOffenseStats = "offensive stats"
	KindDefenseStats = "defensive stats"
)

var adpFilePattern = regexp.MustCompile(`^(\d{4})ADP\.csv$`)

// Season is one year's joined player data. It is read-only once loaded.
type Season struct {
	Year    int
	Waivers map[models.Position]float64
	players []models.Player
	pool    *pool.Pool
}

// NewSeason builds a season from already joined players
func NewSeason(year int, players []models.Player, waivers map[models.Position]float64) *Season {
	players = slices.Clone(players)
	return &Season{Year: year, Waivers: waivers, players: players, pool: pool.New(players)}
}

// Pool returns the full ranked pool for the season. Pools are immutable so every
// trial can start from the same value.
func (s *Season) Pool() *pool.Pool {
	return s.pool
}

// Players returns a copy of the season's players in file order
func (s *Season) Players() []models.Player {
	return slices.Clone(s.players)
}

// Options tunes waiver threshold computation
type Options struct {
	WaiverFactors    map[models.Position]float64
	WaiverLeagueSize int
	Logger           *logrus.Entry
}

// Loader reads seasons from a data directory laid out as
//
//	adp/<year>ADP.csv
//	seasonalstats/player_stats_<year>.csv
//	defensivestats/seasonal_defensive_stats_<year>.csv
//
// Loaded seasons are cached and safe to share between goroutines.
type Loader struct {
	dataDir string
	opts    Options
	log     *logrus.Entry

	mu      sync.Mutex
	seasons map[int]*Season
}

func NewLoader(dataDir string, opts Options) *Loader {
	if opts.WaiverFactors == nil {
		opts.WaiverFactors = scoring.DefaultWaiverFactors
	}
	if opts.WaiverLeagueSize <= 0 {
		opts.WaiverLeagueSize = scoring.DefaultWaiverLeagueSize
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logger.Discard())
	}
	return &Loader{
		dataDir: dataDir,
		opts:    opts,
		log:     log.WithField("component", "dataset"),
		seasons: make(map[int]*Season),
	}
}

func (l *Loader) adpPath(year int) string {
	return filepath.Join(l.dataDir, "adp", fmt.Sprintf("%dADP.csv", year))
}

func (l *Loader) offensePath(year int) string {
	return filepath.Join(l.dataDir, "seasonalstats", fmt.Sprintf("player_stats_%d.csv", year))
}

func (l *Loader) defensePath(year int) string {
	return filepath.Join(l.dataDir, "defensivestats", fmt.Sprintf("seasonal_defensive_stats_%d.csv", year))
}

// Seasons lists the years with an ADP file, ascending
func (l *Loader) Seasons() ([]int, error) {
	dir := filepath.Join(l.dataDir, "adp")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &utils.DataNotFoundError{Kind: KindADP, Path: dir}
		}
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}

	var years []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := adpFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		years = append(years, year)
	}
	slices.Sort(years)
	if len(years) == 0 {
		return nil, &utils.DataNotFoundError{Kind: KindADP, Path: dir}
	}
	return years, nil
}

// Season returns the joined data for year, loading it on first use
func (l *Loader) Season(year int) (*Season, error) {
	l.mu.Lock()
	if s, ok := l.seasons[year]; ok {
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()

	s, err := l.load(year)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.seasons[year]; ok {
		return cached, nil
	}
	l.seasons[year] = s
	return s, nil
}

// Preload loads every year concurrently and fails on the first missing dataset
func (l *Loader) Preload(ctx context.Context, years []int) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, year := range years {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := l.Season(year)
			return err
		})
	}
	return g.Wait()
}

// WaiverTable collects thresholds of every loaded season
func (l *Loader) WaiverTable() scoring.WaiverTable {
	l.mu.Lock()
	defer l.mu.Unlock()

	table := scoring.WaiverTable{}
	for year, s := range l.seasons {
		table.Set(year, s.Waivers)
	}
	return table
}

func (l *Loader) open(year int, kind, path string, required ...string) (*table, error) {
	t, err := readTable(path, required...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &utils.DataNotFoundError{Season: year, Kind: kind, Path: path}
		}
		return nil, fmt.Errorf("failed to read %s for %d: %w", kind, year, err)
	}
	return t, nil
}

func (l *Loader) load(year int) (*Season, error) {
	log := l.log.WithField("season", year)

	adp, err := l.open(year, KindADP, l.adpPath(year), "player_name", "player_id", "fppravg", "position")
	if err != nil {
		return nil, err
	}
	offense, err := l.open(year, KindOffenseStats, l.offensePath(year), "player_id", "position", "fppr")
	if err != nil {
		return nil, err
	}
	defense, err := l.open(year, KindDefenseStats, l.defensePath(year), "pa_team", "fpts")
	if err != nil {
		return nil, err
	}

	offensePts := make(map[string]float64, len(offense.rows))
	byPosition := make(map[models.Position][]float64)
	for _, row := range offense.rows {
		id := offense.get(row, "player_id")
		pts, err := offense.float(row, "fppr")
		if err != nil {
			return nil, err
		}
		if _, seen := offensePts[id]; id != "" && !seen {
			offensePts[id] = pts
		}
		if pos, err := models.ParsePosition(offense.get(row, "position")); err == nil {
			byPosition[pos] = append(byPosition[pos], pts)
		}
	}

	defensePts := make(map[string]float64, len(defense.rows))
	for _, row := range defense.rows {
		team := defense.get(row, "pa_team")
		pts, err := defense.float(row, "fpts")
		if err != nil {
			return nil, err
		}
		if team != "" {
			defensePts[team] = pts
		}
		byPosition[models.PositionDST] = append(byPosition[models.PositionDST], pts)
	}

	players := make([]models.Player, 0, len(adp.rows))
	seen := make(map[string]bool, len(adp.rows))
	for i, row := range adp.rows {
		id := adp.get(row, "player_id")
		pos, err := models.ParsePosition(adp.get(row, "position"))
		if err != nil {
			log.WithField("row", i+2).Warnf("Skipping ADP row: %v", err)
			continue
		}
		if id == "" || seen[id] {
			log.WithFields(logrus.Fields{"row": i + 2, "player_id": id}).Warn("Skipping ADP row with missing or duplicate player_id")
			continue
		}
		rank, err := adp.float(row, "fppravg")
		if err != nil {
			return nil, err
		}
		seen[id] = true

		pts := offensePts[id]
		if pos == models.PositionDST {
			pts = defensePts[id]
		}
		players = append(players, models.Player{
			ID:            id,
			Name:          adp.get(row, "player_name"),
			Position:      pos,
			RankScore:     rank,
			FantasyPoints: round2(pts),
			Season:        year,
		})
	}

	waivers := make(map[models.Position]float64, len(models.AllPositions))
	for _, pos := range models.AllPositions {
		factor, ok := l.opts.WaiverFactors[pos]
		if !ok {
			continue
		}
		waivers[pos] = round2(scoring.WaiverThreshold(byPosition[pos], factor, l.opts.WaiverLeagueSize))
	}

	log.WithFields(logrus.Fields{
		"players": len(players),
		"waivers": waivers,
	}).Info("Loaded season dataset")

	return NewSeason(year, players, waivers), nil
}
