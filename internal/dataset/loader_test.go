package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedSeason(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "adp/2021ADP.csv", `player_name,player_id,FPPRAVG,POSITION,year
Christian McCaffrey,00-0033280,1.2,RB,2021
Patrick Mahomes,00-0033873,24.6,QB,2021
Buffalo Bills,BUF,120.3,DST,2021
Justin Tucker,00-0029597,140.1,PK,2021
Nobody,00-0000001,200,LB,2021
Rookie,00-0099999,180.7,WR,2021
`)
	writeFile(t, dir, "seasonalstats/player_stats_2021.csv", `player_id,position,fppr
00-0033280,RB,176.333
00-0033873,QB,374.16
00-0029597,K,152.0
00-0011111,QB,301.5
`)
	writeFile(t, dir, "defensivestats/seasonal_defensive_stats_2021.csv", `season,pa_team,fpts
2021,BUF,155.456
2021,DAL,170
`)
}

func TestLoader_SeasonJoinsStats(t *testing.T) {
	dir := t.TempDir()
	seedSeason(t, dir)

	loader := NewLoader(dir, Options{WaiverLeagueSize: 1, WaiverFactors: map[models.Position]float64{
		models.PositionQB:  2,
		models.PositionDST: 1,
	}})
	season, err := loader.Season(2021)
	require.NoError(t, err)

	players := season.Players()
	require.Len(t, players, 5, "LB row is skipped")

	byID := map[string]models.Player{}
	for _, p := range players {
		byID[p.ID] = p
		assert.Equal(t, 2021, p.Season)
	}
	assert.Equal(t, 176.33, byID["00-0033280"].FantasyPoints)
	assert.Equal(t, 374.16, byID["00-0033873"].FantasyPoints)
	assert.Equal(t, 155.46, byID["BUF"].FantasyPoints, "DST joined on team")
	assert.Equal(t, models.PositionK, byID["00-0029597"].Position)
	assert.Zero(t, byID["00-0099999"].FantasyPoints, "no stats row means zero points")

	best, ok := season.Pool().Best(nil)
	require.True(t, ok)
	assert.Equal(t, "Christian McCaffrey", best.Name)

	// second best QB of two and best DST of two
	assert.Equal(t, 301.5, season.Waivers[models.PositionQB])
	assert.Equal(t, 170.0, season.Waivers[models.PositionDST])
	_, hasRB := season.Waivers[models.PositionRB]
	assert.False(t, hasRB)

	table := loader.WaiverTable()
	assert.Equal(t, 301.5, table.Threshold(2021, models.PositionQB))
}

func TestLoader_SeasonIsCached(t *testing.T) {
	dir := t.TempDir()
	seedSeason(t, dir)
	loader := NewLoader(dir, Options{})

	first, err := loader.Season(2021)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "adp")))

	second, err := loader.Season(2021)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoader_MissingDataset(t *testing.T) {
	dir := t.TempDir()
	seedSeason(t, dir)
	loader := NewLoader(dir, Options{})

	_, err := loader.Season(1999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrDataNotFound))

	var notFound *utils.DataNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, 1999, notFound.Season)
	assert.Equal(t, KindADP, notFound.Kind)

	require.NoError(t, os.Remove(filepath.Join(dir, "defensivestats", "seasonal_defensive_stats_2021.csv")))
	_, err = loader.Season(2021)
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, KindDefenseStats, notFound.Kind)
}

func TestLoader_Seasons(t *testing.T) {
	dir := t.TempDir()
	seedSeason(t, dir)
	writeFile(t, dir, "adp/2019ADP.csv", "player_name,player_id,FPPRAVG,POSITION\n")
	writeFile(t, dir, "adp/notes.txt", "ignored")
	writeFile(t, dir, "adp/2020ADP.csv.bak", "ignored")

	years, err := NewLoader(dir, Options{}).Seasons()
	require.NoError(t, err)
	assert.Equal(t, []int{2019, 2021}, years)

	_, err = NewLoader(t.TempDir(), Options{}).Seasons()
	assert.ErrorIs(t, err, utils.ErrDataNotFound)
}

func TestLoader_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	seedSeason(t, dir)
	writeFile(t, dir, "adp/2022ADP.csv", "player_name,player_id,POSITION\nA,1,QB\n")

	_, err := NewLoader(dir, Options{}).Season(2022)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fppravg")
	assert.False(t, errors.Is(err, utils.ErrDataNotFound))
}

func TestLoader_Preload(t *testing.T) {
	dir := t.TempDir()
	seedSeason(t, dir)
	loader := NewLoader(dir, Options{})

	require.NoError(t, loader.Preload(context.Background(), []int{2021}))
	err := loader.Preload(context.Background(), []int{2021, 2030})
	assert.ErrorIs(t, err, utils.ErrDataNotFound)
}
