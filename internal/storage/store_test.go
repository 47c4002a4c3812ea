package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stitts-dev/draft-sim/internal/draft"
	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/pkg/database"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

type StoreTestSuite struct {
	suite.Suite
	db    *database.DB
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupSuite() {
	// Setup in-memory database
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := gormDB.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.db = &database.DB{DB: gormDB, Driver: database.DriverSQLite}
	s.store = NewStore(s.db, nil)
	s.ctx = context.Background()
	s.Require().NoError(s.store.Migrate())
}

func (s *StoreTestSuite) SetupTest() {
	// Clean database before each test
	s.db.Exec("DELETE FROM roster_rankings")
	s.db.Exec("DELETE FROM draft_picks")
	s.db.Exec("DELETE FROM simulation_runs")
}

func (s *StoreTestSuite) newRun() *models.SimulationRun {
	run := &models.SimulationRun{
		StartedAt: time.Now().UTC(),
		Trials:    2,
		Teams:     2,
		Rounds:    1,
		Seed:      42,
		Config:    datatypes.JSON(`{"league":{"teams":2}}`),
	}
	s.Require().NoError(s.store.CreateRun(s.ctx, run))
	return run
}

func (s *StoreTestSuite) TestCreateAndFinishRun() {
	run := s.newRun()
	s.NotEqual(uuid.Nil, run.ID)

	finished := time.Now().UTC()
	s.Require().NoError(s.store.FinishRun(s.ctx, run.ID, finished, 2))

	loaded, err := s.store.Run(s.ctx, run.ID)
	s.Require().NoError(err)
	s.Require().NotNil(loaded.FinishedAt)
	s.Equal(int64(42), loaded.Seed)
	s.JSONEq(`{"league":{"teams":2}}`, string(loaded.Config))

	runs, err := s.store.Runs(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(runs, 1)
}

func (s *StoreTestSuite) TestUnknownRun() {
	_, err := s.store.Run(s.ctx, uuid.New())
	s.ErrorIs(err, ErrRunNotFound)
	s.ErrorIs(err, utils.ErrDataNotFound, "unknown runs exit like missing data")
	s.ErrorIs(s.store.FinishRun(s.ctx, uuid.New(), time.Now(), 1), ErrRunNotFound)
}

func (s *StoreTestSuite) TestPicksRoundTripThroughSink() {
	run := s.newRun()
	sink := s.store.TrialSink(s.ctx, run.ID)

	trial2 := []models.Pick{
		{TrialID: 2, Round: 1, OverallPick: 2, TeamID: 1, PlayerID: "b", PlayerName: "B", Position: models.PositionWR, FantasyPoints: 80.5, Season: 2021},
		{TrialID: 2, Round: 1, OverallPick: 1, TeamID: 2, PlayerID: "a", PlayerName: "A", Position: models.PositionQB, FantasyPoints: 300, Season: 2021},
	}
	trial1 := []models.Pick{
		{TrialID: 1, Round: 1, OverallPick: 1, TeamID: 1, PlayerID: "a", PlayerName: "A", Position: models.PositionQB, FantasyPoints: 300, Season: 2021},
	}
	s.Require().NoError(sink.Consume(&draft.Result{TrialID: 2, Picks: trial2}))
	s.Require().NoError(sink.Consume(&draft.Result{TrialID: 1, Picks: trial1}))

	picks, err := s.store.Picks(s.ctx, run.ID)
	s.Require().NoError(err)
	s.Require().Len(picks, 3)
	s.Equal(trial1[0], picks[0])
	s.Equal(trial2[1], picks[1])
	s.Equal(trial2[0], picks[2])

	other, err := s.store.Picks(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *StoreTestSuite) TestRankingsKeepSlots() {
	run := s.newRun()
	ranking := models.RosterRanking{
		TrialID: 1,
		TeamID:  2,
		Season:  2021,
		Slots: []models.SlotScore{
			{Slot: "QB1", Position: models.PositionQB, PlayerID: "a", PlayerName: "A", Points: 300},
			{Slot: "TE1", Position: models.PositionTE, PlayerName: "waiver_te", Points: 95, Waiver: true},
		},
		Total: 395,
		Rank:  1,
	}
	second := ranking
	second.TeamID, second.Rank, second.Total = 1, 2, 10
	second.Slots = nil

	s.Require().NoError(s.store.SaveRankings(s.ctx, run.ID, []models.RosterRanking{second, ranking}))

	rankings, err := s.store.Rankings(s.ctx, run.ID)
	s.Require().NoError(err)
	s.Require().Len(rankings, 2)
	s.Equal(ranking, rankings[0])
	s.Equal(2, rankings[1].Rank)
	s.Empty(rankings[1].Slots)
}

func (s *StoreTestSuite) TestDropTables() {
	s.Require().NoError(s.store.DropTables())
	s.False(s.db.Migrator().HasTable(&models.PickRecord{}))
	s.Require().NoError(s.store.Migrate())
	s.True(s.db.Migrator().HasTable(&models.PickRecord{}))
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
