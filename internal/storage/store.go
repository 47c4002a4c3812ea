// Package storage persists simulation runs, pick logs and rankings with gorm.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stitts-dev/draft-sim/internal/draft"
	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/pkg/database"
	"github.com/stitts-dev/draft-sim/pkg/logger"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

const defaultBatchSize = 500

// ErrRunNotFound is returned when a run ID has no stored run
var ErrRunNotFound = fmt.Errorf("simulation run not found: %w", utils.ErrDataNotFound)

// Store is the result store
type Store struct {
	db        *database.DB
	batchSize int
	log       *logrus.Entry
}

func NewStore(db *database.DB, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.NewEntry(logger.Discard())
	}
	return &Store{db: db, batchSize: defaultBatchSize, log: log.WithField("component", "storage")}
}

// Migrate creates or updates the result tables
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(
		&models.SimulationRun{},
		&models.PickRecord{},
		&models.RankingRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	s.log.WithField("driver", s.db.Driver).Info("Result tables migrated")
	return nil
}

// DropTables removes the result tables
func (s *Store) DropTables() error {
	if err := s.db.Migrator().DropTable(
		&models.RankingRecord{},
		&models.PickRecord{},
		&models.SimulationRun{},
	); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return nil
}

func (s *Store) CreateRun(ctx context.Context, run *models.SimulationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's completion time and the number of trials stored
func (s *Store) FinishRun(ctx context.Context, runID uuid.UUID, finished time.Time, trials int) error {
	res := s.db.WithContext(ctx).Model(&models.SimulationRun{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{"finished_at": finished, "trials": trials})
	if res.Error != nil {
		return fmt.Errorf("failed to finish run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (s *Store) Run(ctx context.Context, runID uuid.UUID) (*models.SimulationRun, error) {
	var run models.SimulationRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return &run, nil
}

// Runs lists the most recent runs first
func (s *Store) Runs(ctx context.Context, limit int) ([]models.SimulationRun, error) {
	var runs []models.SimulationRun
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (s *Store) SavePicks(ctx context.Context, runID uuid.UUID, picks []models.Pick) error {
	if len(picks) == 0 {
		return nil
	}
	records := make([]models.PickRecord, len(picks))
	for i, p := range picks {
		records[i] = models.NewPickRecord(runID, p)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(records, s.batchSize).Error; err != nil {
		return fmt.Errorf("failed to save picks: %w", err)
	}
	return nil
}

func (s *Store) SaveRankings(ctx context.Context, runID uuid.UUID, rankings []models.RosterRanking) error {
	if len(rankings) == 0 {
		return nil
	}
	records := make([]models.RankingRecord, len(rankings))
	for i, r := range rankings {
		records[i] = models.NewRankingRecord(runID, r)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(records, s.batchSize).Error; err != nil {
		return fmt.Errorf("failed to save rankings: %w", err)
	}
	return nil
}

// Picks returns a run's pick log ordered by trial and overall pick
func (s *Store) Picks(ctx context.Context, runID uuid.UUID) ([]models.Pick, error) {
	var records []models.PickRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("trial_id, overall_pick").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load picks: %w", err)
	}
	picks := make([]models.Pick, len(records))
	for i, r := range records {
		picks[i] = r.Pick()
	}
	return picks, nil
}

// Rankings returns a run's rankings ordered by trial and rank
func (s *Store) Rankings(ctx context.Context, runID uuid.UUID) ([]models.RosterRanking, error) {
	var records []models.RankingRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("trial_id, rank").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rankings: %w", err)
	}
	rankings := make([]models.RosterRanking, len(records))
	for i, r := range records {
		rankings[i] = r.Ranking()
	}
	return rankings, nil
}

// TrialSink persists each finished trial's picks under one run
type TrialSink struct {
	ctx   context.Context
	store *Store
	runID uuid.UUID
}

func (s *Store) TrialSink(ctx context.Context, runID uuid.UUID) *TrialSink {
	return &TrialSink{ctx: ctx, store: s, runID: runID}
}

func (t *TrialSink) Consume(res *draft.Result) error {
	return t.store.SavePicks(t.ctx, t.runID, res.Picks)
}
