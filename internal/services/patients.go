package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinect/clinect-backend/internal/data/repos/accounts"
	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

// PatientGraph is the slice of graph mutations patient sync needs.
type PatientGraph interface {
	UpsertPatient(ctx context.Context, p domain.PatientNode) error
	UpsertLocation(ctx context.Context, l domain.LocationNode) error
	LinkPatientCondition(ctx context.Context, userID uuid.UUID, conditionName string) error
	LinkPatientLocation(ctx context.Context, userID uuid.UUID, locationID string) error
	LinkPatientSavedTrial(ctx context.Context, userID uuid.UUID, nctID string) error
}

type PatientSyncStats struct {
	Patients       int `json:"patients"`
	ConditionLinks int `json:"conditionLinks"`
	LocationLinks  int `json:"locationLinks"`
	SavedLinks     int `json:"savedLinks"`
	Errors         int `json:"errors"`
}

// PatientSyncService projects account rows (medical histories and saved
// trials) into Patient nodes and their edges. The account system owns the
// rows; this backend only mirrors them into the graph.
type PatientSyncService interface {
	SyncPatient(ctx context.Context, userID uuid.UUID) error
	SyncAll(ctx context.Context) (PatientSyncStats, error)
}

type patientSyncService struct {
	db        *gorm.DB
	histories accounts.MedicalHistoryRepo
	saved     accounts.SavedTrialRepo
	graph     PatientGraph
	log       *logger.Logger
}

func NewPatientSyncService(db *gorm.DB, histories accounts.MedicalHistoryRepo, saved accounts.SavedTrialRepo, graph PatientGraph, baseLog *logger.Logger) PatientSyncService {
	return &patientSyncService{
		db:        db,
		histories: histories,
		saved:     saved,
		graph:     graph,
		log:       baseLog.With("service", "PatientSyncService"),
	}
}

func (s *patientSyncService) SyncPatient(ctx context.Context, userID uuid.UUID) error {
	history, err := s.histories.GetByUserID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("load medical history: %w", err)
	}
	if history == nil {
		return fmt.Errorf("no medical history for user")
	}

	savedRows, err := s.saved.ListByUserID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("load saved trials: %w", err)
	}

	stats := PatientSyncStats{}
	if err := s.syncOne(ctx, history, savedRows, &stats); err != nil {
		return err
	}
	if stats.Errors > 0 {
		s.log.Warn("patient sync completed with errors", "user_id", userID, "errors", stats.Errors)
	}
	return nil
}

func (s *patientSyncService) SyncAll(ctx context.Context) (PatientSyncStats, error) {
	stats := PatientSyncStats{}

	histories, err := s.histories.ListAll(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("list medical histories: %w", err)
	}
	savedRows, err := s.saved.ListAll(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("list saved trials: %w", err)
	}

	savedByUser := make(map[uuid.UUID][]*domain.SavedTrial, len(savedRows))
	for _, row := range savedRows {
		savedByUser[row.UserID] = append(savedByUser[row.UserID], row)
	}

	for _, history := range histories {
		if err := s.syncOne(ctx, history, savedByUser[history.UserID], &stats); err != nil {
			s.log.Warn("skipping patient during sync", "user_id", history.UserID, "error", err)
			stats.Errors++
		}
	}
	return stats, nil
}

func (s *patientSyncService) syncOne(ctx context.Context, history *domain.MedicalHistory, savedRows []*domain.SavedTrial, stats *PatientSyncStats) error {
	if err := s.graph.UpsertPatient(ctx, domain.PatientNode{
		UserID: history.UserID,
		Age:    history.Age,
		Gender: history.Gender,
	}); err != nil {
		return fmt.Errorf("upsert patient: %w", err)
	}
	stats.Patients++

	for _, condition := range history.ConditionList() {
		if err := s.graph.LinkPatientCondition(ctx, history.UserID, condition); err != nil {
			s.log.Warn("has_condition edge failed", "user_id", history.UserID, "error", err)
			stats.Errors++
			continue
		}
		stats.ConditionLinks++
	}

	if node, ok := domain.ParseLocationID(history.Location); ok {
		if err := s.graph.UpsertLocation(ctx, node); err != nil {
			s.log.Warn("location upsert failed", "user_id", history.UserID, "error", err)
			stats.Errors++
		} else if err := s.graph.LinkPatientLocation(ctx, history.UserID, node.ID()); err != nil {
			s.log.Warn("lives_in edge failed", "user_id", history.UserID, "error", err)
			stats.Errors++
		} else {
			stats.LocationLinks++
		}
	}

	for _, row := range savedRows {
		if err := s.graph.LinkPatientSavedTrial(ctx, history.UserID, row.NCTID); err != nil {
			s.log.Warn("saved_trial edge failed", "user_id", history.UserID, "nct_id", row.NCTID, "error", err)
			stats.Errors++
			continue
		}
		stats.SavedLinks++
	}
	return nil
}
