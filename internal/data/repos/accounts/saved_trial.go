package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

// SavedTrialRepo reads the account system's saved-trial rows so SAVED_TRIAL
// edges can be projected into the graph.
type SavedTrialRepo interface {
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.SavedTrial, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*domain.SavedTrial, error)
}

type savedTrialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSavedTrialRepo(db *gorm.DB, baseLog *logger.Logger) SavedTrialRepo {
	return &savedTrialRepo{db: db, log: baseLog.With("repo", "SavedTrialRepo")}
}

func (r *savedTrialRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.SavedTrial, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*domain.SavedTrial
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("saved_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *savedTrialRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*domain.SavedTrial, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*domain.SavedTrial
	if err := transaction.WithContext(ctx).
		Order("saved_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
