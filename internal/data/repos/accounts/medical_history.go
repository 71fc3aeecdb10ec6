package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

// MedicalHistoryRepo reads the account system's medical-history rows.
// Patients are derived from them; this backend never writes them.
type MedicalHistoryRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.MedicalHistory, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*domain.MedicalHistory, error)
}

type medicalHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMedicalHistoryRepo(db *gorm.DB, baseLog *logger.Logger) MedicalHistoryRepo {
	return &medicalHistoryRepo{db: db, log: baseLog.With("repo", "MedicalHistoryRepo")}
}

func (r *medicalHistoryRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.MedicalHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row domain.MedicalHistory
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *medicalHistoryRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*domain.MedicalHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*domain.MedicalHistory
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
