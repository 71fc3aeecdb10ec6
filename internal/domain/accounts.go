package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account-system rows. This backend only reads them to project Patient
// nodes into the graph; account CRUD lives elsewhere.

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email    string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password string    `gorm:"not null;column:password" json:"-"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

type MedicalHistory struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	Age    *int   `gorm:"column:age" json:"age,omitempty"`
	Gender string `gorm:"column:gender" json:"gender,omitempty"`
	// Home location as a "City, Region" identity, matching graph Location ids.
	Location string `gorm:"column:location" json:"location,omitempty"`
	// Comma-separated condition names, as entered by the patient.
	Conditions  string `gorm:"column:conditions" json:"conditions,omitempty"`
	Medications string `gorm:"column:medications" json:"-"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MedicalHistory) TableName() string { return "medical_histories" }

// ConditionList splits the free-text conditions column into trimmed names.
func (m *MedicalHistory) ConditionList() []string {
	if m == nil || strings.TrimSpace(m.Conditions) == "" {
		return nil
	}
	parts := strings.Split(m.Conditions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

type SavedTrial struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_saved_trials_user_nct" json:"user_id"`
	NCTID  string    `gorm:"column:nct_id;not null;uniqueIndex:idx_saved_trials_user_nct" json:"nct_id"`

	TrialData datatypes.JSON `gorm:"column:trial_data;type:jsonb;not null;default:'{}'" json:"trial_data"`

	SavedAt   time.Time      `gorm:"not null;default:now()" json:"saved_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SavedTrial) TableName() string { return "saved_trials" }
