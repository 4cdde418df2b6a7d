package types

import (
	"time"

	"github.com/google/uuid"
)

type Survey struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name             string     `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Description      string     `gorm:"column:description" json:"description"`
	PrimeGeoLevelUID *uuid.UUID `gorm:"type:uuid;column:prime_geo_level_uid" json:"prime_geo_level_uid,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Survey) TableName() string { return "survey" }

// SurveyAdmin marks a user as admin of one survey. Super admins are
// admins everywhere and carry no rows here.
type SurveyAdmin struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SurveyID uuid.UUID `gorm:"type:uuid;not null;index:idx_survey_admin,unique" json:"survey_id"`
	Survey   *Survey   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SurveyID;references:ID" json:"survey,omitempty"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_survey_admin,unique" json:"user_id"`
	User     *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
}

func (SurveyAdmin) TableName() string { return "survey_admin" }
