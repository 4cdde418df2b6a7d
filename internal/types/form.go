package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Form is a field form under a survey. MappingCriteria holds the ordered
// list of criteria configured for target/surveyor mapping, a subset of
// ["Location", "Gender", "Language"].
type Form struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SurveyID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"survey_id"`
	Survey          *Survey        `gorm:"constraint:OnDelete:CASCADE;foreignKey:SurveyID;references:ID" json:"survey,omitempty"`
	Name            string         `gorm:"column:name;not null" json:"name"`
	MappingCriteria datatypes.JSON `gorm:"column:mapping_criteria;type:jsonb" json:"mapping_criteria"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Form) TableName() string { return "form" }
