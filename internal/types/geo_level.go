package types

import (
	"time"

	"github.com/google/uuid"
)

// GeoLevel is one level of a survey's geographic hierarchy. Levels form a
// single chain via ParentGeoLevelUID (exactly one top level, each level at
// most one child); the chain is validated before rows are persisted.
type GeoLevel struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SurveyID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"survey_id"`
	Survey            *Survey    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SurveyID;references:ID" json:"survey,omitempty"`
	Name              string     `gorm:"column:name;not null" json:"name"`
	ParentGeoLevelUID *uuid.UUID `gorm:"type:uuid;column:parent_geo_level_uid" json:"parent_geo_level_uid,omitempty"`
	CreatedAt         time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (GeoLevel) TableName() string { return "geo_level" }
