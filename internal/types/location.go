package types

import (
	"time"

	"github.com/google/uuid"
)

// Location is one node of a survey's location table. LocationID is the
// natural id carried by uploads; ParentLocationUID must stay consistent
// with the geo-level chain (a location's parent sits at its geo level's
// parent level).
type Location struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SurveyID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_survey_location_id,unique" json:"survey_id"`
	Survey            *Survey    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SurveyID;references:ID" json:"survey,omitempty"`
	GeoLevelUID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"geo_level_uid"`
	GeoLevel          *GeoLevel  `gorm:"constraint:OnDelete:CASCADE;foreignKey:GeoLevelUID;references:ID" json:"geo_level,omitempty"`
	ParentLocationUID *uuid.UUID `gorm:"type:uuid;column:parent_location_uid" json:"parent_location_uid,omitempty"`
	LocationID        string     `gorm:"column:location_id;not null;index:idx_survey_location_id,unique" json:"location_id"`
	LocationName      string     `gorm:"column:location_name;not null" json:"location_name"`
	CreatedAt         time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Location) TableName() string { return "location" }
