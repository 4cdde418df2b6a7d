package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Target is a respondent/sample unit under a form. TargetID is the natural
// id used by assignment uploads.
type Target struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FormUID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_form_target_id,unique" json:"form_uid"`
	Form         *Form          `gorm:"constraint:OnDelete:CASCADE;foreignKey:FormUID;references:ID" json:"form,omitempty"`
	TargetID     string         `gorm:"column:target_id;not null;index:idx_form_target_id,unique" json:"target_id"`
	Gender       string         `gorm:"column:gender" json:"gender"`
	Language     string         `gorm:"column:language" json:"language"`
	LocationUID  *uuid.UUID     `gorm:"type:uuid;column:location_uid" json:"location_uid,omitempty"`
	Location     *Location      `gorm:"foreignKey:LocationUID;references:ID" json:"location,omitempty"`
	CustomFields datatypes.JSON `gorm:"column:custom_fields;type:jsonb" json:"custom_fields"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Target) TableName() string { return "target" }

// TargetStatus records the latest field outcome for a target. A target with
// no status row is assignable.
type TargetStatus struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TargetUID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"target_uid"`
	Target           *Target    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TargetUID;references:ID" json:"target,omitempty"`
	TargetAssignable bool       `gorm:"column:target_assignable;not null;default:true" json:"target_assignable"`
	CompletedFlag    bool       `gorm:"column:completed_flag;not null;default:false" json:"completed_flag"`
	NumAttempts      int        `gorm:"column:num_attempts;not null;default:0" json:"num_attempts"`
	LastAttemptOn    *time.Time `gorm:"column:last_attempt_on" json:"last_attempt_on,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (TargetStatus) TableName() string { return "target_status" }
