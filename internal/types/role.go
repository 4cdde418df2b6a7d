package types

import (
	"time"

	"github.com/google/uuid"
)

// Role is one node of a survey's role chain. Roles are batch-replaced per
// survey and validated as a single chain (one root, one child per node)
// before persistence. The deepest role is the bottom level: its users are
// the supervisors targets get mapped to.
type Role struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SurveyID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_survey_role_name,unique" json:"survey_id"`
	Survey           *Survey    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SurveyID;references:ID" json:"survey,omitempty"`
	Name             string     `gorm:"column:name;not null;index:idx_survey_role_name,unique" json:"name"`
	ReportingRoleUID *uuid.UUID `gorm:"type:uuid;column:reporting_role_uid" json:"reporting_role_uid,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Role) TableName() string { return "role" }

// UserHierarchy places a user at a role within a survey and points at the
// user they report to.
type UserHierarchy struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SurveyID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_survey_user,unique" json:"survey_id"`
	Survey        *Survey    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SurveyID;references:ID" json:"survey,omitempty"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_survey_user,unique" json:"user_id"`
	User          *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	RoleUID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"role_uid"`
	Role          *Role      `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoleUID;references:ID" json:"role,omitempty"`
	ParentUserUID *uuid.UUID `gorm:"type:uuid;column:parent_user_uid" json:"parent_user_uid,omitempty"`
	// Field attributes matched against mapping criteria, per survey.
	Gender      string     `gorm:"column:gender" json:"gender"`
	Language    string     `gorm:"column:language" json:"language"`
	LocationUID *uuid.UUID `gorm:"type:uuid;column:location_uid" json:"location_uid,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserHierarchy) TableName() string { return "user_hierarchy" }
