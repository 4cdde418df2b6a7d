package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserTargetMapping is the resolved target→supervisor pairing. At most one
// live supervisor per target; writes are upserts keyed by TargetUID.
type UserTargetMapping struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TargetUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"target_uid"`
	Target    *Target   `gorm:"constraint:OnDelete:CASCADE;foreignKey:TargetUID;references:ID" json:"target,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_uid"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserTargetMapping) TableName() string { return "user_target_mapping" }

const (
	MappingTypeTarget   = "target"
	MappingTypeSurveyor = "surveyor"
)

// UserMappingConfig substitutes MappedTo for MappingValues when resolving an
// entity's mapping key. A row only applies while no supervisor naturally
// holds MappingValues; rows where the two sides are equal carry no
// information and are dropped on save.
type UserMappingConfig struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FormUID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"form_uid"`
	Form          *Form          `gorm:"constraint:OnDelete:CASCADE;foreignKey:FormUID;references:ID" json:"form,omitempty"`
	MappingType   string         `gorm:"column:mapping_type;not null" json:"mapping_type"`
	MappingValues datatypes.JSON `gorm:"column:mapping_values;type:jsonb;not null" json:"mapping_values"`
	MappedTo      datatypes.JSON `gorm:"column:mapped_to;type:jsonb;not null" json:"mapped_to"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserMappingConfig) TableName() string { return "user_mapping_config" }
