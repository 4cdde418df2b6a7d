package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	EnumeratorStatusActive  = "Active"
	EnumeratorStatusDropout = "Dropout"
	EnumeratorStatusTemp    = "Temp. Inactive"
)

// Enumerator is field staff attached to a form. EnumeratorID is the natural
// id used by assignment uploads.
type Enumerator struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FormUID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_form_enumerator_id,unique" json:"form_uid"`
	Form         *Form      `gorm:"constraint:OnDelete:CASCADE;foreignKey:FormUID;references:ID" json:"form,omitempty"`
	EnumeratorID string     `gorm:"column:enumerator_id;not null;index:idx_form_enumerator_id,unique" json:"enumerator_id"`
	Name         string     `gorm:"column:name;not null" json:"name"`
	Email        string     `gorm:"column:email" json:"email"`
	Gender       string     `gorm:"column:gender" json:"gender"`
	Language     string     `gorm:"column:language" json:"language"`
	LocationUID  *uuid.UUID `gorm:"type:uuid;column:location_uid" json:"location_uid,omitempty"`
	Location     *Location  `gorm:"foreignKey:LocationUID;references:ID" json:"location,omitempty"`
	Status       string     `gorm:"column:status;not null;default:'Active'" json:"status"`
	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Enumerator) TableName() string { return "enumerator" }
