package types

import (
	"time"

	"github.com/google/uuid"
)

// SurveyorAssignment pairs a target with the enumerator who will visit it.
// UserID is the supervisor who made (or last changed) the assignment.
// ToDelete is a transient audit marker: overwrite-mode unassignment first
// writes the acting user + the flag, then hard-deletes the row, so any
// audit trigger observes who removed it.
type SurveyorAssignment struct {
	TargetUID     uuid.UUID   `gorm:"type:uuid;primaryKey" json:"target_uid"`
	Target        *Target     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TargetUID;references:ID" json:"target,omitempty"`
	EnumeratorUID uuid.UUID   `gorm:"type:uuid;not null;index" json:"enumerator_uid"`
	Enumerator    *Enumerator `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnumeratorUID;references:ID" json:"enumerator,omitempty"`
	UserID        uuid.UUID   `gorm:"type:uuid;not null" json:"user_uid"`
	ToDelete      bool        `gorm:"column:to_delete;not null;default:false" json:"-"`
	CreatedAt     time.Time   `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (SurveyorAssignment) TableName() string { return "surveyor_assignment" }

// AssignmentEmailSchedule is the next scheduled assignment email for a form.
// The core only reads it and attaches it to successful assignment writes.
type AssignmentEmailSchedule struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"config_uid"`
	FormUID      uuid.UUID `gorm:"type:uuid;not null;index" json:"form_uid"`
	Form         *Form     `gorm:"constraint:OnDelete:CASCADE;foreignKey:FormUID;references:ID" json:"form,omitempty"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Dates        string    `gorm:"column:dates" json:"dates"`
	Time         string    `gorm:"column:time" json:"time"`
	ScheduleDate time.Time `gorm:"column:schedule_date;not null" json:"schedule_date"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AssignmentEmailSchedule) TableName() string { return "assignment_email_schedule" }
