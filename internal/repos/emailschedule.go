package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type AssignmentEmailScheduleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, schedule *types.AssignmentEmailSchedule) (*types.AssignmentEmailSchedule, error)
	ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) ([]*types.AssignmentEmailSchedule, error)
	NextForForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID, after time.Time) (*types.AssignmentEmailSchedule, error)
}

type assignmentEmailScheduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentEmailScheduleRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentEmailScheduleRepo {
	repoLog := baseLog.With("repo", "AssignmentEmailScheduleRepo")
	return &assignmentEmailScheduleRepo{db: db, log: repoLog}
}

func (er *assignmentEmailScheduleRepo) Create(ctx context.Context, tx *gorm.DB, schedule *types.AssignmentEmailSchedule) (*types.AssignmentEmailSchedule, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if err := transaction.WithContext(ctx).Create(schedule).Error; err != nil {
		return nil, err
	}
	return schedule, nil
}

func (er *assignmentEmailScheduleRepo) ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) ([]*types.AssignmentEmailSchedule, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.AssignmentEmailSchedule
	if err := transaction.WithContext(ctx).
		Where("form_uid = ?", formUID).
		Order("schedule_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// NextForForm returns the soonest schedule at or after the given time, or
// nil when none is configured.
func (er *assignmentEmailScheduleRepo) NextForForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID, after time.Time) (*types.AssignmentEmailSchedule, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var result types.AssignmentEmailSchedule
	err := transaction.WithContext(ctx).
		Where("form_uid = ? AND schedule_date >= ?", formUID, after).
		Order("schedule_date ASC").
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
