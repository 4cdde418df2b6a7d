package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type SurveyorAssignmentRepo interface {
	ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) ([]*types.SurveyorAssignment, error)
	GetByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) ([]*types.SurveyorAssignment, error)
	UpsertBatch(ctx context.Context, tx *gorm.DB, assignments []*types.SurveyorAssignment) ([]*types.SurveyorAssignment, error)
	RemoveByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID, actingUserID uuid.UUID) error
}

type surveyorAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSurveyorAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) SurveyorAssignmentRepo {
	repoLog := baseLog.With("repo", "SurveyorAssignmentRepo")
	return &surveyorAssignmentRepo{db: db, log: repoLog}
}

func (ar *surveyorAssignmentRepo) ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) ([]*types.SurveyorAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.SurveyorAssignment
	if err := transaction.WithContext(ctx).
		Joins("JOIN target ON target.id = surveyor_assignment.target_uid").
		Where("target.form_uid = ?", formUID).
		Preload("Target").
		Preload("Enumerator").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *surveyorAssignmentRepo) GetByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) ([]*types.SurveyorAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.SurveyorAssignment
	if len(targetUIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("target_uid IN ?", targetUIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpsertBatch writes assignments keyed by target_uid: a second assignment
// for the same target replaces the enumerator in place.
func (ar *surveyorAssignmentRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, assignments []*types.SurveyorAssignment) ([]*types.SurveyorAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(assignments) == 0 {
		return []*types.SurveyorAssignment{}, nil
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "target_uid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"enumerator_uid": gorm.Expr("excluded.enumerator_uid"),
				"user_id":        gorm.Expr("excluded.user_id"),
				"to_delete":      false,
				"updated_at":     time.Now().UTC(),
			}),
		}).
		CreateInBatches(&assignments, 500).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// RemoveByTargets unassigns targets in two steps inside the caller's
// transaction: first stamp the acting user and the to_delete marker so the
// audit trail records who removed the rows, then hard-delete them.
func (ar *surveyorAssignmentRepo) RemoveByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID, actingUserID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(targetUIDs) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).
		Model(&types.SurveyorAssignment{}).
		Where("target_uid IN ?", targetUIDs).
		Updates(map[string]interface{}{
			"user_id":    actingUserID,
			"to_delete":  true,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("target_uid IN ?", targetUIDs).
		Delete(&types.SurveyorAssignment{}).Error
}
