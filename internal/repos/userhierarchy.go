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

type UserHierarchyRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, entry *types.UserHierarchy) (*types.UserHierarchy, error)
	GetBySurveyAndUser(ctx context.Context, tx *gorm.DB, surveyID, userID uuid.UUID) (*types.UserHierarchy, error)
	ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.UserHierarchy, error)
	Delete(ctx context.Context, tx *gorm.DB, surveyID, userID uuid.UUID) error
}

type userHierarchyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserHierarchyRepo(db *gorm.DB, baseLog *logger.Logger) UserHierarchyRepo {
	repoLog := baseLog.With("repo", "UserHierarchyRepo")
	return &userHierarchyRepo{db: db, log: repoLog}
}

func (hr *userHierarchyRepo) Upsert(ctx context.Context, tx *gorm.DB, entry *types.UserHierarchy) (*types.UserHierarchy, error) {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "survey_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"role_uid":        entry.RoleUID,
				"parent_user_uid": entry.ParentUserUID,
				"gender":          entry.Gender,
				"language":        entry.Language,
				"location_uid":    entry.LocationUID,
				"updated_at":      time.Now().UTC(),
			}),
		}).
		Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (hr *userHierarchyRepo) GetBySurveyAndUser(ctx context.Context, tx *gorm.DB, surveyID, userID uuid.UUID) (*types.UserHierarchy, error) {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}
	var result types.UserHierarchy
	if err := transaction.WithContext(ctx).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (hr *userHierarchyRepo) ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.UserHierarchy, error) {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}
	var results []*types.UserHierarchy
	if err := transaction.WithContext(ctx).
		Preload("User").
		Preload("Role").
		Where("survey_id = ?", surveyID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (hr *userHierarchyRepo) Delete(ctx context.Context, tx *gorm.DB, surveyID, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}
	return transaction.WithContext(ctx).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Delete(&types.UserHierarchy{}).Error
}
