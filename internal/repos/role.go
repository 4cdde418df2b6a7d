package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type RoleRepo interface {
	ReplaceForSurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID, roles []*types.Role) ([]*types.Role, error)
	ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.Role, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, roleUIDs []uuid.UUID) ([]*types.Role, error)
}

type roleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoleRepo(db *gorm.DB, baseLog *logger.Logger) RoleRepo {
	repoLog := baseLog.With("repo", "RoleRepo")
	return &roleRepo{db: db, log: repoLog}
}

func (rr *roleRepo) ReplaceForSurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID, roles []*types.Role) ([]*types.Role, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if err := transaction.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Delete(&types.Role{}).Error; err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []*types.Role{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (rr *roleRepo) ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.Role, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.Role
	if err := transaction.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *roleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, roleUIDs []uuid.UUID) ([]*types.Role, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.Role
	if len(roleUIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", roleUIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
