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

type UserTargetMappingRepo interface {
	UpsertBatch(ctx context.Context, tx *gorm.DB, mappings []*types.UserTargetMapping) ([]*types.UserTargetMapping, error)
	ListByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) ([]*types.UserTargetMapping, error)
	DeleteByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) error
}

type userTargetMappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTargetMappingRepo(db *gorm.DB, baseLog *logger.Logger) UserTargetMappingRepo {
	repoLog := baseLog.With("repo", "UserTargetMappingRepo")
	return &userTargetMappingRepo{db: db, log: repoLog}
}

// UpsertBatch writes target→supervisor rows keyed by target_uid, so a
// remap replaces the previous supervisor instead of duplicating the row.
func (mr *userTargetMappingRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, mappings []*types.UserTargetMapping) ([]*types.UserTargetMapping, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(mappings) == 0 {
		return []*types.UserTargetMapping{}, nil
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "target_uid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"user_id":    gorm.Expr("excluded.user_id"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		CreateInBatches(&mappings, 500).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

func (mr *userTargetMappingRepo) ListByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) ([]*types.UserTargetMapping, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.UserTargetMapping
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

func (mr *userTargetMappingRepo) DeleteByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(targetUIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("target_uid IN ?", targetUIDs).
		Delete(&types.UserTargetMapping{}).Error
}

type UserMappingConfigRepo interface {
	ReplaceForForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID, mappingType string, rows []*types.UserMappingConfig) ([]*types.UserMappingConfig, error)
	ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID, mappingType string) ([]*types.UserMappingConfig, error)
}

type userMappingConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserMappingConfigRepo(db *gorm.DB, baseLog *logger.Logger) UserMappingConfigRepo {
	repoLog := baseLog.With("repo", "UserMappingConfigRepo")
	return &userMappingConfigRepo{db: db, log: repoLog}
}

func (cr *userMappingConfigRepo) ReplaceForForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID, mappingType string, rows []*types.UserMappingConfig) ([]*types.UserMappingConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).
		Where("form_uid = ? AND mapping_type = ?", formUID, mappingType).
		Delete(&types.UserMappingConfig{}).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*types.UserMappingConfig{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (cr *userMappingConfigRepo) ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID, mappingType string) ([]*types.UserMappingConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.UserMappingConfig
	if err := transaction.WithContext(ctx).
		Where("form_uid = ? AND mapping_type = ?", formUID, mappingType).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
