package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type FormRepo interface {
	Create(ctx context.Context, tx *gorm.DB, form *types.Form) (*types.Form, error)
	GetByID(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) (*types.Form, error)
	ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.Form, error)
	UpdateMappingCriteria(ctx context.Context, tx *gorm.DB, formUID uuid.UUID, criteria datatypes.JSON) error
}

type formRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormRepo(db *gorm.DB, baseLog *logger.Logger) FormRepo {
	repoLog := baseLog.With("repo", "FormRepo")
	return &formRepo{db: db, log: repoLog}
}

func (fr *formRepo) Create(ctx context.Context, tx *gorm.DB, form *types.Form) (*types.Form, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	if err := transaction.WithContext(ctx).Create(form).Error; err != nil {
		return nil, err
	}
	return form, nil
}

func (fr *formRepo) GetByID(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) (*types.Form, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var result types.Form
	if err := transaction.WithContext(ctx).
		Where("id = ?", formUID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (fr *formRepo) ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.Form, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var results []*types.Form
	if err := transaction.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *formRepo) UpdateMappingCriteria(ctx context.Context, tx *gorm.DB, formUID uuid.UUID, criteria datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Form{}).
		Where("id = ?", formUID).
		Update("mapping_criteria", criteria).Error
}
