package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type SurveyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, survey *types.Survey) (*types.Survey, error)
	GetByID(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) (*types.Survey, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Survey, error)
	ListByIDs(ctx context.Context, tx *gorm.DB, surveyIDs []uuid.UUID) ([]*types.Survey, error)
	Update(ctx context.Context, tx *gorm.DB, survey *types.Survey) (*types.Survey, error)
	SetPrimeGeoLevel(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID, geoLevelUID *uuid.UUID) error
	AddAdmin(ctx context.Context, tx *gorm.DB, surveyID, userID uuid.UUID) error
	IsAdmin(ctx context.Context, tx *gorm.DB, surveyID, userID uuid.UUID) (bool, error)
	ListAdminSurveyIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type surveyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSurveyRepo(db *gorm.DB, baseLog *logger.Logger) SurveyRepo {
	repoLog := baseLog.With("repo", "SurveyRepo")
	return &surveyRepo{db: db, log: repoLog}
}

func (sr *surveyRepo) Create(ctx context.Context, tx *gorm.DB, survey *types.Survey) (*types.Survey, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if err := transaction.WithContext(ctx).Create(survey).Error; err != nil {
		return nil, err
	}
	return survey, nil
}

func (sr *surveyRepo) GetByID(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) (*types.Survey, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var result types.Survey
	if err := transaction.WithContext(ctx).
		Where("id = ?", surveyID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *surveyRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Survey, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Survey
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *surveyRepo) ListByIDs(ctx context.Context, tx *gorm.DB, surveyIDs []uuid.UUID) ([]*types.Survey, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Survey
	if len(surveyIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", surveyIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *surveyRepo) Update(ctx context.Context, tx *gorm.DB, survey *types.Survey) (*types.Survey, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if err := transaction.WithContext(ctx).Save(survey).Error; err != nil {
		return nil, err
	}
	return survey, nil
}

func (sr *surveyRepo) SetPrimeGeoLevel(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID, geoLevelUID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Survey{}).
		Where("id = ?", surveyID).
		Update("prime_geo_level_uid", geoLevelUID).Error
}

func (sr *surveyRepo) AddAdmin(ctx context.Context, tx *gorm.DB, surveyID, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	admin := types.SurveyAdmin{SurveyID: surveyID, UserID: userID}
	return transaction.WithContext(ctx).Create(&admin).Error
}

func (sr *surveyRepo) IsAdmin(ctx context.Context, tx *gorm.DB, surveyID, userID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.SurveyAdmin{}).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (sr *surveyRepo) ListAdminSurveyIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.SurveyAdmin{}).
		Where("user_id = ?", userID).
		Pluck("survey_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
