package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type GeoLevelRepo interface {
	ReplaceForSurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID, levels []*types.GeoLevel) ([]*types.GeoLevel, error)
	ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.GeoLevel, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, geoLevelUIDs []uuid.UUID) ([]*types.GeoLevel, error)
}

type geoLevelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeoLevelRepo(db *gorm.DB, baseLog *logger.Logger) GeoLevelRepo {
	repoLog := baseLog.With("repo", "GeoLevelRepo")
	return &geoLevelRepo{db: db, log: repoLog}
}

// ReplaceForSurvey swaps the survey's entire geo-level chain. Callers
// validate the chain first; this only persists.
func (gr *geoLevelRepo) ReplaceForSurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID, levels []*types.GeoLevel) ([]*types.GeoLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	if err := transaction.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Delete(&types.GeoLevel{}).Error; err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return []*types.GeoLevel{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

func (gr *geoLevelRepo) ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.GeoLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	var results []*types.GeoLevel
	if err := transaction.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (gr *geoLevelRepo) GetByIDs(ctx context.Context, tx *gorm.DB, geoLevelUIDs []uuid.UUID) ([]*types.GeoLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	var results []*types.GeoLevel
	if len(geoLevelUIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", geoLevelUIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
