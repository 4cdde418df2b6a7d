package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type LocationRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, locations []*types.Location) ([]*types.Location, error)
	ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.Location, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, locationUIDs []uuid.UUID) ([]*types.Location, error)
	DeleteBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) error
}

type locationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) LocationRepo {
	repoLog := baseLog.With("repo", "LocationRepo")
	return &locationRepo{db: db, log: repoLog}
}

func (lr *locationRepo) CreateBatch(ctx context.Context, tx *gorm.DB, locations []*types.Location) ([]*types.Location, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	if len(locations) == 0 {
		return []*types.Location{}, nil
	}
	if err := transaction.WithContext(ctx).CreateInBatches(&locations, 500).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (lr *locationRepo) ListBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) ([]*types.Location, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var results []*types.Location
	if err := transaction.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *locationRepo) GetByIDs(ctx context.Context, tx *gorm.DB, locationUIDs []uuid.UUID) ([]*types.Location, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var results []*types.Location
	if len(locationUIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", locationUIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *locationRepo) DeleteBySurvey(ctx context.Context, tx *gorm.DB, surveyID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	return transaction.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Delete(&types.Location{}).Error
}
