package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type EnumeratorRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, enumerators []*types.Enumerator) ([]*types.Enumerator, error)
	ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) ([]*types.Enumerator, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, enumeratorUIDs []uuid.UUID) ([]*types.Enumerator, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, enumeratorUID uuid.UUID, status string) error
}

type enumeratorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnumeratorRepo(db *gorm.DB, baseLog *logger.Logger) EnumeratorRepo {
	repoLog := baseLog.With("repo", "EnumeratorRepo")
	return &enumeratorRepo{db: db, log: repoLog}
}

func (er *enumeratorRepo) CreateBatch(ctx context.Context, tx *gorm.DB, enumerators []*types.Enumerator) ([]*types.Enumerator, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if len(enumerators) == 0 {
		return []*types.Enumerator{}, nil
	}
	if err := transaction.WithContext(ctx).CreateInBatches(&enumerators, 500).Error; err != nil {
		return nil, err
	}
	return enumerators, nil
}

func (er *enumeratorRepo) ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) ([]*types.Enumerator, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.Enumerator
	if err := transaction.WithContext(ctx).
		Where("form_uid = ?", formUID).
		Order("enumerator_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *enumeratorRepo) GetByIDs(ctx context.Context, tx *gorm.DB, enumeratorUIDs []uuid.UUID) ([]*types.Enumerator, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.Enumerator
	if len(enumeratorUIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", enumeratorUIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *enumeratorRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, enumeratorUID uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Enumerator{}).
		Where("id = ?", enumeratorUID).
		Update("status", status).Error
}
