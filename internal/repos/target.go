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

type TargetRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, targets []*types.Target) ([]*types.Target, error)
	ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) ([]*types.Target, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) ([]*types.Target, error)
}

type targetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTargetRepo(db *gorm.DB, baseLog *logger.Logger) TargetRepo {
	repoLog := baseLog.With("repo", "TargetRepo")
	return &targetRepo{db: db, log: repoLog}
}

func (tr *targetRepo) CreateBatch(ctx context.Context, tx *gorm.DB, targets []*types.Target) ([]*types.Target, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(targets) == 0 {
		return []*types.Target{}, nil
	}
	if err := transaction.WithContext(ctx).CreateInBatches(&targets, 500).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

func (tr *targetRepo) ListByForm(ctx context.Context, tx *gorm.DB, formUID uuid.UUID) ([]*types.Target, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Target
	if err := transaction.WithContext(ctx).
		Where("form_uid = ?", formUID).
		Order("target_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *targetRepo) GetByIDs(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) ([]*types.Target, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Target
	if len(targetUIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", targetUIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type TargetStatusRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, status *types.TargetStatus) (*types.TargetStatus, error)
	ListByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) ([]*types.TargetStatus, error)
}

type targetStatusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTargetStatusRepo(db *gorm.DB, baseLog *logger.Logger) TargetStatusRepo {
	repoLog := baseLog.With("repo", "TargetStatusRepo")
	return &targetStatusRepo{db: db, log: repoLog}
}

func (sr *targetStatusRepo) Upsert(ctx context.Context, tx *gorm.DB, status *types.TargetStatus) (*types.TargetStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "target_uid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"target_assignable": status.TargetAssignable,
				"completed_flag":    status.CompletedFlag,
				"num_attempts":      status.NumAttempts,
				"last_attempt_on":   status.LastAttemptOn,
				"updated_at":        time.Now().UTC(),
			}),
		}).
		Create(status).Error; err != nil {
		return nil, err
	}
	return status, nil
}

func (sr *targetStatusRepo) ListByTargets(ctx context.Context, tx *gorm.DB, targetUIDs []uuid.UUID) ([]*types.TargetStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.TargetStatus
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
