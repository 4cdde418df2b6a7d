package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

// TargetWithStatus pairs a target with its (possibly absent) status row. A
// target with no status row is assignable.
type TargetWithStatus struct {
	Target *types.Target       `json:"target"`
	Status *types.TargetStatus `json:"status,omitempty"`
}

func (t TargetWithStatus) Assignable() bool {
	if t.Status == nil {
		return true
	}
	return t.Status.TargetAssignable
}

type TargetService interface {
	CreateTargets(ctx context.Context, formUID uuid.UUID, targets []*types.Target) ([]*types.Target, error)
	ListTargets(ctx context.Context, formUID uuid.UUID) ([]TargetWithStatus, error)
	UpsertStatus(ctx context.Context, status *types.TargetStatus) (*types.TargetStatus, error)
}

type targetService struct {
	db               *gorm.DB
	log              *logger.Logger
	targetRepo       repos.TargetRepo
	targetStatusRepo repos.TargetStatusRepo
	formService      FormService
	surveyService    SurveyService
}

func NewTargetService(
	db *gorm.DB,
	log *logger.Logger,
	targetRepo repos.TargetRepo,
	targetStatusRepo repos.TargetStatusRepo,
	formService FormService,
	surveyService SurveyService,
) TargetService {
	serviceLog := log.With("service", "TargetService")
	return &targetService{
		db:               db,
		log:              serviceLog,
		targetRepo:       targetRepo,
		targetStatusRepo: targetStatusRepo,
		formService:      formService,
		surveyService:    surveyService,
	}
}

func (ts *targetService) CreateTargets(ctx context.Context, formUID uuid.UUID, targets []*types.Target) ([]*types.Target, error) {
	form, err := ts.formService.GetForm(ctx, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load form: %w", err)
	}
	if err := ts.surveyService.RequireAdmin(ctx, form.SurveyID); err != nil {
		return nil, err
	}
	for _, t := range targets {
		if t.TargetID == "" {
			return nil, fmt.Errorf("Every target needs a target_id")
		}
		t.FormUID = formUID
	}
	return ts.targetRepo.CreateBatch(ctx, nil, targets)
}

func (ts *targetService) ListTargets(ctx context.Context, formUID uuid.UUID) ([]TargetWithStatus, error) {
	targets, err := ts.targetRepo.ListByForm(ctx, nil, formUID)
	if err != nil {
		return nil, err
	}
	uids := make([]uuid.UUID, 0, len(targets))
	for _, t := range targets {
		uids = append(uids, t.ID)
	}
	statuses, err := ts.targetStatusRepo.ListByTargets(ctx, nil, uids)
	if err != nil {
		return nil, err
	}
	statusByTarget := make(map[uuid.UUID]*types.TargetStatus, len(statuses))
	for _, s := range statuses {
		statusByTarget[s.TargetUID] = s
	}
	out := make([]TargetWithStatus, 0, len(targets))
	for _, t := range targets {
		out = append(out, TargetWithStatus{Target: t, Status: statusByTarget[t.ID]})
	}
	return out, nil
}

func (ts *targetService) UpsertStatus(ctx context.Context, status *types.TargetStatus) (*types.TargetStatus, error) {
	return ts.targetStatusRepo.Upsert(ctx, nil, status)
}
