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

type EnumeratorService interface {
	CreateEnumerators(ctx context.Context, formUID uuid.UUID, enumerators []*types.Enumerator) ([]*types.Enumerator, error)
	ListEnumerators(ctx context.Context, formUID uuid.UUID) ([]*types.Enumerator, error)
	UpdateStatus(ctx context.Context, enumeratorUID uuid.UUID, status string) error
}

type enumeratorService struct {
	db             *gorm.DB
	log            *logger.Logger
	enumeratorRepo repos.EnumeratorRepo
	formService    FormService
	surveyService  SurveyService
}

func NewEnumeratorService(
	db *gorm.DB,
	log *logger.Logger,
	enumeratorRepo repos.EnumeratorRepo,
	formService FormService,
	surveyService SurveyService,
) EnumeratorService {
	serviceLog := log.With("service", "EnumeratorService")
	return &enumeratorService{
		db:             db,
		log:            serviceLog,
		enumeratorRepo: enumeratorRepo,
		formService:    formService,
		surveyService:  surveyService,
	}
}

func (es *enumeratorService) CreateEnumerators(ctx context.Context, formUID uuid.UUID, enumerators []*types.Enumerator) ([]*types.Enumerator, error) {
	form, err := es.formService.GetForm(ctx, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load form: %w", err)
	}
	if err := es.surveyService.RequireAdmin(ctx, form.SurveyID); err != nil {
		return nil, err
	}
	for _, e := range enumerators {
		if e.EnumeratorID == "" {
			return nil, fmt.Errorf("Every enumerator needs an enumerator_id")
		}
		e.FormUID = formUID
		if e.Status == "" {
			e.Status = types.EnumeratorStatusActive
		}
	}
	return es.enumeratorRepo.CreateBatch(ctx, nil, enumerators)
}

func (es *enumeratorService) ListEnumerators(ctx context.Context, formUID uuid.UUID) ([]*types.Enumerator, error) {
	return es.enumeratorRepo.ListByForm(ctx, nil, formUID)
}

func (es *enumeratorService) UpdateStatus(ctx context.Context, enumeratorUID uuid.UUID, status string) error {
	switch status {
	case types.EnumeratorStatusActive, types.EnumeratorStatusDropout, types.EnumeratorStatusTemp:
	default:
		return fmt.Errorf("Unknown enumerator status %q", status)
	}
	return es.enumeratorRepo.UpdateStatus(ctx, nil, enumeratorUID, status)
}
