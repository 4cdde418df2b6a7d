package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/mapping"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type FormService interface {
	CreateForm(ctx context.Context, form *types.Form) (*types.Form, error)
	GetForm(ctx context.Context, formUID uuid.UUID) (*types.Form, error)
	ListForms(ctx context.Context, surveyID uuid.UUID) ([]*types.Form, error)
	UpdateMappingCriteria(ctx context.Context, formUID uuid.UUID, criteria []string) error
}

type formService struct {
	db            *gorm.DB
	log           *logger.Logger
	formRepo      repos.FormRepo
	surveyService SurveyService
}

func NewFormService(db *gorm.DB, log *logger.Logger, formRepo repos.FormRepo, surveyService SurveyService) FormService {
	serviceLog := log.With("service", "FormService")
	return &formService{db: db, log: serviceLog, formRepo: formRepo, surveyService: surveyService}
}

func (fs *formService) CreateForm(ctx context.Context, form *types.Form) (*types.Form, error) {
	if err := fs.surveyService.RequireAdmin(ctx, form.SurveyID); err != nil {
		return nil, err
	}
	if form.Name == "" {
		return nil, fmt.Errorf("A form name is required")
	}
	if len(form.MappingCriteria) > 0 {
		if _, err := mapping.ParseCriteria(form.MappingCriteria); err != nil {
			return nil, fmt.Errorf("Invalid mapping criteria: %w", err)
		}
	}
	return fs.formRepo.Create(ctx, nil, form)
}

func (fs *formService) GetForm(ctx context.Context, formUID uuid.UUID) (*types.Form, error) {
	return fs.formRepo.GetByID(ctx, nil, formUID)
}

func (fs *formService) ListForms(ctx context.Context, surveyID uuid.UUID) ([]*types.Form, error) {
	return fs.formRepo.ListBySurvey(ctx, nil, surveyID)
}

func (fs *formService) UpdateMappingCriteria(ctx context.Context, formUID uuid.UUID, criteria []string) error {
	form, err := fs.formRepo.GetByID(ctx, nil, formUID)
	if err != nil {
		return fmt.Errorf("Failed to load form: %w", err)
	}
	if err := fs.surveyService.RequireAdmin(ctx, form.SurveyID); err != nil {
		return err
	}
	raw, err := json.Marshal(criteria)
	if err != nil {
		return fmt.Errorf("Failed to encode mapping criteria: %w", err)
	}
	if _, err := mapping.ParseCriteria(raw); err != nil {
		return fmt.Errorf("Invalid mapping criteria: %w", err)
	}
	return fs.formRepo.UpdateMappingCriteria(ctx, nil, formUID, datatypes.JSON(raw))
}
