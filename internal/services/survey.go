package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/requestdata"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type SurveyService interface {
	CreateSurvey(ctx context.Context, survey *types.Survey) (*types.Survey, error)
	GetSurvey(ctx context.Context, surveyID uuid.UUID) (*types.Survey, error)
	ListSurveys(ctx context.Context) ([]*types.Survey, error)
	SetPrimeGeoLevel(ctx context.Context, surveyID uuid.UUID, geoLevelUID *uuid.UUID) error
	RequireAdmin(ctx context.Context, surveyID uuid.UUID) error
	IsAdmin(ctx context.Context, surveyID uuid.UUID) (bool, error)
}

type surveyService struct {
	db         *gorm.DB
	log        *logger.Logger
	surveyRepo repos.SurveyRepo
}

func NewSurveyService(db *gorm.DB, log *logger.Logger, surveyRepo repos.SurveyRepo) SurveyService {
	serviceLog := log.With("service", "SurveyService")
	return &surveyService{db: db, log: serviceLog, surveyRepo: surveyRepo}
}

func (ss *surveyService) CreateSurvey(ctx context.Context, survey *types.Survey) (*types.Survey, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("No request data found in context")
	}
	if survey.Name == "" {
		return nil, fmt.Errorf("A survey name is required")
	}
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.surveyRepo.Create(ctx, tx, survey); err != nil {
			return fmt.Errorf("Failed to create survey: %w", err)
		}
		if err := ss.surveyRepo.AddAdmin(ctx, tx, survey.ID, rd.UserID); err != nil {
			return fmt.Errorf("Failed to add survey admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return survey, nil
}

func (ss *surveyService) GetSurvey(ctx context.Context, surveyID uuid.UUID) (*types.Survey, error) {
	return ss.surveyRepo.GetByID(ctx, nil, surveyID)
}

// ListSurveys returns every survey for super admins, otherwise only the
// surveys the caller administers.
func (ss *surveyService) ListSurveys(ctx context.Context) ([]*types.Survey, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("No request data found in context")
	}
	if rd.IsSuperAdmin {
		return ss.surveyRepo.List(ctx, nil)
	}
	ids, err := ss.surveyRepo.ListAdminSurveyIDs(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("Failed to list admin surveys: %w", err)
	}
	return ss.surveyRepo.ListByIDs(ctx, nil, ids)
}

func (ss *surveyService) SetPrimeGeoLevel(ctx context.Context, surveyID uuid.UUID, geoLevelUID *uuid.UUID) error {
	if err := ss.RequireAdmin(ctx, surveyID); err != nil {
		return err
	}
	return ss.surveyRepo.SetPrimeGeoLevel(ctx, nil, surveyID, geoLevelUID)
}

func (ss *surveyService) IsAdmin(ctx context.Context, surveyID uuid.UUID) (bool, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return false, fmt.Errorf("No request data found in context")
	}
	if rd.IsSuperAdmin {
		return true, nil
	}
	return ss.surveyRepo.IsAdmin(ctx, nil, surveyID, rd.UserID)
}

func (ss *surveyService) RequireAdmin(ctx context.Context, surveyID uuid.UUID) error {
	ok, err := ss.IsAdmin(ctx, surveyID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("User is not an admin of this survey")
	}
	return nil
}
