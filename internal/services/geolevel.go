package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/hierarchy"
	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

// GeoLevelInput is one row of a geo-level batch replace. Parent references
// are by name within the same batch.
type GeoLevelInput struct {
	Name       string  `json:"name"`
	ParentName *string `json:"parent_name,omitempty"`
}

type HierarchyError struct {
	Errors []string
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("hierarchy validation failed: %d error(s)", len(e.Errors))
}

type GeoLevelService interface {
	ReplaceGeoLevels(ctx context.Context, surveyID uuid.UUID, inputs []GeoLevelInput) ([]*types.GeoLevel, error)
	ListGeoLevels(ctx context.Context, surveyID uuid.UUID) ([]*types.GeoLevel, error)
}

type geoLevelService struct {
	db            *gorm.DB
	log           *logger.Logger
	geoLevelRepo  repos.GeoLevelRepo
	surveyService SurveyService
}

func NewGeoLevelService(db *gorm.DB, log *logger.Logger, geoLevelRepo repos.GeoLevelRepo, surveyService SurveyService) GeoLevelService {
	serviceLog := log.With("service", "GeoLevelService")
	return &geoLevelService{db: db, log: serviceLog, geoLevelRepo: geoLevelRepo, surveyService: surveyService}
}

// ReplaceGeoLevels swaps the survey's geo-level chain after validating the
// batch forms exactly one linear chain. All validation errors are returned
// together.
func (gs *geoLevelService) ReplaceGeoLevels(ctx context.Context, surveyID uuid.UUID, inputs []GeoLevelInput) ([]*types.GeoLevel, error) {
	if err := gs.surveyService.RequireAdmin(ctx, surveyID); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("At least one geo level is required")
	}

	byName := make(map[string]uuid.UUID, len(inputs))
	for _, in := range inputs {
		if in.Name == "" {
			return nil, fmt.Errorf("Every geo level needs a name")
		}
		if _, ok := byName[in.Name]; !ok {
			byName[in.Name] = uuid.New()
		}
	}

	nodes := make([]hierarchy.Node, 0, len(inputs))
	for _, in := range inputs {
		node := hierarchy.Node{ID: byName[in.Name], Name: in.Name}
		if in.ParentName != nil {
			parentID, ok := byName[*in.ParentName]
			if !ok {
				return nil, fmt.Errorf("Geo level %q references unknown parent %q", in.Name, *in.ParentName)
			}
			node.ParentID = &parentID
		}
		nodes = append(nodes, node)
	}

	ordered, problems := hierarchy.Validate(nodes)
	if len(problems) > 0 {
		return nil, &HierarchyError{Errors: problems}
	}

	levels := make([]*types.GeoLevel, 0, len(ordered))
	for _, node := range ordered {
		levels = append(levels, &types.GeoLevel{
			ID:                node.ID,
			SurveyID:          surveyID,
			Name:              node.Name,
			ParentGeoLevelUID: node.ParentID,
		})
	}

	var saved []*types.GeoLevel
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := gs.geoLevelRepo.ReplaceForSurvey(ctx, tx, surveyID, levels)
		if err != nil {
			return fmt.Errorf("Failed to replace geo levels: %w", err)
		}
		saved = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ListGeoLevels returns the survey's levels in chain order (top level
// first) when the stored rows form a valid chain, insertion order otherwise.
func (gs *geoLevelService) ListGeoLevels(ctx context.Context, surveyID uuid.UUID) ([]*types.GeoLevel, error) {
	rows, err := gs.geoLevelRepo.ListBySurvey(ctx, nil, surveyID)
	if err != nil {
		return nil, err
	}
	ordered, problems := hierarchy.Validate(geoLevelNodes(rows))
	if len(problems) > 0 {
		return rows, nil
	}
	byID := make(map[uuid.UUID]*types.GeoLevel, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]*types.GeoLevel, 0, len(ordered))
	for _, node := range ordered {
		out = append(out, byID[node.ID])
	}
	return out, nil
}

func geoLevelNodes(rows []*types.GeoLevel) []hierarchy.Node {
	nodes := make([]hierarchy.Node, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, hierarchy.Node{ID: row.ID, Name: row.Name, ParentID: row.ParentGeoLevelUID})
	}
	return nodes
}
