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

// RoleInput is one row of a role batch replace. Reporting references are by
// name within the same batch; the role with no reporting role is the top of
// the chain.
type RoleInput struct {
	Name              string  `json:"name"`
	ReportingRoleName *string `json:"reporting_role_name,omitempty"`
}

type RoleService interface {
	ReplaceRoles(ctx context.Context, surveyID uuid.UUID, inputs []RoleInput) ([]*types.Role, error)
	ListRoles(ctx context.Context, surveyID uuid.UUID) ([]*types.Role, error)
	BottomRole(ctx context.Context, surveyID uuid.UUID) (*types.Role, int, error)
}

type roleService struct {
	db            *gorm.DB
	log           *logger.Logger
	roleRepo      repos.RoleRepo
	surveyService SurveyService
}

func NewRoleService(db *gorm.DB, log *logger.Logger, roleRepo repos.RoleRepo, surveyService SurveyService) RoleService {
	serviceLog := log.With("service", "RoleService")
	return &roleService{db: db, log: serviceLog, roleRepo: roleRepo, surveyService: surveyService}
}

func (rs *roleService) ReplaceRoles(ctx context.Context, surveyID uuid.UUID, inputs []RoleInput) ([]*types.Role, error) {
	if err := rs.surveyService.RequireAdmin(ctx, surveyID); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("At least one role is required")
	}

	byName := make(map[string]uuid.UUID, len(inputs))
	for _, in := range inputs {
		if in.Name == "" {
			return nil, fmt.Errorf("Every role needs a name")
		}
		if _, ok := byName[in.Name]; !ok {
			byName[in.Name] = uuid.New()
		}
	}

	nodes := make([]hierarchy.Node, 0, len(inputs))
	for _, in := range inputs {
		node := hierarchy.Node{ID: byName[in.Name], Name: in.Name}
		if in.ReportingRoleName != nil {
			parentID, ok := byName[*in.ReportingRoleName]
			if !ok {
				return nil, fmt.Errorf("Role %q reports to unknown role %q", in.Name, *in.ReportingRoleName)
			}
			node.ParentID = &parentID
		}
		nodes = append(nodes, node)
	}

	ordered, problems := hierarchy.Validate(nodes)
	if len(problems) > 0 {
		return nil, &HierarchyError{Errors: problems}
	}

	roles := make([]*types.Role, 0, len(ordered))
	for _, node := range ordered {
		roles = append(roles, &types.Role{
			ID:               node.ID,
			SurveyID:         surveyID,
			Name:             node.Name,
			ReportingRoleUID: node.ParentID,
		})
	}

	var saved []*types.Role
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := rs.roleRepo.ReplaceForSurvey(ctx, tx, surveyID, roles)
		if err != nil {
			return fmt.Errorf("Failed to replace roles: %w", err)
		}
		saved = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ListRoles returns the survey's roles in chain order, top first.
func (rs *roleService) ListRoles(ctx context.Context, surveyID uuid.UUID) ([]*types.Role, error) {
	rows, err := rs.roleRepo.ListBySurvey(ctx, nil, surveyID)
	if err != nil {
		return nil, err
	}
	ordered, problems := hierarchy.Validate(roleNodes(rows))
	if len(problems) > 0 {
		return rows, nil
	}
	byID := make(map[uuid.UUID]*types.Role, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]*types.Role, 0, len(ordered))
	for _, node := range ordered {
		out = append(out, byID[node.ID])
	}
	return out, nil
}

// BottomRole returns the deepest role of the chain and the chain length.
// Supervisor-chain walks are capped by the chain length.
func (rs *roleService) BottomRole(ctx context.Context, surveyID uuid.UUID) (*types.Role, int, error) {
	ordered, err := rs.ListRoles(ctx, surveyID)
	if err != nil {
		return nil, 0, err
	}
	if len(ordered) == 0 {
		return nil, 0, fmt.Errorf("Survey has no roles configured")
	}
	return ordered[len(ordered)-1], len(ordered), nil
}

func roleNodes(rows []*types.Role) []hierarchy.Node {
	nodes := make([]hierarchy.Node, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, hierarchy.Node{ID: row.ID, Name: row.Name, ParentID: row.ReportingRoleUID})
	}
	return nodes
}
