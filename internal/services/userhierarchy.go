package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/mapping"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/requestdata"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type UserHierarchyService interface {
	PutUserHierarchy(ctx context.Context, entry *types.UserHierarchy) (*types.UserHierarchy, error)
	DeleteUserHierarchy(ctx context.Context, surveyID, userID uuid.UUID) error
	ListUserHierarchy(ctx context.Context, surveyID uuid.UUID) ([]*types.UserHierarchy, error)
	// SupervisorChains resolves the bottom-level users visible to the
	// caller with their upward reporting chains: admin mode for survey
	// admins and super admins, scoped mode for everyone else.
	SupervisorChains(ctx context.Context, surveyID uuid.UUID) ([]mapping.SupervisorChain, error)
}

type userHierarchyService struct {
	db            *gorm.DB
	log           *logger.Logger
	hierarchyRepo repos.UserHierarchyRepo
	roleService   RoleService
	surveyService SurveyService
}

func NewUserHierarchyService(
	db *gorm.DB,
	log *logger.Logger,
	hierarchyRepo repos.UserHierarchyRepo,
	roleService RoleService,
	surveyService SurveyService,
) UserHierarchyService {
	serviceLog := log.With("service", "UserHierarchyService")
	return &userHierarchyService{
		db:            db,
		log:           serviceLog,
		hierarchyRepo: hierarchyRepo,
		roleService:   roleService,
		surveyService: surveyService,
	}
}

func (us *userHierarchyService) PutUserHierarchy(ctx context.Context, entry *types.UserHierarchy) (*types.UserHierarchy, error) {
	if err := us.surveyService.RequireAdmin(ctx, entry.SurveyID); err != nil {
		return nil, err
	}
	roles, err := us.roleService.ListRoles(ctx, entry.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load roles: %w", err)
	}
	var role *types.Role
	for _, r := range roles {
		if r.ID == entry.RoleUID {
			role = r
			break
		}
	}
	if role == nil {
		return nil, fmt.Errorf("Role does not belong to this survey")
	}
	if entry.ParentUserUID != nil {
		parent, err := us.hierarchyRepo.GetBySurveyAndUser(ctx, nil, entry.SurveyID, *entry.ParentUserUID)
		if err != nil {
			return nil, fmt.Errorf("Supervising user has no role in this survey")
		}
		if role.ReportingRoleUID == nil || parent.RoleUID != *role.ReportingRoleUID {
			return nil, fmt.Errorf("Supervising user must hold the role this role reports to")
		}
	} else if role.ReportingRoleUID != nil {
		return nil, fmt.Errorf("A supervising user is required for non-top roles")
	}
	return us.hierarchyRepo.Upsert(ctx, nil, entry)
}

func (us *userHierarchyService) DeleteUserHierarchy(ctx context.Context, surveyID, userID uuid.UUID) error {
	if err := us.surveyService.RequireAdmin(ctx, surveyID); err != nil {
		return err
	}
	return us.hierarchyRepo.Delete(ctx, nil, surveyID, userID)
}

func (us *userHierarchyService) ListUserHierarchy(ctx context.Context, surveyID uuid.UUID) ([]*types.UserHierarchy, error) {
	return us.hierarchyRepo.ListBySurvey(ctx, nil, surveyID)
}

func (us *userHierarchyService) SupervisorChains(ctx context.Context, surveyID uuid.UUID) ([]mapping.SupervisorChain, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("No request data found in context")
	}
	bottomRole, chainLen, err := us.roleService.BottomRole(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	users, err := us.userNodes(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	isAdmin, err := us.surveyService.IsAdmin(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return mapping.ResolveAdminChains(users, bottomRole.ID, chainLen), nil
	}
	return mapping.ResolveScopedChains(users, bottomRole.ID, chainLen, rd.UserID), nil
}

func (us *userHierarchyService) userNodes(ctx context.Context, surveyID uuid.UUID) ([]mapping.UserNode, error) {
	entries, err := us.hierarchyRepo.ListBySurvey(ctx, nil, surveyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load user hierarchy: %w", err)
	}
	nodes := make([]mapping.UserNode, 0, len(entries))
	for _, entry := range entries {
		node := mapping.UserNode{
			UserID:       entry.UserID,
			RoleUID:      entry.RoleUID,
			ParentUserID: entry.ParentUserUID,
		}
		if entry.Role != nil {
			node.RoleName = entry.Role.Name
		}
		if entry.User != nil {
			node.Name = entry.User.FirstName + " " + entry.User.LastName
			node.Email = entry.User.Email
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
