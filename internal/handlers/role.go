package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldscope/surveyops-backend/internal/services"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type RoleHandler struct {
	roleService          services.RoleService
	userHierarchyService services.UserHierarchyService
}

func NewRoleHandler(roleService services.RoleService, userHierarchyService services.UserHierarchyService) *RoleHandler {
	return &RoleHandler{roleService: roleService, userHierarchyService: userHierarchyService}
}

func (rh *RoleHandler) ReplaceRoles(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	var req struct {
		Roles []services.RoleInput `json:"roles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	roles, err := rh.roleService.ReplaceRoles(c.Request.Context(), surveyID, req.Roles)
	if err != nil {
		var hierarchyErr *services.HierarchyError
		if errors.As(err, &hierarchyErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "errors": hierarchyErr.Errors})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (rh *RoleHandler) ListRoles(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	roles, err := rh.roleService.ListRoles(c.Request.Context(), surveyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (rh *RoleHandler) PutUserHierarchy(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	var req struct {
		UserID        uuid.UUID  `json:"user_id"`
		RoleUID       uuid.UUID  `json:"role_uid"`
		ParentUserUID *uuid.UUID `json:"parent_user_uid"`
		Gender        string     `json:"gender"`
		Language      string     `json:"language"`
		LocationUID   *uuid.UUID `json:"location_uid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entry := types.UserHierarchy{
		SurveyID:      surveyID,
		UserID:        req.UserID,
		RoleUID:       req.RoleUID,
		ParentUserUID: req.ParentUserUID,
		Gender:        req.Gender,
		Language:      req.Language,
		LocationUID:   req.LocationUID,
	}
	saved, err := rh.userHierarchyService.PutUserHierarchy(c.Request.Context(), &entry)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_hierarchy": saved})
}

func (rh *RoleHandler) DeleteUserHierarchy(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := rh.userHierarchyService.DeleteUserHierarchy(c.Request.Context(), surveyID, userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetUserHierarchy returns the supervisor chains visible to the caller:
// every bottom-level user for admins, the caller's subtree otherwise.
func (rh *RoleHandler) GetUserHierarchy(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	chains, err := rh.userHierarchyService.SupervisorChains(c.Request.Context(), surveyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(chains))
	for _, chain := range chains {
		out = append(out, gin.H{
			"user_uid":         chain.User.UserID,
			"name":             chain.User.Name,
			"email":            chain.User.Email,
			"role_uid":         chain.User.RoleUID,
			"role_name":        chain.User.RoleName,
			"chain_of_command": chain.Chain,
		})
	}
	c.JSON(http.StatusOK, gin.H{"supervisors": out})
}
