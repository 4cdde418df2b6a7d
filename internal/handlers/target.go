package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldscope/surveyops-backend/internal/services"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type TargetHandler struct {
	targetService services.TargetService
}

func NewTargetHandler(targetService services.TargetService) *TargetHandler {
	return &TargetHandler{targetService: targetService}
}

func (th *TargetHandler) Create(c *gin.Context) {
	var req struct {
		FormUID uuid.UUID       `json:"form_uid"`
		Targets []*types.Target `json:"targets"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := th.targetService.CreateTargets(c.Request.Context(), req.FormUID, req.Targets)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": created})
}

func (th *TargetHandler) List(c *gin.Context) {
	formUID, err := uuid.Parse(c.Query("form_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form uid"})
		return
	}
	targets, err := th.targetService.ListTargets(c.Request.Context(), formUID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

func (th *TargetHandler) UpsertStatus(c *gin.Context) {
	targetUID, err := uuid.Parse(c.Param("target_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target uid"})
		return
	}
	var req struct {
		TargetAssignable bool `json:"target_assignable"`
		CompletedFlag    bool `json:"completed_flag"`
		NumAttempts      int  `json:"num_attempts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	status := types.TargetStatus{
		ID:               uuid.New(),
		TargetUID:        targetUID,
		TargetAssignable: req.TargetAssignable,
		CompletedFlag:    req.CompletedFlag,
		NumAttempts:      req.NumAttempts,
	}
	saved, err := th.targetService.UpsertStatus(c.Request.Context(), &status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": saved})
}
