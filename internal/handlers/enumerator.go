package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldscope/surveyops-backend/internal/services"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type EnumeratorHandler struct {
	enumeratorService services.EnumeratorService
}

func NewEnumeratorHandler(enumeratorService services.EnumeratorService) *EnumeratorHandler {
	return &EnumeratorHandler{enumeratorService: enumeratorService}
}

func (eh *EnumeratorHandler) Create(c *gin.Context) {
	var req struct {
		FormUID     uuid.UUID           `json:"form_uid"`
		Enumerators []*types.Enumerator `json:"enumerators"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := eh.enumeratorService.CreateEnumerators(c.Request.Context(), req.FormUID, req.Enumerators)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enumerators": created})
}

func (eh *EnumeratorHandler) List(c *gin.Context) {
	formUID, err := uuid.Parse(c.Query("form_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form uid"})
		return
	}
	enumerators, err := eh.enumeratorService.ListEnumerators(c.Request.Context(), formUID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enumerators": enumerators})
}

func (eh *EnumeratorHandler) UpdateStatus(c *gin.Context) {
	enumeratorUID, err := uuid.Parse(c.Param("enumerator_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enumerator uid"})
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := eh.enumeratorService.UpdateStatus(c.Request.Context(), enumeratorUID, req.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
