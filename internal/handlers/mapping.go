package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldscope/surveyops-backend/internal/mapping"
	"github.com/fieldscope/surveyops-backend/internal/services"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type MappingHandler struct {
	mappingService services.MappingService
}

func NewMappingHandler(mappingService services.MappingService) *MappingHandler {
	return &MappingHandler{mappingService: mappingService}
}

func (mh *MappingHandler) GetTargetsMapping(c *gin.Context) {
	formUID, err := uuid.Parse(c.Query("form_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form uid"})
		return
	}
	rows, err := mh.mappingService.GetTargetsMapping(c.Request.Context(), formUID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": rows})
}

func (mh *MappingHandler) Generate(c *gin.Context) {
	var req struct {
		FormUID uuid.UUID `json:"form_uid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	pairs, err := mh.mappingService.GenerateMappings(c.Request.Context(), req.FormUID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": pairs})
}

func (mh *MappingHandler) SaveManual(c *gin.Context) {
	var req struct {
		FormUID  uuid.UUID      `json:"form_uid"`
		Mappings []mapping.Pair `json:"mappings"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	violations, err := mh.mappingService.SaveManualMappings(c.Request.Context(), req.FormUID, req.Mappings)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(violations) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "errors": gin.H{"mapping_errors": violations}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (mh *MappingHandler) GetConfig(c *gin.Context) {
	formUID, err := uuid.Parse(c.Query("form_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form uid"})
		return
	}
	mappingType := c.DefaultQuery("mapping_type", types.MappingTypeTarget)
	rows, err := mh.mappingService.GetConfig(c.Request.Context(), formUID, mappingType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": rows})
}

func (mh *MappingHandler) PutConfig(c *gin.Context) {
	var req struct {
		FormUID     uuid.UUID                     `json:"form_uid"`
		MappingType string                        `json:"mapping_type"`
		Rows        []services.MappingConfigInput `json:"rows"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.MappingType == "" {
		req.MappingType = types.MappingTypeTarget
	}
	saved, err := mh.mappingService.PutConfig(c.Request.Context(), req.FormUID, req.MappingType, req.Rows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": saved})
}

func (mh *MappingHandler) DeleteConfig(c *gin.Context) {
	formUID, err := uuid.Parse(c.Query("form_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form uid"})
		return
	}
	mappingType := c.DefaultQuery("mapping_type", types.MappingTypeTarget)
	if err := mh.mappingService.DeleteConfig(c.Request.Context(), formUID, mappingType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
