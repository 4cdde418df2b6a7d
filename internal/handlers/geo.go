package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldscope/surveyops-backend/internal/assignment"
	"github.com/fieldscope/surveyops-backend/internal/services"
)

type GeoHandler struct {
	geoLevelService services.GeoLevelService
	locationService services.LocationService
}

func NewGeoHandler(geoLevelService services.GeoLevelService, locationService services.LocationService) *GeoHandler {
	return &GeoHandler{geoLevelService: geoLevelService, locationService: locationService}
}

func (gh *GeoHandler) ReplaceGeoLevels(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	var req struct {
		GeoLevels []services.GeoLevelInput `json:"geo_levels"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	levels, err := gh.geoLevelService.ReplaceGeoLevels(c.Request.Context(), surveyID, req.GeoLevels)
	if err != nil {
		var hierarchyErr *services.HierarchyError
		if errors.As(err, &hierarchyErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "errors": hierarchyErr.Errors})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"geo_levels": levels})
}

func (gh *GeoHandler) ListGeoLevels(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	levels, err := gh.geoLevelService.ListGeoLevels(c.Request.Context(), surveyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"geo_levels": levels})
}

func (gh *GeoHandler) UploadLocations(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	var req struct {
		Records       [][]string                    `json:"records"`
		ColumnMapping []services.LocationColumnPair `json:"column_mapping"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	locations, err := gh.locationService.UploadLocations(c.Request.Context(), surveyID, req.Records, req.ColumnMapping)
	if err != nil {
		var headerErr *assignment.HeaderRowEmptyError
		var structureErr *assignment.InvalidFileStructureError
		if errors.As(err, &headerErr) || errors.As(err, &structureErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "errors": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func (gh *GeoHandler) ListLocations(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	if c.Query("long_format") == "true" {
		rows, err := gh.locationService.ListLocationsLong(c.Request.Context(), surveyID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"locations": rows})
		return
	}
	locations, err := gh.locationService.ListLocations(c.Request.Context(), surveyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}
