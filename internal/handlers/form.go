package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fieldscope/surveyops-backend/internal/services"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

type FormHandler struct {
	formService services.FormService
}

func NewFormHandler(formService services.FormService) *FormHandler {
	return &FormHandler{formService: formService}
}

func (fh *FormHandler) Create(c *gin.Context) {
	var req struct {
		SurveyID        uuid.UUID `json:"survey_id"`
		Name            string    `json:"name"`
		MappingCriteria []string  `json:"mapping_criteria"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	form := types.Form{SurveyID: req.SurveyID, Name: req.Name}
	if len(req.MappingCriteria) > 0 {
		raw, err := json.Marshal(req.MappingCriteria)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping criteria"})
			return
		}
		form.MappingCriteria = datatypes.JSON(raw)
	}
	created, err := fh.formService.CreateForm(c.Request.Context(), &form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": created})
}

func (fh *FormHandler) Get(c *gin.Context) {
	formUID, err := uuid.Parse(c.Param("form_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form uid"})
		return
	}
	form, err := fh.formService.GetForm(c.Request.Context(), formUID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form})
}

func (fh *FormHandler) ListBySurvey(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	forms, err := fh.formService.ListForms(c.Request.Context(), surveyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

func (fh *FormHandler) UpdateMappingCriteria(c *gin.Context) {
	formUID, err := uuid.Parse(c.Param("form_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form uid"})
		return
	}
	var req struct {
		MappingCriteria []string `json:"mapping_criteria"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := fh.formService.UpdateMappingCriteria(c.Request.Context(), formUID, req.MappingCriteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
