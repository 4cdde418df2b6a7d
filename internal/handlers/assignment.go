package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldscope/surveyops-backend/internal/assignment"
	"github.com/fieldscope/surveyops-backend/internal/services"
)

type AssignmentHandler struct {
	assignmentService services.AssignmentService
}

func NewAssignmentHandler(assignmentService services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

func (ah *AssignmentHandler) Get(c *gin.Context) {
	formUID, err := uuid.Parse(c.Query("form_uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form uid"})
		return
	}
	assignments, err := ah.assignmentService.GetAssignments(c.Request.Context(), formUID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func (ah *AssignmentHandler) Put(c *gin.Context) {
	var req struct {
		FormUID     uuid.UUID                  `json:"form_uid"`
		Assignments []services.AssignmentInput `json:"assignments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := ah.assignmentService.PutAssignments(c.Request.Context(), req.FormUID, req.Assignments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Success", "data": writeResultBody(result)})
}

func (ah *AssignmentHandler) Upload(c *gin.Context) {
	var req services.AssignmentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := ah.assignmentService.UploadAssignments(c.Request.Context(), req)
	if err != nil {
		var recordsErr *assignment.InvalidRecordsError
		if errors.As(err, &recordsErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"errors": gin.H{
					"record_errors": gin.H{
						"summary":               recordsErr.Summary,
						"summary_by_error_type": recordsErr.SummaryByErrorType,
						"invalid_records":       recordsErr.InvalidRecords,
					},
				},
			})
			return
		}
		var headerErr *assignment.HeaderRowEmptyError
		var columnErr *assignment.InvalidColumnMappingError
		var structureErr *assignment.InvalidFileStructureError
		if errors.As(err, &headerErr) || errors.As(err, &columnErr) || errors.As(err, &structureErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "errors": gin.H{"file_structure_errors": err.Error()}})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Success", "data": writeResultBody(result)})
}

// writeResultBody renders the shared PUT/upload outcome shape.
func writeResultBody(result *services.AssignmentWriteResult) gin.H {
	body := gin.H{
		"new_assignments_count": result.Counts.New,
		"re_assignments_count":  result.Counts.Reassigned,
		"no_changes_count":      result.Counts.Unchanged,
		"assignments_count":     result.Counts.Total,
	}
	if result.EmailSchedule != nil {
		body["email_schedule"] = result.EmailSchedule
	}
	return body
}
