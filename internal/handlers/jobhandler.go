package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/pipeline-board/internal/dtos"
	"github.com/justsurfingit/pipeline-board/internal/pipeline"
	"github.com/justsurfingit/pipeline-board/internal/services"
)

type JobHandler struct {
	JobService *services.JobService
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(j *services.JobService) *JobHandler {
	return &JobHandler{
		JobService: j,
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListJobs is the GET /jobs endpoint: the full unpaginated set, flattened
// to the wire shape the board consumes.
func (h *JobHandler) ListJobs(c *gin.Context) {
	records, err := h.JobService.ListJobs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// StageStats is the GET /jobs/stats endpoint: stage name -> count.
func (h *JobHandler) StageStats(c *gin.Context) {
	stats, err := h.JobService.StageStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// creating the job
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	job, err := h.JobService.CreateJob(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, job.Record())
}

// PatchJob is the PATCH /jobs/:id endpoint used for single-field status and
// deadline changes (including undo restores).
func (h *JobHandler) PatchJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job id"})
		return
	}
	var req dtos.JobPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	job, err := h.JobService.PatchJob(uint(id), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update job: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, job.Record())
}

// BulkStatus is the POST /jobs/bulk/status endpoint.
func (h *JobHandler) BulkStatus(c *gin.Context) {
	var req dtos.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	target := pipeline.Stage(req.Status)
	if !target.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + req.Status})
		return
	}
	moved, err := h.JobService.BulkUpdateStatus(req.IDs, target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to bulk update status: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "moved": moved})
}

// BulkDeadline is the POST /jobs/bulk/deadline endpoint; a null deadline
// clears the field.
func (h *JobHandler) BulkDeadline(c *gin.Context) {
	var req dtos.BulkDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	updated, err := h.JobService.BulkUpdateDeadline(req.IDs, req.Deadline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to bulk update deadline: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}
