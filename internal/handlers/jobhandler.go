package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signalpage/signalpage/internal/auth"
	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/services"
)

type JobHandler struct {
	LLMService *services.LLMService
	JobService *services.JobService
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(llm *services.LLMService, j *services.JobService) *JobHandler {
	return &JobHandler{
		LLMService: llm,
		JobService: j,
	}
}

// ParseJob is the POST /jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	parsed, err := h.LLMService.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "AI Extraction failed"})
			return
		}
		respondError(c, err, "AI Extraction failed")
		return
	}
	if req.URL != "" {
		parsed.JobLink = req.URL
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    parsed,
	})
}

// CreateJob is the POST /jobs endpoint
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.JobService.CreateJob(c.Request.Context(), auth.UserID(c), &req)
	if err != nil {
		respondError(c, err, "Failed to create job")
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.JobService.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to list jobs")
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.JobService.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load job")
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateStatus is the PATCH /jobs/:id/status endpoint
func (h *JobHandler) UpdateStatus(c *gin.Context) {
	var req dtos.JobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.JobService.UpdateStatus(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "Failed to update job")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.JobService.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete job")
		return
	}
	c.Status(http.StatusNoContent)
}
