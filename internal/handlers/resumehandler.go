package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signalpage/signalpage/internal/auth"
	"github.com/signalpage/signalpage/internal/services"
)

type ResumeHandler struct {
	ResumeService *services.ResumeService
}

func NewResumeHandler(r *services.ResumeService) *ResumeHandler {
	return &ResumeHandler{ResumeService: r}
}

// UploadResume is the POST /resumes endpoint (multipart field "file")
func (h *ResumeHandler) UploadResume(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A PDF file is required in the \"file\" field"})
		return
	}
	if fh.Size > services.MaxResumeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large, maximum size is 10MB"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxResumeBytes+1))
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}

	resume, err := h.ResumeService.CreateFromPDF(c.Request.Context(), auth.UserID(c), fh.Filename, data)
	if err != nil {
		respondError(c, err, "Failed to store resume")
		return
	}
	c.JSON(http.StatusCreated, resume)
}

func (h *ResumeHandler) ListResumes(c *gin.Context) {
	resumes, err := h.ResumeService.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to list resumes")
		return
	}
	c.JSON(http.StatusOK, resumes)
}

func (h *ResumeHandler) GetResume(c *gin.Context) {
	resume, err := h.ResumeService.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load resume")
		return
	}
	c.JSON(http.StatusOK, resume)
}

func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	if err := h.ResumeService.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete resume")
		return
	}
	c.Status(http.StatusNoContent)
}
