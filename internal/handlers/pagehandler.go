package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signalpage/signalpage/internal/auth"
	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/models"
	"github.com/signalpage/signalpage/internal/services"
)

type SignalPageHandler struct {
	Pages *services.SignalPageService
}

func NewSignalPageHandler(p *services.SignalPageService) *SignalPageHandler {
	return &SignalPageHandler{Pages: p}
}

type pageResponse struct {
	models.SignalPage
	PublicURL string `json:"public_url"`
}

func (h *SignalPageHandler) withURL(p models.SignalPage) pageResponse {
	return pageResponse{SignalPage: p, PublicURL: h.Pages.PublicURL(p.Slug)}
}

// Generate is the POST /signal-pages endpoint
func (h *SignalPageHandler) Generate(c *gin.Context) {
	var req dtos.SignalPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.Pages.Generate(c.Request.Context(), auth.UserID(c), auth.Email(c), &req)
	if err != nil {
		respondError(c, err, "Failed to generate signal page")
		return
	}
	c.JSON(http.StatusCreated, h.withURL(*page))
}

func (h *SignalPageHandler) List(c *gin.Context) {
	pages, err := h.Pages.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to list signal pages")
		return
	}
	out := make([]pageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, h.withURL(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *SignalPageHandler) Get(c *gin.Context) {
	page, err := h.Pages.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load signal page")
		return
	}
	c.JSON(http.StatusOK, h.withURL(*page))
}

// Update is the PATCH /signal-pages/:id endpoint
func (h *SignalPageHandler) Update(c *gin.Context) {
	var req dtos.SignalPageUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.Pages.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "Failed to update signal page")
		return
	}
	c.JSON(http.StatusOK, h.withURL(*page))
}

func (h *SignalPageHandler) Delete(c *gin.Context) {
	if err := h.Pages.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete signal page")
		return
	}
	c.Status(http.StatusNoContent)
}
