package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/services"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"deref": func(f *float64) float64 { return *f },
}).ParseFS(templateFS, "templates/page.html"))

// PublicHandler serves published signal pages without authentication.
type PublicHandler struct {
	Pages *services.SignalPageService
}

func NewPublicHandler(p *services.SignalPageService) *PublicHandler {
	return &PublicHandler{Pages: p}
}

// GetPage is the GET /public/pages/:slug endpoint
func (h *PublicHandler) GetPage(c *gin.Context) {
	page, err := h.Pages.Public(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to load page")
		return
	}
	c.JSON(http.StatusOK, page)
}

type pageView struct {
	*dtos.PublicPage
	// Commentary is already sanitized by the renderer.
	Commentary template.HTML
}

// RenderPage is the GET /p/:slug endpoint
func (h *PublicHandler) RenderPage(c *gin.Context) {
	page, err := h.Pages.Public(c.Request.Context(), c.Param("slug"))
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.String(code, http.StatusText(code))
		return
	}
	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplate,
		Name:     "page.html",
		Data:     pageView{PublicPage: page, Commentary: template.HTML(page.CommentaryHTML)},
	})
}
