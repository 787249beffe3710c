package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signalpage/signalpage/internal/auth"
	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/services"
)

// maxWebhookBody bounds a webhook payload. Larger bodies are refused whole
// since a truncated one can never pass signature verification.
const maxWebhookBody = 512 << 10

type BillingHandler struct {
	Billing *services.BillingService
}

func NewBillingHandler(b *services.BillingService) *BillingHandler {
	return &BillingHandler{Billing: b}
}

// Subscription is the GET /subscription endpoint
func (h *BillingHandler) Subscription(c *gin.Context) {
	st, err := h.Billing.Status(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to load subscription")
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *BillingHandler) Checkout(c *gin.Context) {
	url, err := h.Billing.Checkout(c.Request.Context(), auth.UserID(c), auth.Email(c))
	if err != nil {
		respondError(c, err, "Failed to start checkout")
		return
	}
	c.JSON(http.StatusOK, dtos.RedirectResponse{URL: url})
}

func (h *BillingHandler) Portal(c *gin.Context) {
	url, err := h.Billing.Portal(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to open billing portal")
		return
	}
	c.JSON(http.StatusOK, dtos.RedirectResponse{URL: url})
}

// Webhook is the unauthenticated POST /billing/webhook endpoint. A non-2xx
// reply makes the processor retry the event.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}
	if err := h.Billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err, "Failed to process event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
