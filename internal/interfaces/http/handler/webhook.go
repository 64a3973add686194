package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	billingapp "github.com/filehost/backend/internal/application/billing"
	"github.com/filehost/backend/internal/interfaces/http/dto"
)

// Stripe webhook payloads are small; cap reads well above that
const maxWebhookPayloadSize = 65536

// WebhookHandler receives provider webhook deliveries. The route is
// unauthenticated; the signature over the raw body is the auth.
type WebhookHandler struct {
	BaseHandler
	webhooks *billingapp.WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhooks *billingapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and processes one provider event. The raw
// body must reach the verifier byte-for-byte, so no binding happens here.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse("payload too large"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")

	result, err := h.webhooks.ProcessEvent(c.Request.Context(), payload, signature)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAckResponse{
		Received:  true,
		Duplicate: result.Duplicate,
		Message:   result.Message,
	})
}
