package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/aku-labs/academy-api/pkg/errors"
	"github.com/aku-labs/academy-api/pkg/response"
)

const calendlySignatureHeader = "Calendly-Webhook-Signature"

type webhookProcessor interface {
	VerifySignature(rawBody []byte, signatureHeader string) error
	Process(ctx context.Context, rawBody []byte) error
}

// WebhookHandler receives Calendly webhook deliveries.
type WebhookHandler struct {
	webhooks webhookProcessor
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(webhooks webhookProcessor) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Calendly godoc
// @Summary Receive a Calendly webhook event
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /webhooks/calendly [post]
func (h *WebhookHandler) Calendly(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable body"))
		return
	}

	if err := h.webhooks.VerifySignature(rawBody, c.GetHeader(calendlySignatureHeader)); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.webhooks.Process(c.Request.Context(), rawBody); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"ok": true}, nil)
}
