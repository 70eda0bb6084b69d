package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Feel-The-AGI/workstream-server/internal/adapter/provider"
	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

// WebhookHandler ingests provider payment events. The route sits outside the
// auth group; authenticity comes from the signature over the raw body.
type WebhookHandler struct {
	facade   PaymentFacade
	verifier SignatureVerifier
	logger   *slog.Logger
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade PaymentFacade, verifier SignatureVerifier, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{facade: facade, verifier: verifier, logger: logger}
}

// Handle handles POST /api/payments/webhook.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if !h.verifier.Verify(body, c.GetHeader(provider.SignatureHeader)) {
		c.Status(http.StatusUnauthorized)
		return
	}

	event, err := provider.ParseWebhook(body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if !event.Reconcilable() {
		c.Status(http.StatusOK)
		return
	}

	tx := event.Data.Verified()
	tx.Status = event.TransactionStatus()

	if _, err := h.facade.FinalizePayment(c.Request.Context(), tx, model.ChannelWebhook); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			// Unknown reference. Acknowledge anyway so the provider stops retrying.
			h.logger.Warn("webhook for unknown payment", slog.String("reference", tx.Reference))
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}
