package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/dto"
)

// PaymentHandler manages application-fee payment endpoints.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Initialize handles POST /api/payments/initialize.
func (h *PaymentHandler) Initialize(c *gin.Context) {
	principal := CurrentPrincipal(c)

	var req dto.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ApplicationID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	payment, handoff, err := h.facade.InitializePayment(c.Request.Context(), principal.UserID, req.ApplicationID)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		Reference:        paymentReference(payment),
		AuthorizationURL: handoff.AuthorizationURL,
		AccessCode:       handoff.AccessCode,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		Status:           string(payment.Status),
	})
}

// Verify handles GET /api/payments/:reference/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	principal := CurrentPrincipal(c)

	reference := strings.TrimSpace(c.Param("reference"))
	if reference == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	payment, err := h.facade.VerifyPayment(c.Request.Context(), principal.UserID, reference)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// List handles GET /api/payments.
func (h *PaymentHandler) List(c *gin.Context) {
	principal := CurrentPrincipal(c)

	payments, err := h.facade.MyPayments(c.Request.Context(), principal.UserID)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}
	if len(payments) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// paymentReference prefers the provider's reference once one is recorded;
// clients verify by whichever reference they hold.
func paymentReference(p *model.Payment) string {
	if p.ProviderReference != nil && *p.ProviderReference != "" {
		return *p.ProviderReference
	}
	return p.Reference
}

func toPaymentResponse(p *model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		Reference:     paymentReference(p),
		ApplicationID: p.ApplicationID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        string(p.Status),
		Channel:       p.Channel,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}
