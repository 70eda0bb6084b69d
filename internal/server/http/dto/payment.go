package dto

import "time"

// InitializePaymentRequest opens a checkout for an application fee.
type InitializePaymentRequest struct {
	ApplicationID int64 `json:"application_id"`
}

// CheckoutResponse carries the provider handoff for a freshly opened payment.
// The client completes checkout at AuthorizationURL and later verifies by
// Reference.
type CheckoutResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
}

// PaymentResponse describes a payment as exposed over HTTP. Amount is in
// minor currency units.
type PaymentResponse struct {
	Reference     string     `json:"reference"`
	ApplicationID int64      `json:"application_id"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	Channel       *string    `json:"channel,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
