package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

// Metadata is the correlation payload attached when a checkout is opened and
// echoed back by the provider on verify responses and webhook events.
type Metadata struct {
	PaymentID int64 `json:"payment_id"`
}

// TransactionData is the provider's transaction representation shared by the
// verify endpoint and webhook events. Amount is in minor units.
type TransactionData struct {
	Reference string   `json:"reference"`
	Status    string   `json:"status"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	Channel   string   `json:"channel"`
	Metadata  Metadata `json:"metadata"`
}

// Verified converts the wire transaction into the domain view.
func (d *TransactionData) Verified() *model.VerifiedTransaction {
	return &model.VerifiedTransaction{
		Reference: d.Reference,
		Status:    model.TransactionStatus(strings.ToLower(d.Status)),
		Channel:   d.Channel,
		Amount:    d.Amount,
	}
}

// WebhookEvent is one event pushed by the provider.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  TransactionData `json:"data"`
}

// ParseWebhook decodes a webhook body. Callers must verify the signature over
// the raw body before calling this.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	return &evt, nil
}

// Reconcilable reports whether the event carries a transaction state worth
// finalizing. Events without a reference are acknowledged and dropped.
func (e *WebhookEvent) Reconcilable() bool {
	return e.Data.Reference != ""
}

// TransactionStatus maps the event onto a transaction status, falling back to
// the event name when the data block carries none.
func (e *WebhookEvent) TransactionStatus() model.TransactionStatus {
	if e.Data.Status != "" {
		return model.TransactionStatus(strings.ToLower(e.Data.Status))
	}
	if strings.HasSuffix(e.Event, ".success") {
		return model.TransactionStatusSuccess
	}
	return model.TransactionStatusFailed
}
