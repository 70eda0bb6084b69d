package model

import "time"

// PaymentStatus describes payment lifecycle. COMPLETED and FAILED are
// terminal: a payment never leaves a terminal state, retries create a new row.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is one application-fee transaction attempt. Reference is generated
// locally and handed to the provider as correlation id; ProviderReference is
// the provider's identifier, immutable and unique once observed, and is the
// idempotency key for reconciliation.
type Payment struct {
	ID                int64
	StudentID         int64
	ApplicationID     int64
	Amount            int64
	Currency          string
	Reference         string
	ProviderReference *string
	Status            PaymentStatus
	Channel           *string
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Terminal reports whether the payment reached a final state.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
