package repository

import (
	"context"
	"time"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

// PaymentRepository describes persistence operations with payments.
// MarkTerminal is the reconciliation write: a conditional update that only
// ever moves PENDING to a terminal status, making every delivery channel
// idempotent by provider reference.
type PaymentRepository interface {
	// Create inserts a PENDING payment with its locally generated reference.
	Create(ctx context.Context, payment *model.Payment) (*model.Payment, error)

	// SetProviderReference stores the provider's identifier once. Subsequent
	// calls for the same payment do not overwrite it.
	SetProviderReference(ctx context.Context, id int64, providerRef string) error

	// Delete removes a payment row; used only for the compensating rollback
	// of a failed provider handoff, so it refuses non-PENDING rows.
	Delete(ctx context.Context, id int64) error

	GetByProviderReference(ctx context.Context, providerRef string) (*model.Payment, error)
	GetCompletedByApplication(ctx context.Context, applicationID int64) (*model.Payment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.Payment, error)

	// MarkTerminal moves the payment identified by providerRef from PENDING
	// to the given terminal status, recording the confirming channel and, for
	// COMPLETED, the paid-at time.
	MarkTerminal(ctx context.Context, providerRef string, to model.PaymentStatus, channel string) (bool, error)

	// SelectPendingForReconciliation claims PENDING payments that obtained a
	// provider reference but have not been re-checked since the cutoff.
	SelectPendingForReconciliation(ctx context.Context, cutoff time.Time, limit int) ([]model.Payment, error)

	// DeleteOrphans sweeps PENDING rows that never obtained a provider
	// reference. Safety net behind the synchronous initialize rollback.
	DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error)
}
