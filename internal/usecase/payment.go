package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/repository"
	"github.com/Feel-The-AGI/workstream-server/internal/events"
)

// ProviderGateway is the slice of the payment provider the reconciler needs.
type ProviderGateway interface {
	Open(ctx context.Context, req model.CheckoutRequest) (*model.ProviderHandoff, error)
	Verify(ctx context.Context, reference string) (*model.VerifiedTransaction, error)
}

// PaymentUseCase owns the payment lifecycle and merges the provider's two
// unordered delivery channels into one monotonic payment state.
type PaymentUseCase struct {
	payments     repository.PaymentRepository
	applications repository.ApplicationRepository
	programs     repository.ProgramRepository
	users        repository.UserRepository
	provider     ProviderGateway
	events       events.Publisher
	logger       *slog.Logger
}

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(
	payments repository.PaymentRepository,
	applications repository.ApplicationRepository,
	programs repository.ProgramRepository,
	users repository.UserRepository,
	gateway ProviderGateway,
	publisher events.Publisher,
	logger *slog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		payments:     payments,
		applications: applications,
		programs:     programs,
		users:        users,
		provider:     gateway,
		events:       publisher,
		logger:       logger,
	}
}

// Initialize creates a PENDING payment for the application fee and opens a
// checkout with the provider. A failed provider call deletes the local row
// again so no orphan PENDING payments accumulate.
func (u *PaymentUseCase) Initialize(ctx context.Context, studentID, applicationID int64) (*model.Payment, *model.ProviderHandoff, error) {
	app, err := u.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if app.StudentID != studentID {
		return nil, nil, domainErrors.ErrUnauthorized
	}

	program, err := u.programs.GetByID(ctx, app.ProgramID)
	if err != nil {
		return nil, nil, err
	}
	if !program.RequiresFee() {
		return nil, nil, domainErrors.ErrPaymentNotRequired
	}

	switch _, err := u.payments.GetCompletedByApplication(ctx, applicationID); {
	case err == nil:
		return nil, nil, domainErrors.ErrAlreadyPaid
	case !errors.Is(err, domainErrors.ErrNotFound):
		return nil, nil, err
	}

	student, err := u.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}

	payment, err := u.payments.Create(ctx, &model.Payment{
		StudentID:     studentID,
		ApplicationID: applicationID,
		Amount:        program.FeeAmount,
		Currency:      program.Currency,
		Reference:     newPaymentReference(),
		Status:        model.PaymentStatusPending,
	})
	if err != nil {
		return nil, nil, err
	}

	handoff, err := u.provider.Open(ctx, model.CheckoutRequest{
		Reference: payment.Reference,
		Email:     student.Email,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		PaymentID: payment.ID,
	})
	if err != nil {
		if delErr := u.payments.Delete(ctx, payment.ID); delErr != nil {
			u.logger.Error("orphan payment cleanup failed",
				slog.Int64("payment_id", payment.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, nil, fmt.Errorf("%w: %s", domainErrors.ErrProviderUnavailable, err)
	}

	providerRef := handoff.ProviderReference
	if providerRef == "" {
		providerRef = payment.Reference
	}
	if err := u.payments.SetProviderReference(ctx, payment.ID, providerRef); err != nil {
		return nil, nil, err
	}
	payment.ProviderReference = &providerRef

	return payment, handoff, nil
}

// Finalize is the single reconciliation point for every delivery channel. It
// is idempotent by provider reference: the first terminal report wins and all
// later reports return the stored row unchanged.
func (u *PaymentUseCase) Finalize(ctx context.Context, tx *model.VerifiedTransaction, via model.PaymentChannel) (*model.Payment, error) {
	payment, err := u.payments.GetByProviderReference(ctx, tx.Reference)
	if err != nil {
		return nil, err
	}
	if payment.Terminal() {
		return payment, nil
	}
	if !tx.Status.Settled() {
		return payment, nil
	}

	target := model.PaymentStatusFailed
	if tx.Status == model.TransactionStatusSuccess {
		if tx.Amount != payment.Amount {
			u.logger.Warn("provider amount mismatch",
				slog.Int64("payment_id", payment.ID),
				slog.Int64("expected", payment.Amount),
				slog.Int64("reported", tx.Amount),
				slog.String("via", string(via)),
			)
			return payment, nil
		}
		target = model.PaymentStatusCompleted
	}

	applied, err := u.payments.MarkTerminal(ctx, tx.Reference, target, tx.Channel)
	if err != nil {
		return nil, err
	}

	final, err := u.payments.GetByProviderReference(ctx, tx.Reference)
	if err != nil {
		return nil, err
	}

	if applied && target == model.PaymentStatusCompleted {
		u.logger.Info("payment completed",
			slog.Int64("payment_id", final.ID),
			slog.Int64("application_id", final.ApplicationID),
			slog.String("via", string(via)),
		)
		u.events.Publish(events.PaymentCompleted{
			PaymentID:     final.ID,
			ApplicationID: final.ApplicationID,
			StudentID:     final.StudentID,
			Amount:        final.Amount,
			Currency:      final.Currency,
		})
	}

	return final, nil
}

// Verify is the client polling path after a checkout redirect. The provider
// is asked for the current transaction state and the answer funnels through
// Finalize.
func (u *PaymentUseCase) Verify(ctx context.Context, studentID int64, reference string) (*model.Payment, error) {
	payment, err := u.payments.GetByProviderReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.StudentID != studentID {
		return nil, domainErrors.ErrUnauthorized
	}
	if payment.Terminal() {
		return payment, nil
	}

	tx, err := u.provider.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrProviderUnavailable, err)
	}
	tx.Reference = reference

	return u.Finalize(ctx, tx, model.ChannelVerify)
}

// ListByStudent returns the student's payment history, newest first.
func (u *PaymentUseCase) ListByStudent(ctx context.Context, studentID int64) ([]model.Payment, error) {
	return u.payments.ListByStudent(ctx, studentID)
}

// SelectPendingBatch claims PENDING payments with a provider reference that
// have not been re-checked since the cutoff.
func (u *PaymentUseCase) SelectPendingBatch(ctx context.Context, cutoff time.Time, limit int) ([]model.Payment, error) {
	return u.payments.SelectPendingForReconciliation(ctx, cutoff, limit)
}

// Reconcile re-verifies one claimed payment against the provider and funnels
// any settled state through Finalize.
func (u *PaymentUseCase) Reconcile(ctx context.Context, payment model.Payment) error {
	if payment.ProviderReference == nil {
		return nil
	}

	tx, err := u.provider.Verify(ctx, *payment.ProviderReference)
	if err != nil {
		return err
	}
	if !tx.Status.Settled() {
		return nil
	}
	tx.Reference = *payment.ProviderReference

	_, err = u.Finalize(ctx, tx, model.ChannelSweep)
	return err
}

// PurgeOrphans removes PENDING payments that never obtained a provider
// reference. Safety net behind the synchronous initialize rollback.
func (u *PaymentUseCase) PurgeOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	return u.payments.DeleteOrphans(ctx, cutoff)
}

func newPaymentReference() string {
	return "ws-" + uuid.NewString()
}
