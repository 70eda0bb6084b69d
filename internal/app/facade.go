package app

import (
	"context"
	"time"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/usecase"
)

// MarketplaceFacade sequences the auth, program, application, and payment
// use cases into whole operations. It is the only surface handlers and
// workers see; compensation rules live in the use cases it composes.
type MarketplaceFacade struct {
	auth         *usecase.AuthUseCase
	programs     *usecase.ProgramUseCase
	applications *usecase.ApplicationUseCase
	payments     *usecase.PaymentUseCase
	authz        Authorizer
}

// NewMarketplaceFacade constructs MarketplaceFacade.
func NewMarketplaceFacade(
	auth *usecase.AuthUseCase,
	programs *usecase.ProgramUseCase,
	applications *usecase.ApplicationUseCase,
	payments *usecase.PaymentUseCase,
	authz Authorizer,
) *MarketplaceFacade {
	return &MarketplaceFacade{
		auth:         auth,
		programs:     programs,
		applications: applications,
		payments:     payments,
		authz:        authz,
	}
}

func (f *MarketplaceFacade) Register(ctx context.Context, email, password string, role model.Role) (string, error) {
	_, token, err := f.auth.Register(ctx, email, password, role)
	return token, err
}

func (f *MarketplaceFacade) Authenticate(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, email, password)
	return token, err
}

func (f *MarketplaceFacade) ParseToken(token string) (int64, model.Role, error) {
	return f.auth.ParseToken(token)
}

func (f *MarketplaceFacade) CreateProgram(ctx context.Context, principal Principal, params usecase.CreateProgramParams) (*model.Program, error) {
	if !principal.Role.CanPostPrograms() {
		return nil, domainErrors.ErrUnauthorized
	}
	return f.programs.Create(ctx, principal.UserID, params)
}

func (f *MarketplaceFacade) PublishProgram(ctx context.Context, ownerID, programID int64) (*model.Program, error) {
	return f.programs.Publish(ctx, ownerID, programID)
}

func (f *MarketplaceFacade) CloseProgram(ctx context.Context, ownerID, programID int64) (*model.Program, error) {
	return f.programs.Close(ctx, ownerID, programID)
}

func (f *MarketplaceFacade) Program(ctx context.Context, programID int64) (*model.Program, error) {
	return f.programs.Get(ctx, programID)
}

func (f *MarketplaceFacade) OwnPrograms(ctx context.Context, ownerID int64) ([]model.Program, error) {
	return f.programs.ListByOwner(ctx, ownerID)
}

// ProgramApplications lists a program's applications for its reviewers.
func (f *MarketplaceFacade) ProgramApplications(ctx context.Context, principal Principal, programID int64) ([]model.Application, error) {
	if err := f.authz.CanReview(ctx, principal, programID); err != nil {
		return nil, err
	}
	return f.applications.ListByProgram(ctx, programID)
}

func (f *MarketplaceFacade) CreateApplication(ctx context.Context, principal Principal, programID int64, draft usecase.DraftFields) (*model.Application, error) {
	if principal.Role != model.RoleStudent {
		return nil, domainErrors.ErrUnauthorized
	}
	return f.applications.Create(ctx, principal.UserID, programID, draft)
}

// Application fetches one application for the owning student or a reviewer
// of its program.
func (f *MarketplaceFacade) Application(ctx context.Context, principal Principal, applicationID int64) (*model.Application, error) {
	app, err := f.applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.StudentID == principal.UserID {
		return app, nil
	}
	if err := f.authz.CanReview(ctx, principal, app.ProgramID); err != nil {
		return nil, err
	}
	return app, nil
}

func (f *MarketplaceFacade) MyApplications(ctx context.Context, studentID int64) ([]model.Application, error) {
	return f.applications.ListByStudent(ctx, studentID)
}

func (f *MarketplaceFacade) UpdateDraft(ctx context.Context, studentID, applicationID int64, patch model.DraftPatch) (*model.Application, error) {
	return f.applications.UpdateDraft(ctx, studentID, applicationID, patch)
}

func (f *MarketplaceFacade) SubmitApplication(ctx context.Context, studentID, applicationID int64) (*model.Application, error) {
	return f.applications.Submit(ctx, studentID, applicationID)
}

// AdvanceApplication applies a reviewer transition after the authorization
// boundary confirmed review authority over the program.
func (f *MarketplaceFacade) AdvanceApplication(ctx context.Context, principal Principal, applicationID int64, to model.ApplicationStatus, notes string, interviewAt *time.Time) (*model.Application, error) {
	app, err := f.applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if to == model.ApplicationStatusEnrolled {
		err = f.authz.CanApproveHires(ctx, principal, app.ProgramID)
	} else {
		err = f.authz.CanReview(ctx, principal, app.ProgramID)
	}
	if err != nil {
		return nil, err
	}

	stamp := model.ReviewStamp{ReviewerID: principal.UserID, Notes: notes, InterviewAt: interviewAt}
	return f.applications.Advance(ctx, applicationID, to, stamp)
}

func (f *MarketplaceFacade) CancelApplication(ctx context.Context, studentID, applicationID int64) (*model.Application, error) {
	return f.applications.Cancel(ctx, studentID, applicationID)
}

func (f *MarketplaceFacade) InitializePayment(ctx context.Context, studentID, applicationID int64) (*model.Payment, *model.ProviderHandoff, error) {
	return f.payments.Initialize(ctx, studentID, applicationID)
}

func (f *MarketplaceFacade) VerifyPayment(ctx context.Context, studentID int64, reference string) (*model.Payment, error) {
	return f.payments.Verify(ctx, studentID, reference)
}

func (f *MarketplaceFacade) MyPayments(ctx context.Context, studentID int64) ([]model.Payment, error) {
	return f.payments.ListByStudent(ctx, studentID)
}

// FinalizePayment funnels a provider-confirmed transaction state into the
// idempotent reconciliation point. Used by the webhook handler and tests.
func (f *MarketplaceFacade) FinalizePayment(ctx context.Context, tx *model.VerifiedTransaction, via model.PaymentChannel) (*model.Payment, error) {
	return f.payments.Finalize(ctx, tx, via)
}

func (f *MarketplaceFacade) PendingPayments(ctx context.Context, cutoff time.Time, limit int) ([]model.Payment, error) {
	return f.payments.SelectPendingBatch(ctx, cutoff, limit)
}

func (f *MarketplaceFacade) ReconcilePayment(ctx context.Context, payment model.Payment) error {
	return f.payments.Reconcile(ctx, payment)
}

func (f *MarketplaceFacade) ExpireStaleDrafts(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return f.applications.ExpireStaleDrafts(ctx, cutoff, limit)
}

func (f *MarketplaceFacade) PurgeOrphanPayments(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.payments.PurgeOrphans(ctx, cutoff)
}
