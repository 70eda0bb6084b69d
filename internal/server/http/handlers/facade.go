package handlers

import (
	"context"
	"time"

	"github.com/Feel-The-AGI/workstream-server/internal/app"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, email, password string, role model.Role) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	ParseToken(token string) (int64, model.Role, error)
}

// ProgramFacade encapsulates program operations exposed via HTTP.
type ProgramFacade interface {
	CreateProgram(ctx context.Context, principal app.Principal, params usecase.CreateProgramParams) (*model.Program, error)
	PublishProgram(ctx context.Context, ownerID, programID int64) (*model.Program, error)
	CloseProgram(ctx context.Context, ownerID, programID int64) (*model.Program, error)
	Program(ctx context.Context, programID int64) (*model.Program, error)
	OwnPrograms(ctx context.Context, ownerID int64) ([]model.Program, error)
	ProgramApplications(ctx context.Context, principal app.Principal, programID int64) ([]model.Application, error)
}

// ApplicationFacade encapsulates application lifecycle operations.
type ApplicationFacade interface {
	CreateApplication(ctx context.Context, principal app.Principal, programID int64, draft usecase.DraftFields) (*model.Application, error)
	Application(ctx context.Context, principal app.Principal, applicationID int64) (*model.Application, error)
	MyApplications(ctx context.Context, studentID int64) ([]model.Application, error)
	UpdateDraft(ctx context.Context, studentID, applicationID int64, patch model.DraftPatch) (*model.Application, error)
	SubmitApplication(ctx context.Context, studentID, applicationID int64) (*model.Application, error)
	AdvanceApplication(ctx context.Context, principal app.Principal, applicationID int64, to model.ApplicationStatus, notes string, interviewAt *time.Time) (*model.Application, error)
	CancelApplication(ctx context.Context, studentID, applicationID int64) (*model.Application, error)
}

// PaymentFacade provides payment operations.
type PaymentFacade interface {
	InitializePayment(ctx context.Context, studentID, applicationID int64) (*model.Payment, *model.ProviderHandoff, error)
	VerifyPayment(ctx context.Context, studentID int64, reference string) (*model.Payment, error)
	MyPayments(ctx context.Context, studentID int64) ([]model.Payment, error)
	FinalizePayment(ctx context.Context, tx *model.VerifiedTransaction, via model.PaymentChannel) (*model.Payment, error)
}

// MarketplaceFacade aggregates the full set of operations used across handlers.
type MarketplaceFacade interface {
	AuthFacade
	ProgramFacade
	ApplicationFacade
	PaymentFacade
}

// SignatureVerifier authenticates a webhook request by its signature over
// the raw body.
type SignatureVerifier interface {
	Verify(body []byte, signature string) bool
}

// HealthChecker reports backing storage availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
