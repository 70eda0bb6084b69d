package app

import (
	"context"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/repository"
)

// Principal is the authenticated caller as recovered from the auth token.
type Principal struct {
	UserID int64
	Role   model.Role
}

// Authorizer answers review-authority questions for a program. Kept behind an
// interface so a delegated role service can replace the ownership rule.
type Authorizer interface {
	CanReview(ctx context.Context, principal Principal, programID int64) error
	CanApproveHires(ctx context.Context, principal Principal, programID int64) error
}

// OwnerAuthorizer grants review authority to the program owner and admins.
type OwnerAuthorizer struct {
	programs repository.ProgramRepository
}

// NewOwnerAuthorizer constructs OwnerAuthorizer.
func NewOwnerAuthorizer(programs repository.ProgramRepository) *OwnerAuthorizer {
	return &OwnerAuthorizer{programs: programs}
}

// CanReview reports whether the principal may move applications of the
// program through review states.
func (a *OwnerAuthorizer) CanReview(ctx context.Context, principal Principal, programID int64) error {
	if principal.Role == model.RoleAdmin {
		return nil
	}
	program, err := a.programs.GetByID(ctx, programID)
	if err != nil {
		return err
	}
	if program.OwnerID != principal.UserID {
		return domainErrors.ErrUnauthorized
	}
	return nil
}

// CanApproveHires reports whether the principal may confirm enrollment.
func (a *OwnerAuthorizer) CanApproveHires(ctx context.Context, principal Principal, programID int64) error {
	return a.CanReview(ctx, principal, programID)
}
