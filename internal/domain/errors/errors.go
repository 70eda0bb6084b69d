package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidArgument    = errors.New("invalid argument")

	// ErrConflict signals a conditional update that lost a race with a
	// concurrent writer. Safe to retry after re-reading current state.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrIllegalTransition signals a status edge that does not exist in the
	// lifecycle graph. Not retryable.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrSlotsUnavailable signals exhausted program capacity or a program not
	// open for applications.
	ErrSlotsUnavailable = errors.New("no slots available")

	ErrDuplicateApplication = errors.New("application already exists for this program")
	ErrPaymentRequired      = errors.New("completed payment required")
	ErrPaymentNotRequired   = errors.New("program has no application fee")
	ErrAlreadyPaid          = errors.New("application fee already paid")
	ErrInvalidSignature     = errors.New("invalid webhook signature")

	// ErrProviderUnavailable covers provider timeouts and transport failures.
	// The payment stays PENDING and is reconciled by a later verify or webhook.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	ErrUnauthorized = errors.New("operation not permitted")
)
