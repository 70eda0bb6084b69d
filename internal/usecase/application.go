package usecase

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/repository"
	"github.com/Feel-The-AGI/workstream-server/internal/events"
)

// ApplicationUseCase owns the application lifecycle. Every status change is a
// conditional update keyed on the previously observed status, so concurrent
// writers race safely and the loser surfaces ErrConflict.
type ApplicationUseCase struct {
	applications repository.ApplicationRepository
	programs     repository.ProgramRepository
	payments     repository.PaymentRepository
	slots        *SlotAllocator
	events       events.Publisher
}

// NewApplicationUseCase constructs ApplicationUseCase.
func NewApplicationUseCase(
	applications repository.ApplicationRepository,
	programs repository.ProgramRepository,
	payments repository.PaymentRepository,
	slots *SlotAllocator,
	publisher events.Publisher,
) *ApplicationUseCase {
	return &ApplicationUseCase{
		applications: applications,
		programs:     programs,
		payments:     payments,
		slots:        slots,
		events:       publisher,
	}
}

// DraftFields carries the optional content of a new draft.
type DraftFields struct {
	Motivation   *string
	PortfolioURL *string
}

// Create reserves a slot and opens a DRAFT application for the student. The
// application row itself carries the reservation from here on; any insert
// failure releases the slot again before surfacing the error.
func (u *ApplicationUseCase) Create(ctx context.Context, studentID, programID int64, draft DraftFields) (*model.Application, error) {
	switch _, err := u.applications.GetLiveByStudentAndProgram(ctx, studentID, programID); {
	case err == nil:
		return nil, domainErrors.ErrDuplicateApplication
	case !errors.Is(err, domainErrors.ErrNotFound):
		return nil, err
	}

	if err := u.slots.Reserve(ctx, programID); err != nil {
		return nil, err
	}

	app, err := u.applications.Create(ctx, &model.Application{
		StudentID:    studentID,
		ProgramID:    programID,
		Status:       model.ApplicationStatusDraft,
		Motivation:   draft.Motivation,
		PortfolioURL: draft.PortfolioURL,
	})
	if err != nil {
		_ = u.slots.Release(ctx, programID)
		return nil, err
	}

	return app, nil
}

// Get fetches one application. Access control is the caller's concern.
func (u *ApplicationUseCase) Get(ctx context.Context, id int64) (*model.Application, error) {
	return u.applications.GetByID(ctx, id)
}

// ListByStudent returns the student's applications, newest first.
func (u *ApplicationUseCase) ListByStudent(ctx context.Context, studentID int64) ([]model.Application, error) {
	return u.applications.ListByStudent(ctx, studentID)
}

// ListByProgram returns a program's applications for its reviewers.
func (u *ApplicationUseCase) ListByProgram(ctx context.Context, programID int64) ([]model.Application, error) {
	return u.applications.ListByProgram(ctx, programID)
}

// UpdateDraft patches draft fields while the application is still DRAFT.
func (u *ApplicationUseCase) UpdateDraft(ctx context.Context, studentID, applicationID int64, patch model.DraftPatch) (*model.Application, error) {
	app, err := u.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.StudentID != studentID {
		return nil, domainErrors.ErrUnauthorized
	}
	if app.Status != model.ApplicationStatusDraft {
		return nil, domainErrors.ErrIllegalTransition
	}
	if patch.Empty() {
		return app, nil
	}

	applied, err := u.applications.UpdateDraft(ctx, applicationID, patch)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domainErrors.ErrConflict
	}

	return u.applications.GetByID(ctx, applicationID)
}

// Submit moves a DRAFT to SUBMITTED. Programs with a fee require a COMPLETED
// payment first; the reservation becomes permanent on success.
func (u *ApplicationUseCase) Submit(ctx context.Context, studentID, applicationID int64) (*model.Application, error) {
	app, err := u.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.StudentID != studentID {
		return nil, domainErrors.ErrUnauthorized
	}
	if app.Status != model.ApplicationStatusDraft {
		return nil, domainErrors.ErrIllegalTransition
	}

	program, err := u.programs.GetByID(ctx, app.ProgramID)
	if err != nil {
		return nil, err
	}
	if program.RequiresFee() {
		if _, err := u.payments.GetCompletedByApplication(ctx, applicationID); err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return nil, domainErrors.ErrPaymentRequired
			}
			return nil, err
		}
	}

	applied, err := u.applications.Transition(ctx, applicationID, model.ApplicationStatusDraft, model.ApplicationStatusSubmitted, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domainErrors.ErrConflict
	}

	submitted, err := u.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	u.events.Publish(events.ApplicationSubmitted{
		ApplicationID: submitted.ID,
		StudentID:     submitted.StudentID,
		ProgramID:     submitted.ProgramID,
	})

	return submitted, nil
}

// Advance applies a reviewer transition. Review authority is checked at the
// facade; here only the state graph and the conditional update guard
// correctness.
func (u *ApplicationUseCase) Advance(ctx context.Context, applicationID int64, to model.ApplicationStatus, stamp model.ReviewStamp) (*model.Application, error) {
	if !ReviewTarget(to) {
		return nil, domainErrors.ErrIllegalTransition
	}
	if to == model.ApplicationStatusInterviewScheduled && stamp.InterviewAt == nil {
		return nil, domainErrors.ErrInvalidArgument
	}

	app, err := u.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(app.Status, to) {
		return nil, domainErrors.ErrIllegalTransition
	}

	applied, err := u.applications.Transition(ctx, applicationID, app.Status, to, &stamp)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domainErrors.ErrConflict
	}

	if transitionReleasesSlot(to) {
		_ = u.slots.Release(ctx, app.ProgramID)
	}

	advanced, err := u.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	u.events.Publish(events.ApplicationStatusChanged{
		ApplicationID: advanced.ID,
		StudentID:     advanced.StudentID,
		ProgramID:     advanced.ProgramID,
		From:          app.Status,
		To:            to,
	})

	return advanced, nil
}

// Cancel withdraws a DRAFT or SUBMITTED application and returns its slot.
// Only the winner of the conditional cancel releases, so the slot comes back
// exactly once no matter how many cancel paths race.
func (u *ApplicationUseCase) Cancel(ctx context.Context, studentID, applicationID int64) (*model.Application, error) {
	app, err := u.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.StudentID != studentID {
		return nil, domainErrors.ErrUnauthorized
	}
	if app.Status != model.ApplicationStatusDraft && app.Status != model.ApplicationStatusSubmitted {
		return nil, domainErrors.ErrIllegalTransition
	}

	applied, err := u.applications.Transition(ctx, applicationID, app.Status, model.ApplicationStatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domainErrors.ErrConflict
	}

	if transitionReleasesSlot(model.ApplicationStatusCancelled) {
		_ = u.slots.Release(ctx, app.ProgramID)
	}

	cancelled, err := u.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	u.events.Publish(events.ApplicationStatusChanged{
		ApplicationID: cancelled.ID,
		StudentID:     cancelled.StudentID,
		ProgramID:     cancelled.ProgramID,
		From:          app.Status,
		To:            model.ApplicationStatusCancelled,
	})

	return cancelled, nil
}

// ExpireStaleDrafts cancels drafts untouched since the cutoff and returns
// their slots. Racing student actions are safe because the conditional cancel
// lets exactly one writer win per application.
func (u *ApplicationUseCase) ExpireStaleDrafts(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	drafts, err := u.applications.SelectStaleDrafts(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, draft := range drafts {
		applied, err := u.applications.Transition(ctx, draft.ID, model.ApplicationStatusDraft, model.ApplicationStatusCancelled, nil)
		if err != nil {
			return expired, err
		}
		if !applied {
			continue
		}
		_ = u.slots.Release(ctx, draft.ProgramID)
		expired++
	}

	return expired, nil
}
