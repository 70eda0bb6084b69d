package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	testhelpers "github.com/Feel-The-AGI/workstream-server/internal/test"
)

type applicationEnv struct {
	uc           *ApplicationUseCase
	applications *testhelpers.ApplicationRepositoryStub
	programs     *testhelpers.ProgramRepositoryStub
	payments     *testhelpers.PaymentRepositoryStub
	publisher    *testhelpers.PublisherStub
}

func newApplicationEnv() applicationEnv {
	applications := testhelpers.NewApplicationRepositoryStub()
	programs := testhelpers.NewProgramRepositoryStub()
	payments := testhelpers.NewPaymentRepositoryStub()
	publisher := &testhelpers.PublisherStub{}
	slots := NewSlotAllocator(programs, discardLogger())
	return applicationEnv{
		uc:           NewApplicationUseCase(applications, programs, payments, slots, publisher),
		applications: applications,
		programs:     programs,
		payments:     payments,
		publisher:    publisher,
	}
}

func (e applicationEnv) seedOpenProgram(total, available int) *model.Program {
	return e.programs.Seed(model.Program{
		OwnerID:        100,
		Status:         model.ProgramStatusOpen,
		TotalSlots:     total,
		AvailableSlots: available,
	})
}

func TestApplicationUseCaseCreate(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(3, 3)
	motivation := "I want in"

	app, err := env.uc.Create(context.Background(), 7, program.ID, DraftFields{Motivation: &motivation})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if app.Status != model.ApplicationStatusDraft {
		t.Fatalf("expected DRAFT status, got %s", app.Status)
	}
	if app.Number == "" {
		t.Fatal("expected application number to be assigned")
	}
	if app.Motivation == nil || *app.Motivation != motivation {
		t.Fatalf("motivation not stored: %v", app.Motivation)
	}

	stored, err := env.programs.GetByID(context.Background(), program.ID)
	if err != nil {
		t.Fatalf("get program failed: %v", err)
	}
	if stored.AvailableSlots != 2 {
		t.Fatalf("expected reservation to consume one slot, got %d available", stored.AvailableSlots)
	}
}

func TestApplicationUseCaseCreateDuplicate(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(3, 3)
	env.applications.Seed(model.Application{StudentID: 7, ProgramID: program.ID, Status: model.ApplicationStatusSubmitted})

	if _, err := env.uc.Create(context.Background(), 7, program.ID, DraftFields{}); err != domainErrors.ErrDuplicateApplication {
		t.Fatalf("expected duplicate application error, got %v", err)
	}
	if env.programs.Reserved != 0 {
		t.Fatalf("expected no slot reserved, got %d", env.programs.Reserved)
	}
}

func TestApplicationUseCaseCreateAfterCancellation(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(3, 3)
	env.applications.Seed(model.Application{StudentID: 7, ProgramID: program.ID, Status: model.ApplicationStatusCancelled})

	if _, err := env.uc.Create(context.Background(), 7, program.ID, DraftFields{}); err != nil {
		t.Fatalf("expected cancelled application to allow a retry, got %v", err)
	}
}

func TestApplicationUseCaseCreateProgramFull(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(2, 0)

	if _, err := env.uc.Create(context.Background(), 7, program.ID, DraftFields{}); err != domainErrors.ErrSlotsUnavailable {
		t.Fatalf("expected slots unavailable error, got %v", err)
	}
}

func TestApplicationUseCaseCreateProgramNotOpen(t *testing.T) {
	env := newApplicationEnv()
	program := env.programs.Seed(model.Program{Status: model.ProgramStatusDraft, TotalSlots: 3, AvailableSlots: 3})

	if _, err := env.uc.Create(context.Background(), 7, program.ID, DraftFields{}); err != domainErrors.ErrSlotsUnavailable {
		t.Fatalf("expected slots unavailable error, got %v", err)
	}
}

func TestApplicationUseCaseCreateProgramMissing(t *testing.T) {
	env := newApplicationEnv()

	if _, err := env.uc.Create(context.Background(), 7, 99, DraftFields{}); err != domainErrors.ErrNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestApplicationUseCaseCreateReleasesSlotOnInsertFailure(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(3, 3)
	env.applications.CreateFn = func(context.Context, *model.Application) (*model.Application, error) {
		return nil, fmt.Errorf("insert failed")
	}

	if _, err := env.uc.Create(context.Background(), 7, program.ID, DraftFields{}); err == nil {
		t.Fatal("expected insert error")
	}

	stored, err := env.programs.GetByID(context.Background(), program.ID)
	if err != nil {
		t.Fatalf("get program failed: %v", err)
	}
	if stored.AvailableSlots != 3 {
		t.Fatalf("expected slot returned after failed insert, got %d available", stored.AvailableSlots)
	}
}

func TestApplicationUseCaseCreateConcurrentSingleWinner(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(1, 1)

	const contenders = 6
	errs := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(studentID int64) {
			defer wg.Done()
			_, err := env.uc.Create(context.Background(), studentID, program.ID, DraftFields{})
			errs <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(errs)

	winners := 0
	for err := range errs {
		switch err {
		case nil:
			winners++
		case domainErrors.ErrSlotsUnavailable:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one application created, got %d", winners)
	}
	if env.programs.Reserved != 1 {
		t.Fatalf("expected exactly one reservation, got %d", env.programs.Reserved)
	}
}

func TestApplicationUseCaseUpdateDraft(t *testing.T) {
	env := newApplicationEnv()
	motivation := "first pass"
	portfolio := "https://old.example.com"
	app := env.applications.Seed(model.Application{
		StudentID:    7,
		ProgramID:    1,
		Status:       model.ApplicationStatusDraft,
		Motivation:   &motivation,
		PortfolioURL: &portfolio,
	})

	updated, err := env.uc.UpdateDraft(context.Background(), 7, app.ID, model.DraftPatch{
		Motivation:   model.PatchValue("second pass"),
		PortfolioURL: model.PatchNull(),
	})
	if err != nil {
		t.Fatalf("update draft returned error: %v", err)
	}
	if updated.Motivation == nil || *updated.Motivation != "second pass" {
		t.Fatalf("motivation not updated: %v", updated.Motivation)
	}
	if updated.PortfolioURL != nil {
		t.Fatalf("expected portfolio cleared, got %v", *updated.PortfolioURL)
	}
}

func TestApplicationUseCaseUpdateDraftEmptyPatch(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusDraft})
	env.applications.UpdateDraftFn = func(context.Context, int64, model.DraftPatch) (bool, error) {
		t.Fatal("update should not be called for an empty patch")
		return false, nil
	}

	updated, err := env.uc.UpdateDraft(context.Background(), 7, app.ID, model.DraftPatch{})
	if err != nil {
		t.Fatalf("update draft returned error: %v", err)
	}
	if updated.ID != app.ID {
		t.Fatalf("expected current application back, got %d", updated.ID)
	}
}

func TestApplicationUseCaseUpdateDraftWrongOwner(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusDraft})

	if _, err := env.uc.UpdateDraft(context.Background(), 8, app.ID, model.DraftPatch{Motivation: model.PatchValue("x")}); err != domainErrors.ErrUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestApplicationUseCaseUpdateDraftAfterSubmit(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusSubmitted})

	if _, err := env.uc.UpdateDraft(context.Background(), 7, app.ID, model.DraftPatch{Motivation: model.PatchValue("x")}); err != domainErrors.ErrIllegalTransition {
		t.Fatalf("expected illegal transition error, got %v", err)
	}
}

func TestApplicationUseCaseUpdateDraftLostRace(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusDraft})
	env.applications.UpdateDraftFn = func(context.Context, int64, model.DraftPatch) (bool, error) {
		return false, nil
	}

	if _, err := env.uc.UpdateDraft(context.Background(), 7, app.ID, model.DraftPatch{Motivation: model.PatchValue("x")}); err != domainErrors.ErrConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestApplicationUseCaseSubmitFreeProgram(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(3, 2)
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: program.ID, Status: model.ApplicationStatusDraft})

	submitted, err := env.uc.Submit(context.Background(), 7, app.ID)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if submitted.Status != model.ApplicationStatusSubmitted {
		t.Fatalf("expected SUBMITTED status, got %s", submitted.Status)
	}
	if submitted.SubmittedAt == nil {
		t.Fatal("expected submission timestamp")
	}

	names := env.publisher.Names()
	if len(names) != 1 || names[0] != "application.submitted" {
		t.Fatalf("expected submitted event, got %v", names)
	}
}

func TestApplicationUseCaseSubmitRequiresPayment(t *testing.T) {
	env := newApplicationEnv()
	program := env.programs.Seed(model.Program{Status: model.ProgramStatusOpen, TotalSlots: 3, AvailableSlots: 2, FeeAmount: 5000, Currency: "GHS"})
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: program.ID, Status: model.ApplicationStatusDraft})

	if _, err := env.uc.Submit(context.Background(), 7, app.ID); err != domainErrors.ErrPaymentRequired {
		t.Fatalf("expected payment required error, got %v", err)
	}
	if len(env.applications.Transitions) != 0 {
		t.Fatalf("expected no transition attempts, got %d", len(env.applications.Transitions))
	}
}

func TestApplicationUseCaseSubmitPaidProgram(t *testing.T) {
	env := newApplicationEnv()
	program := env.programs.Seed(model.Program{Status: model.ProgramStatusOpen, TotalSlots: 3, AvailableSlots: 2, FeeAmount: 5000, Currency: "GHS"})
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: program.ID, Status: model.ApplicationStatusDraft})
	ref := "prov-1"
	env.payments.Seed(model.Payment{
		StudentID:         7,
		ApplicationID:     app.ID,
		Amount:            5000,
		Currency:          "GHS",
		ProviderReference: &ref,
		Status:            model.PaymentStatusCompleted,
	})

	submitted, err := env.uc.Submit(context.Background(), 7, app.ID)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if submitted.Status != model.ApplicationStatusSubmitted {
		t.Fatalf("expected SUBMITTED status, got %s", submitted.Status)
	}
}

func TestApplicationUseCaseSubmitWrongOwner(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusDraft})

	if _, err := env.uc.Submit(context.Background(), 8, app.ID); err != domainErrors.ErrUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestApplicationUseCaseSubmitTwice(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusSubmitted})

	if _, err := env.uc.Submit(context.Background(), 7, app.ID); err != domainErrors.ErrIllegalTransition {
		t.Fatalf("expected illegal transition error, got %v", err)
	}
}

func TestApplicationUseCaseSubmitLostRace(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(3, 2)
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: program.ID, Status: model.ApplicationStatusDraft})
	env.applications.TransitionFn = func(context.Context, int64, model.ApplicationStatus, model.ApplicationStatus, *model.ReviewStamp) (bool, error) {
		return false, nil
	}

	if _, err := env.uc.Submit(context.Background(), 7, app.ID); err != domainErrors.ErrConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestApplicationUseCaseAdvance(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusSubmitted})

	advanced, err := env.uc.Advance(context.Background(), app.ID, model.ApplicationStatusUnderReview, model.ReviewStamp{ReviewerID: 100, Notes: "looks promising"})
	if err != nil {
		t.Fatalf("advance returned error: %v", err)
	}
	if advanced.Status != model.ApplicationStatusUnderReview {
		t.Fatalf("expected UNDER_REVIEW status, got %s", advanced.Status)
	}
	if advanced.ReviewerID == nil || *advanced.ReviewerID != 100 {
		t.Fatalf("reviewer not stamped: %v", advanced.ReviewerID)
	}
	if advanced.ReviewNotes == nil || *advanced.ReviewNotes != "looks promising" {
		t.Fatalf("notes not stamped: %v", advanced.ReviewNotes)
	}

	names := env.publisher.Names()
	if len(names) != 1 || names[0] != "application.status_changed" {
		t.Fatalf("expected status change event, got %v", names)
	}
}

func TestApplicationUseCaseAdvanceRejectsNonReviewTargets(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusDraft})

	if _, err := env.uc.Advance(context.Background(), app.ID, model.ApplicationStatusSubmitted, model.ReviewStamp{ReviewerID: 100}); err != domainErrors.ErrIllegalTransition {
		t.Fatalf("expected illegal transition error, got %v", err)
	}
	if _, err := env.uc.Advance(context.Background(), app.ID, model.ApplicationStatusCancelled, model.ReviewStamp{ReviewerID: 100}); err != domainErrors.ErrIllegalTransition {
		t.Fatalf("expected illegal transition error, got %v", err)
	}
}

func TestApplicationUseCaseAdvanceIllegalEdge(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusDraft})

	if _, err := env.uc.Advance(context.Background(), app.ID, model.ApplicationStatusAccepted, model.ReviewStamp{ReviewerID: 100}); err != domainErrors.ErrIllegalTransition {
		t.Fatalf("expected illegal transition error, got %v", err)
	}

	decided := env.applications.Seed(model.Application{StudentID: 8, ProgramID: 1, Status: model.ApplicationStatusRejected})
	if _, err := env.uc.Advance(context.Background(), decided.ID, model.ApplicationStatusAccepted, model.ReviewStamp{ReviewerID: 100}); err != domainErrors.ErrIllegalTransition {
		t.Fatalf("expected terminal state to stay terminal, got %v", err)
	}
}

func TestApplicationUseCaseAdvanceInterviewNeedsSchedule(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusUnderReview})

	if _, err := env.uc.Advance(context.Background(), app.ID, model.ApplicationStatusInterviewScheduled, model.ReviewStamp{ReviewerID: 100}); err != domainErrors.ErrInvalidArgument {
		t.Fatalf("expected invalid argument without interview time, got %v", err)
	}

	interviewAt := time.Now().Add(48 * time.Hour)
	advanced, err := env.uc.Advance(context.Background(), app.ID, model.ApplicationStatusInterviewScheduled, model.ReviewStamp{ReviewerID: 100, InterviewAt: &interviewAt})
	if err != nil {
		t.Fatalf("advance returned error: %v", err)
	}
	if advanced.InterviewAt == nil || !advanced.InterviewAt.Equal(interviewAt) {
		t.Fatalf("interview time not stored: %v", advanced.InterviewAt)
	}
}

func TestApplicationUseCaseAdvanceLostRace(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusSubmitted})
	env.applications.TransitionFn = func(context.Context, int64, model.ApplicationStatus, model.ApplicationStatus, *model.ReviewStamp) (bool, error) {
		return false, nil
	}

	if _, err := env.uc.Advance(context.Background(), app.ID, model.ApplicationStatusUnderReview, model.ReviewStamp{ReviewerID: 100}); err != domainErrors.ErrConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestApplicationUseCaseAdvanceRejectionKeepsSlot(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(3, 2)
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: program.ID, Status: model.ApplicationStatusUnderReview})

	advanced, err := env.uc.Advance(context.Background(), app.ID, model.ApplicationStatusRejected, model.ReviewStamp{ReviewerID: 100})
	if err != nil {
		t.Fatalf("advance returned error: %v", err)
	}
	if advanced.Status != model.ApplicationStatusRejected {
		t.Fatalf("expected REJECTED status, got %s", advanced.Status)
	}
	if advanced.DecidedAt == nil {
		t.Fatal("expected decision timestamp")
	}
	if env.programs.Released != 0 {
		t.Fatalf("expected rejected seat to stay consumed, got %d releases", env.programs.Released)
	}
}

func TestApplicationUseCaseCancelReleasesSlotOnce(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(3, 2)
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: program.ID, Status: model.ApplicationStatusSubmitted})

	cancelled, err := env.uc.Cancel(context.Background(), 7, app.ID)
	if err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if cancelled.Status != model.ApplicationStatusCancelled {
		t.Fatalf("expected CANCELLED status, got %s", cancelled.Status)
	}
	if env.programs.Released != 1 {
		t.Fatalf("expected one release, got %d", env.programs.Released)
	}

	if _, err := env.uc.Cancel(context.Background(), 7, app.ID); err != domainErrors.ErrIllegalTransition {
		t.Fatalf("expected second cancel to fail, got %v", err)
	}
	if env.programs.Released != 1 {
		t.Fatalf("expected release to stay at one, got %d", env.programs.Released)
	}
}

func TestApplicationUseCaseCancelAfterReviewStarts(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusUnderReview})

	if _, err := env.uc.Cancel(context.Background(), 7, app.ID); err != domainErrors.ErrIllegalTransition {
		t.Fatalf("expected illegal transition error, got %v", err)
	}
}

func TestApplicationUseCaseCancelWrongOwner(t *testing.T) {
	env := newApplicationEnv()
	app := env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusDraft})

	if _, err := env.uc.Cancel(context.Background(), 8, app.ID); err != domainErrors.ErrUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestApplicationUseCaseExpireStaleDrafts(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(5, 2)
	stale := time.Now().Add(-2 * time.Hour)
	env.applications.Seed(model.Application{StudentID: 1, ProgramID: program.ID, Status: model.ApplicationStatusDraft, UpdatedAt: stale})
	env.applications.Seed(model.Application{StudentID: 2, ProgramID: program.ID, Status: model.ApplicationStatusDraft, UpdatedAt: stale})
	env.applications.Seed(model.Application{StudentID: 3, ProgramID: program.ID, Status: model.ApplicationStatusDraft, UpdatedAt: time.Now()})
	env.applications.Seed(model.Application{StudentID: 4, ProgramID: program.ID, Status: model.ApplicationStatusSubmitted, UpdatedAt: stale})

	expired, err := env.uc.ExpireStaleDrafts(context.Background(), time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("expire returned error: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expected 2 expired drafts, got %d", expired)
	}
	if env.programs.Released != 2 {
		t.Fatalf("expected 2 releases, got %d", env.programs.Released)
	}
}

func TestApplicationUseCaseExpireStaleDraftsSkipsLostRaces(t *testing.T) {
	env := newApplicationEnv()
	program := env.seedOpenProgram(5, 2)
	stale := time.Now().Add(-2 * time.Hour)
	draft := env.applications.Seed(model.Application{StudentID: 1, ProgramID: program.ID, Status: model.ApplicationStatusDraft, UpdatedAt: stale})
	raced := env.applications.Seed(model.Application{StudentID: 2, ProgramID: program.ID, Status: model.ApplicationStatusSubmitted, UpdatedAt: stale})
	env.applications.SelectStaleDraftsFn = func(context.Context, time.Time, int) ([]model.Application, error) {
		return []model.Application{*draft, *raced}, nil
	}

	expired, err := env.uc.ExpireStaleDrafts(context.Background(), time.Now(), 10)
	if err != nil {
		t.Fatalf("expire returned error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired draft, got %d", expired)
	}
	if env.programs.Released != 1 {
		t.Fatalf("expected 1 release, got %d", env.programs.Released)
	}
}

func TestApplicationUseCaseExpireStaleDraftsPropagatesError(t *testing.T) {
	env := newApplicationEnv()
	env.applications.SelectStaleDraftsFn = func(context.Context, time.Time, int) ([]model.Application, error) {
		return nil, errors.New("db down")
	}

	if _, err := env.uc.ExpireStaleDrafts(context.Background(), time.Now(), 10); err == nil {
		t.Fatal("expected repository error")
	}
}

func TestApplicationUseCaseListByStudent(t *testing.T) {
	env := newApplicationEnv()
	env.applications.Seed(model.Application{StudentID: 7, ProgramID: 1, Status: model.ApplicationStatusDraft})
	env.applications.Seed(model.Application{StudentID: 7, ProgramID: 2, Status: model.ApplicationStatusSubmitted})
	env.applications.Seed(model.Application{StudentID: 8, ProgramID: 1, Status: model.ApplicationStatusDraft})

	apps, err := env.uc.ListByStudent(context.Background(), 7)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(apps))
	}
}
