package test

import (
	"context"
	"strconv"
	"sync"
	"time"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, email, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[email]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Email: email, PasswordHash: passwordHash, Role: role}
	s.Next++
	s.Users[email] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByEmail fetches user by email or returns not found.
func (s *UserRepositoryStub) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[email]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ProgramRepositoryStub keeps programs in-memory and applies the conditional
// status and slot updates under a mutex, so concurrency tests observe the
// same compare-and-swap behaviour the real storage provides.
type ProgramRepositoryStub struct {
	CreateFn       func(context.Context, *model.Program) (*model.Program, error)
	GetByIDFn      func(context.Context, int64) (*model.Program, error)
	ListByOwnerFn  func(context.Context, int64) ([]model.Program, error)
	UpdateStatusFn func(context.Context, int64, model.ProgramStatus, model.ProgramStatus) (bool, error)
	ReserveSlotFn  func(context.Context, int64) (bool, error)
	ReleaseSlotFn  func(context.Context, int64) (bool, error)

	mu       sync.Mutex
	Programs map[int64]*model.Program
	Next     int64
	Reserved int
	Released int
}

// NewProgramRepositoryStub constructs stub repository with initialized maps.
func NewProgramRepositoryStub() *ProgramRepositoryStub {
	return &ProgramRepositoryStub{
		Programs: make(map[int64]*model.Program),
		Next:     1,
	}
}

// Seed stores a program, assigning the next identifier when absent.
func (s *ProgramRepositoryStub) Seed(program model.Program) *model.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	if program.ID == 0 {
		program.ID = s.Next
		s.Next++
	} else if program.ID >= s.Next {
		s.Next = program.ID + 1
	}
	stored := program
	s.Programs[stored.ID] = &stored
	return &stored
}

// Create stores the program or delegates to the override.
func (s *ProgramRepositoryStub) Create(ctx context.Context, program *model.Program) (*model.Program, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, program)
	}
	p := *program
	p.AvailableSlots = p.TotalSlots
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	return s.Seed(p), nil
}

// GetByID returns a copy of the stored program or not found.
func (s *ProgramRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Program, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Programs[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListByOwner returns stored programs owned by ownerID.
func (s *ProgramRepositoryStub) ListByOwner(ctx context.Context, ownerID int64) ([]model.Program, error) {
	if s.ListByOwnerFn != nil {
		return s.ListByOwnerFn(ctx, ownerID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Program
	for _, p := range s.Programs {
		if p.OwnerID == ownerID {
			result = append(result, *p)
		}
	}
	return result, nil
}

// UpdateStatus applies the transition iff the stored status matches from.
func (s *ProgramRepositoryStub) UpdateStatus(ctx context.Context, programID int64, from, to model.ProgramStatus) (bool, error) {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, programID, from, to)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Programs[programID]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	return true, nil
}

// ReserveSlot decrements capacity iff the program is open with slots left.
func (s *ProgramRepositoryStub) ReserveSlot(ctx context.Context, programID int64) (bool, error) {
	if s.ReserveSlotFn != nil {
		return s.ReserveSlotFn(ctx, programID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Programs[programID]
	if !ok || p.Status != model.ProgramStatusOpen || p.AvailableSlots <= 0 {
		return false, nil
	}
	p.AvailableSlots--
	s.Reserved++
	return true, nil
}

// ReleaseSlot increments capacity iff below total.
func (s *ProgramRepositoryStub) ReleaseSlot(ctx context.Context, programID int64) (bool, error) {
	if s.ReleaseSlotFn != nil {
		return s.ReleaseSlotFn(ctx, programID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Programs[programID]
	if !ok || p.AvailableSlots >= p.TotalSlots {
		return false, nil
	}
	p.AvailableSlots++
	s.Released++
	return true, nil
}

// ApplicationTransitionCall stores information about Transition invocations.
type ApplicationTransitionCall struct {
	ApplicationID int64
	From          model.ApplicationStatus
	To            model.ApplicationStatus
	Applied       bool
}

// ApplicationRepositoryStub keeps applications in-memory with conditional
// transitions under a mutex.
type ApplicationRepositoryStub struct {
	CreateFn            func(context.Context, *model.Application) (*model.Application, error)
	GetByIDFn           func(context.Context, int64) (*model.Application, error)
	GetLiveFn           func(context.Context, int64, int64) (*model.Application, error)
	ListByStudentFn     func(context.Context, int64) ([]model.Application, error)
	ListByProgramFn     func(context.Context, int64) ([]model.Application, error)
	UpdateDraftFn       func(context.Context, int64, model.DraftPatch) (bool, error)
	TransitionFn        func(context.Context, int64, model.ApplicationStatus, model.ApplicationStatus, *model.ReviewStamp) (bool, error)
	SelectStaleDraftsFn func(context.Context, time.Time, int) ([]model.Application, error)

	mu           sync.Mutex
	Applications map[int64]*model.Application
	Next         int64
	Transitions  []ApplicationTransitionCall
}

// NewApplicationRepositoryStub constructs stub repository with initialized maps.
func NewApplicationRepositoryStub() *ApplicationRepositoryStub {
	return &ApplicationRepositoryStub{
		Applications: make(map[int64]*model.Application),
		Next:         1,
	}
}

// Seed stores an application, assigning identifier and number when absent.
func (s *ApplicationRepositoryStub) Seed(app model.Application) *model.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ID == 0 {
		app.ID = s.Next
		s.Next++
	} else if app.ID >= s.Next {
		s.Next = app.ID + 1
	}
	if app.Number == "" {
		app.Number = "WS-" + strconv.FormatInt(app.ID, 10)
	}
	stored := app
	s.Applications[stored.ID] = &stored
	return &stored
}

// Create stores a new application, rejecting live duplicates.
func (s *ApplicationRepositoryStub) Create(ctx context.Context, app *model.Application) (*model.Application, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, app)
	}
	s.mu.Lock()
	for _, existing := range s.Applications {
		if existing.StudentID == app.StudentID && existing.ProgramID == app.ProgramID &&
			existing.Status != model.ApplicationStatusCancelled {
			s.mu.Unlock()
			return nil, domainErrors.ErrDuplicateApplication
		}
	}
	s.mu.Unlock()
	a := *app
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	return s.Seed(a), nil
}

// GetByID returns a copy of the stored application or not found.
func (s *ApplicationRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Applications[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// GetLiveByStudentAndProgram returns the non-cancelled application for the pair.
func (s *ApplicationRepositoryStub) GetLiveByStudentAndProgram(ctx context.Context, studentID, programID int64) (*model.Application, error) {
	if s.GetLiveFn != nil {
		return s.GetLiveFn(ctx, studentID, programID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Applications {
		if a.StudentID == studentID && a.ProgramID == programID && a.Status != model.ApplicationStatusCancelled {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListByStudent returns stored applications for the student.
func (s *ApplicationRepositoryStub) ListByStudent(ctx context.Context, studentID int64) ([]model.Application, error) {
	if s.ListByStudentFn != nil {
		return s.ListByStudentFn(ctx, studentID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Application
	for _, a := range s.Applications {
		if a.StudentID == studentID {
			result = append(result, *a)
		}
	}
	return result, nil
}

// ListByProgram returns stored applications for the program.
func (s *ApplicationRepositoryStub) ListByProgram(ctx context.Context, programID int64) ([]model.Application, error) {
	if s.ListByProgramFn != nil {
		return s.ListByProgramFn(ctx, programID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Application
	for _, a := range s.Applications {
		if a.ProgramID == programID {
			result = append(result, *a)
		}
	}
	return result, nil
}

// UpdateDraft patches draft fields iff the application is still DRAFT.
func (s *ApplicationRepositoryStub) UpdateDraft(ctx context.Context, id int64, patch model.DraftPatch) (bool, error) {
	if s.UpdateDraftFn != nil {
		return s.UpdateDraftFn(ctx, id, patch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Applications[id]
	if !ok || a.Status != model.ApplicationStatusDraft {
		return false, nil
	}
	if patch.Motivation.Set {
		a.Motivation = patch.Motivation.Ptr()
	}
	if patch.PortfolioURL.Set {
		a.PortfolioURL = patch.PortfolioURL.Ptr()
	}
	a.UpdatedAt = time.Now()
	return true, nil
}

// Transition applies the status edge iff the stored status matches from,
// stamping timestamps the way the real storage does.
func (s *ApplicationRepositoryStub) Transition(ctx context.Context, id int64, from, to model.ApplicationStatus, stamp *model.ReviewStamp) (bool, error) {
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, id, from, to, stamp)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Applications[id]
	applied := ok && a.Status == from
	s.Transitions = append(s.Transitions, ApplicationTransitionCall{ApplicationID: id, From: from, To: to, Applied: applied})
	if !applied {
		return false, nil
	}

	now := time.Now()
	a.Status = to
	a.UpdatedAt = now
	switch to {
	case model.ApplicationStatusSubmitted:
		a.SubmittedAt = &now
	case model.ApplicationStatusUnderReview:
		a.ReviewedAt = &now
	case model.ApplicationStatusAccepted, model.ApplicationStatusRejected:
		a.DecidedAt = &now
	}
	if stamp != nil {
		a.ReviewerID = &stamp.ReviewerID
		if stamp.Notes != "" {
			notes := stamp.Notes
			a.ReviewNotes = &notes
		}
		if stamp.InterviewAt != nil {
			a.InterviewAt = stamp.InterviewAt
		}
	}
	return true, nil
}

// SelectStaleDrafts returns drafts not touched since the cutoff.
func (s *ApplicationRepositoryStub) SelectStaleDrafts(ctx context.Context, cutoff time.Time, limit int) ([]model.Application, error) {
	if s.SelectStaleDraftsFn != nil {
		return s.SelectStaleDraftsFn(ctx, cutoff, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Application
	for _, a := range s.Applications {
		if a.Status == model.ApplicationStatusDraft && a.UpdatedAt.Before(cutoff) {
			result = append(result, *a)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

// PaymentMarkCall stores information about MarkTerminal invocations.
type PaymentMarkCall struct {
	ProviderReference string
	Status            model.PaymentStatus
	Channel           string
	Applied           bool
}

// PaymentRepositoryStub keeps payments in-memory; MarkTerminal only applies
// the PENDING to terminal edge, mirroring the storage idempotency guard.
type PaymentRepositoryStub struct {
	CreateFn         func(context.Context, *model.Payment) (*model.Payment, error)
	SetProviderRefFn func(context.Context, int64, string) error
	DeleteFn         func(context.Context, int64) error
	GetByRefFn       func(context.Context, string) (*model.Payment, error)
	GetCompletedFn   func(context.Context, int64) (*model.Payment, error)
	ListByStudentFn  func(context.Context, int64) ([]model.Payment, error)
	MarkTerminalFn   func(context.Context, string, model.PaymentStatus, string) (bool, error)
	SelectPendingFn  func(context.Context, time.Time, int) ([]model.Payment, error)
	DeleteOrphansFn  func(context.Context, time.Time) (int64, error)

	mu       sync.Mutex
	Payments map[int64]*model.Payment
	Next     int64
	Deleted  []int64
	Marks    []PaymentMarkCall
}

// NewPaymentRepositoryStub constructs stub repository with initialized maps.
func NewPaymentRepositoryStub() *PaymentRepositoryStub {
	return &PaymentRepositoryStub{
		Payments: make(map[int64]*model.Payment),
		Next:     1,
	}
}

// Seed stores a payment, assigning the next identifier when absent.
func (s *PaymentRepositoryStub) Seed(payment model.Payment) *model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment.ID == 0 {
		payment.ID = s.Next
		s.Next++
	} else if payment.ID >= s.Next {
		s.Next = payment.ID + 1
	}
	stored := payment
	s.Payments[stored.ID] = &stored
	return &stored
}

// Create stores a new payment row.
func (s *PaymentRepositoryStub) Create(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, payment)
	}
	p := *payment
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	return s.Seed(p), nil
}

// SetProviderReference stores the reference once; later calls keep the first.
func (s *PaymentRepositoryStub) SetProviderReference(ctx context.Context, id int64, providerRef string) error {
	if s.SetProviderRefFn != nil {
		return s.SetProviderRefFn(ctx, id, providerRef)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Payments[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if p.ProviderReference != nil {
		return domainErrors.ErrConflict
	}
	ref := providerRef
	p.ProviderReference = &ref
	p.UpdatedAt = time.Now()
	return nil
}

// Delete removes a PENDING payment row.
func (s *PaymentRepositoryStub) Delete(ctx context.Context, id int64) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Payments[id]; ok && p.Status == model.PaymentStatusPending {
		delete(s.Payments, id)
		s.Deleted = append(s.Deleted, id)
	}
	return nil
}

// GetByProviderReference returns a copy of the matching payment.
func (s *PaymentRepositoryStub) GetByProviderReference(ctx context.Context, providerRef string) (*model.Payment, error) {
	if s.GetByRefFn != nil {
		return s.GetByRefFn(ctx, providerRef)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Payments {
		if p.ProviderReference != nil && *p.ProviderReference == providerRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// GetCompletedByApplication returns the COMPLETED payment for the application.
func (s *PaymentRepositoryStub) GetCompletedByApplication(ctx context.Context, applicationID int64) (*model.Payment, error) {
	if s.GetCompletedFn != nil {
		return s.GetCompletedFn(ctx, applicationID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Payments {
		if p.ApplicationID == applicationID && p.Status == model.PaymentStatusCompleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListByStudent returns stored payments for the student.
func (s *PaymentRepositoryStub) ListByStudent(ctx context.Context, studentID int64) ([]model.Payment, error) {
	if s.ListByStudentFn != nil {
		return s.ListByStudentFn(ctx, studentID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Payment
	for _, p := range s.Payments {
		if p.StudentID == studentID {
			result = append(result, *p)
		}
	}
	return result, nil
}

// MarkTerminal moves the payment from PENDING to the terminal status.
func (s *PaymentRepositoryStub) MarkTerminal(ctx context.Context, providerRef string, to model.PaymentStatus, channel string) (bool, error) {
	if s.MarkTerminalFn != nil {
		return s.MarkTerminalFn(ctx, providerRef, to, channel)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var target *model.Payment
	for _, p := range s.Payments {
		if p.ProviderReference != nil && *p.ProviderReference == providerRef {
			target = p
			break
		}
	}
	applied := target != nil && target.Status == model.PaymentStatusPending
	s.Marks = append(s.Marks, PaymentMarkCall{ProviderReference: providerRef, Status: to, Channel: channel, Applied: applied})
	if !applied {
		return false, nil
	}

	now := time.Now()
	target.Status = to
	target.UpdatedAt = now
	if channel != "" {
		ch := channel
		target.Channel = &ch
	}
	if to == model.PaymentStatusCompleted {
		target.PaidAt = &now
	}
	return true, nil
}

// SelectPendingForReconciliation returns PENDING payments with a provider
// reference not touched since the cutoff.
func (s *PaymentRepositoryStub) SelectPendingForReconciliation(ctx context.Context, cutoff time.Time, limit int) ([]model.Payment, error) {
	if s.SelectPendingFn != nil {
		return s.SelectPendingFn(ctx, cutoff, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Payment
	for _, p := range s.Payments {
		if p.Status == model.PaymentStatusPending && p.ProviderReference != nil && p.UpdatedAt.Before(cutoff) {
			result = append(result, *p)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

// DeleteOrphans removes PENDING payments without provider reference created
// before the cutoff.
func (s *PaymentRepositoryStub) DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.DeleteOrphansFn != nil {
		return s.DeleteOrphansFn(ctx, cutoff)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, p := range s.Payments {
		if p.Status == model.PaymentStatusPending && p.ProviderReference == nil && p.CreatedAt.Before(cutoff) {
			delete(s.Payments, id)
			removed++
		}
	}
	return removed, nil
}
