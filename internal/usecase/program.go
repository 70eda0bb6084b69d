package usecase

import (
	"context"
	"strings"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/repository"
)

const defaultCurrency = "GHS"

// ProgramUseCase owns program lifecycle and reads. Capacity is never touched
// here; available slots move only through the SlotAllocator.
type ProgramUseCase struct {
	programs repository.ProgramRepository
}

// NewProgramUseCase constructs ProgramUseCase.
func NewProgramUseCase(programs repository.ProgramRepository) *ProgramUseCase {
	return &ProgramUseCase{programs: programs}
}

// CreateProgramParams carries the fields a poster controls.
type CreateProgramParams struct {
	Title       string
	Description string
	TotalSlots  int
	FeeAmount   int64
	Currency    string
}

// Create opens a new program in DRAFT with full capacity.
func (u *ProgramUseCase) Create(ctx context.Context, ownerID int64, params CreateProgramParams) (*model.Program, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" || params.TotalSlots <= 0 || params.FeeAmount < 0 {
		return nil, domainErrors.ErrInvalidArgument
	}
	currency := params.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return u.programs.Create(ctx, &model.Program{
		OwnerID:        ownerID,
		Title:          title,
		Description:    params.Description,
		TotalSlots:     params.TotalSlots,
		AvailableSlots: params.TotalSlots,
		FeeAmount:      params.FeeAmount,
		Currency:       currency,
		Status:         model.ProgramStatusDraft,
	})
}

// Publish opens a DRAFT program for applications.
func (u *ProgramUseCase) Publish(ctx context.Context, ownerID, programID int64) (*model.Program, error) {
	return u.updateStatus(ctx, ownerID, programID, model.ProgramStatusDraft, model.ProgramStatusOpen)
}

// Close stops an OPEN program from accepting applications.
func (u *ProgramUseCase) Close(ctx context.Context, ownerID, programID int64) (*model.Program, error) {
	return u.updateStatus(ctx, ownerID, programID, model.ProgramStatusOpen, model.ProgramStatusClosed)
}

// Get fetches one program.
func (u *ProgramUseCase) Get(ctx context.Context, id int64) (*model.Program, error) {
	return u.programs.GetByID(ctx, id)
}

// ListByOwner returns the poster's programs, newest first.
func (u *ProgramUseCase) ListByOwner(ctx context.Context, ownerID int64) ([]model.Program, error) {
	return u.programs.ListByOwner(ctx, ownerID)
}

func (u *ProgramUseCase) updateStatus(ctx context.Context, ownerID, programID int64, from, to model.ProgramStatus) (*model.Program, error) {
	program, err := u.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.OwnerID != ownerID {
		return nil, domainErrors.ErrUnauthorized
	}
	if program.Status != from {
		return nil, domainErrors.ErrIllegalTransition
	}

	applied, err := u.programs.UpdateStatus(ctx, programID, from, to)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domainErrors.ErrConflict
	}

	return u.programs.GetByID(ctx, programID)
}
