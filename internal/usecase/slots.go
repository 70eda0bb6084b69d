package usecase

import (
	"context"
	"log/slog"

	domainErrors "github.com/Feel-The-AGI/workstream-server/internal/domain/errors"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/repository"
)

// SlotAllocator is the only mutation path for a program's available capacity.
// Both operations are single conditional updates, so concurrent callers race
// safely and the loser simply observes that nothing was applied.
type SlotAllocator struct {
	programs repository.ProgramRepository
	logger   *slog.Logger
}

// NewSlotAllocator constructs SlotAllocator.
func NewSlotAllocator(programs repository.ProgramRepository, logger *slog.Logger) *SlotAllocator {
	return &SlotAllocator{programs: programs, logger: logger}
}

// Reserve takes one slot from the program. Fails with ErrSlotsUnavailable
// when the program is full or not accepting applications, and ErrNotFound
// when the program does not exist.
func (a *SlotAllocator) Reserve(ctx context.Context, programID int64) error {
	applied, err := a.programs.ReserveSlot(ctx, programID)
	if err != nil {
		return err
	}
	if !applied {
		if _, err := a.programs.GetByID(ctx, programID); err != nil {
			return err
		}
		return domainErrors.ErrSlotsUnavailable
	}
	return nil
}

// Release returns one slot to the program. Releasing an already full program
// is a no-op, so compensation paths may call it unconditionally.
func (a *SlotAllocator) Release(ctx context.Context, programID int64) error {
	applied, err := a.programs.ReleaseSlot(ctx, programID)
	if err != nil {
		a.logger.Error("slot release failed",
			slog.Int64("program_id", programID),
			slog.String("error", err.Error()),
		)
		return err
	}
	if !applied {
		a.logger.Warn("slot release had no effect", slog.Int64("program_id", programID))
	}
	return nil
}
