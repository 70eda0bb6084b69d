package repository

import (
	"context"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

// ProgramRepository describes persistence operations with programs. The slot
// mutation methods are conditional single-row updates; the returned bool
// reports whether the update took effect.
type ProgramRepository interface {
	Create(ctx context.Context, program *model.Program) (*model.Program, error)
	GetByID(ctx context.Context, id int64) (*model.Program, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Program, error)

	// UpdateStatus applies a lifecycle transition iff the program is still in
	// the expected status.
	UpdateStatus(ctx context.Context, programID int64, from, to model.ProgramStatus) (bool, error)

	// ReserveSlot decrements available capacity iff the program is OPEN and
	// has capacity left.
	ReserveSlot(ctx context.Context, programID int64) (bool, error)

	// ReleaseSlot returns one unit of capacity iff available is below total.
	ReleaseSlot(ctx context.Context, programID int64) (bool, error)
}
