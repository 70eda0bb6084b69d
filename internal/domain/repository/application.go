package repository

import (
	"context"
	"time"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

// ApplicationRepository describes persistence operations with applications.
// Transition is the single mutation path for status: a conditional update
// guarded by the expected previous status, so concurrent transition attempts
// race safely (the loser observes applied=false).
type ApplicationRepository interface {
	// Create inserts a DRAFT application and assigns its unique number.
	// A live (non-cancelled) duplicate for the same student and program
	// surfaces as ErrDuplicateApplication.
	Create(ctx context.Context, app *model.Application) (*model.Application, error)

	GetByID(ctx context.Context, id int64) (*model.Application, error)
	GetLiveByStudentAndProgram(ctx context.Context, studentID, programID int64) (*model.Application, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.Application, error)
	ListByProgram(ctx context.Context, programID int64) ([]model.Application, error)

	// UpdateDraft applies a partial draft-field patch iff still DRAFT.
	UpdateDraft(ctx context.Context, id int64, patch model.DraftPatch) (bool, error)

	// Transition moves id from one status to another iff the current status
	// equals from, stamping the timestamps and review metadata that belong to
	// the target status.
	Transition(ctx context.Context, id int64, from, to model.ApplicationStatus, stamp *model.ReviewStamp) (bool, error)

	// SelectStaleDrafts claims drafts untouched since the cutoff for the
	// maintenance sweep.
	SelectStaleDrafts(ctx context.Context, cutoff time.Time, limit int) ([]model.Application, error)
}
