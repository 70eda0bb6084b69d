package model

import "time"

// ProgramStatus describes training program lifecycle.
type ProgramStatus string

const (
	ProgramStatusDraft      ProgramStatus = "DRAFT"
	ProgramStatusOpen       ProgramStatus = "OPEN"
	ProgramStatusClosed     ProgramStatus = "CLOSED"
	ProgramStatusInProgress ProgramStatus = "IN_PROGRESS"
	ProgramStatusCompleted  ProgramStatus = "COMPLETED"
	ProgramStatusCancelled  ProgramStatus = "CANCELLED"
)

// Program is a capacity-limited training program posted by a university or employer.
// AvailableSlots is mutated exclusively through the slot allocator's conditional
// decrement/increment; FeeAmount is in minor currency units.
type Program struct {
	ID             int64
	OwnerID        int64
	Title          string
	Description    string
	TotalSlots     int
	AvailableSlots int
	FeeAmount      int64
	Currency       string
	Status         ProgramStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AcceptsApplications reports whether the program is open for new drafts.
func (p *Program) AcceptsApplications() bool {
	return p.Status == ProgramStatusOpen
}

// RequiresFee reports whether submission is gated on a completed payment.
func (p *Program) RequiresFee() bool {
	return p.FeeAmount > 0
}
