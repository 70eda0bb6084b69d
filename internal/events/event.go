package events

import "github.com/Feel-The-AGI/workstream-server/internal/domain/model"

// Event is an outbound signal for the messaging collaborator. Payloads carry
// identifiers and statuses only; consumers look up anything else themselves.
type Event interface {
	Name() string
}

// ApplicationSubmitted fires once when an application reaches SUBMITTED.
type ApplicationSubmitted struct {
	ApplicationID int64
	StudentID     int64
	ProgramID     int64
}

func (ApplicationSubmitted) Name() string { return "application.submitted" }

// ApplicationStatusChanged fires on every review transition.
type ApplicationStatusChanged struct {
	ApplicationID int64
	StudentID     int64
	ProgramID     int64
	From          model.ApplicationStatus
	To            model.ApplicationStatus
}

func (ApplicationStatusChanged) Name() string { return "application.status_changed" }

// PaymentCompleted fires on the PENDING to COMPLETED edge only, at most once
// per payment.
type PaymentCompleted struct {
	PaymentID     int64
	ApplicationID int64
	StudentID     int64
	Amount        int64
	Currency      string
}

func (PaymentCompleted) Name() string { return "payment.completed" }
