package model

import "time"

// ApplicationStatus describes application lifecycle.
type ApplicationStatus string

const (
	ApplicationStatusDraft              ApplicationStatus = "DRAFT"
	ApplicationStatusSubmitted          ApplicationStatus = "SUBMITTED"
	ApplicationStatusUnderReview        ApplicationStatus = "UNDER_REVIEW"
	ApplicationStatusShortlisted        ApplicationStatus = "SHORTLISTED"
	ApplicationStatusInterviewScheduled ApplicationStatus = "INTERVIEW_SCHEDULED"
	ApplicationStatusAccepted           ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected           ApplicationStatus = "REJECTED"
	ApplicationStatusEnrolled           ApplicationStatus = "ENROLLED"
	ApplicationStatusCancelled          ApplicationStatus = "CANCELLED"
)

// Application is a student's claim on one slot of a program. The row itself
// carries the slot reservation: a non-cancelled application owns one unit of
// program capacity from creation onward.
type Application struct {
	ID           int64
	Number       string
	StudentID    int64
	ProgramID    int64
	Status       ApplicationStatus
	Motivation   *string
	PortfolioURL *string
	ReviewNotes  *string
	ReviewerID   *int64
	SubmittedAt  *time.Time
	ReviewedAt   *time.Time
	InterviewAt  *time.Time
	DecidedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReviewStamp carries reviewer identity and metadata recorded on a transition.
type ReviewStamp struct {
	ReviewerID  int64
	Notes       string
	InterviewAt *time.Time
}
