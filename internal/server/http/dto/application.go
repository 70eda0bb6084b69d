package dto

import (
	"encoding/json"
	"time"
)

// OptionalString distinguishes an absent JSON field from an explicit null, so
// PATCH payloads can clear a column without inventing a magic value.
type OptionalString struct {
	Set   bool
	Valid bool
	Value string
}

// UnmarshalJSON records field presence; a JSON null leaves Valid false.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// CreateApplicationRequest describes the draft creation payload.
type CreateApplicationRequest struct {
	ProgramID    int64   `json:"program_id"`
	Motivation   *string `json:"motivation"`
	PortfolioURL *string `json:"portfolio_url"`
}

// UpdateDraftRequest carries a partial draft patch.
type UpdateDraftRequest struct {
	Motivation   OptionalString `json:"motivation"`
	PortfolioURL OptionalString `json:"portfolio_url"`
}

// AdvanceRequest describes a reviewer transition payload.
type AdvanceRequest struct {
	Status      string     `json:"status"`
	Notes       string     `json:"notes"`
	InterviewAt *time.Time `json:"interview_at"`
}

// ApplicationResponse describes an application as exposed over HTTP.
type ApplicationResponse struct {
	ID           int64      `json:"id"`
	Number       string     `json:"number"`
	ProgramID    int64      `json:"program_id"`
	Status       string     `json:"status"`
	Motivation   *string    `json:"motivation,omitempty"`
	PortfolioURL *string    `json:"portfolio_url,omitempty"`
	ReviewNotes  *string    `json:"review_notes,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	InterviewAt  *time.Time `json:"interview_at,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
