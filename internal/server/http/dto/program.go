package dto

import "time"

// CreateProgramRequest describes the program creation payload.
type CreateProgramRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TotalSlots  int    `json:"total_slots"`
	FeeAmount   int64  `json:"fee_amount"`
	Currency    string `json:"currency"`
}

// ProgramResponse describes a program as exposed over HTTP. FeeAmount is in
// minor currency units.
type ProgramResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	TotalSlots     int       `json:"total_slots"`
	AvailableSlots int       `json:"available_slots"`
	FeeAmount      int64     `json:"fee_amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}
