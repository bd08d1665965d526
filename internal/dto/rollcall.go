package dto

import "github.com/noah-isme/sma-rollcall-api/internal/models"

// CreateRollCallRequest asks for a roll-call on a date of the section.
type CreateRollCallRequest struct {
	Date string `json:"date"`
}

// EligibilityResponse tells the dashboard whether a date can hold a new roll-call.
type EligibilityResponse struct {
	SectionID string        `json:"section_id"`
	Date      string        `json:"date"`
	Eligible  bool          `json:"eligible"`
	Reason    string        `json:"reason,omitempty"`
	Message   string        `json:"message,omitempty"`
	Term      *TermResponse `json:"term,omitempty"`
}

// RollCallCreated is the answer to a successful creation.
type RollCallCreated struct {
	RollCall models.RollCall `json:"roll_call"`
	Term     *TermResponse   `json:"term,omitempty"`
}
