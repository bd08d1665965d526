package dto

import (
	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
)

// TermResponse is a term as the dashboards render it.
type TermResponse struct {
	ID        string           `json:"id"`
	PeriodID  string           `json:"period_id,omitempty"`
	Number    int              `json:"number,omitempty"`
	StartDate *string          `json:"start_date"`
	EndDate   *string          `json:"end_date"`
	State     models.TermState `json:"state"`
	Range     *string          `json:"range"`
	Writable  bool             `json:"writable"`
}

// NewTermResponse derives the presentation fields of a normalised term.
func NewTermResponse(term models.Term) TermResponse {
	start, end := termcal.ResolveBounds(term)
	return TermResponse{
		ID:        term.ID,
		PeriodID:  term.PeriodID,
		Number:    term.Number,
		StartDate: start,
		EndDate:   end,
		State:     termcal.ClassifyState(term),
		Range:     termcal.FormatRange(term),
		Writable:  termcal.IsWritable(term),
	}
}

// NewTermResponses maps a term list.
func NewTermResponses(terms []models.Term) []TermResponse {
	items := make([]TermResponse, 0, len(terms))
	for _, term := range terms {
		items = append(items, NewTermResponse(term))
	}
	return items
}
