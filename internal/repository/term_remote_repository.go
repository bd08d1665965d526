package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
	"github.com/noah-isme/sma-rollcall-api/pkg/schoolapi"
)

// RemoteTermRepository reads trimesters from the school API. Payload shapes vary between
// API versions, so every record goes through termcal.Normalize.
type RemoteTermRepository struct {
	client remoteClient
}

// NewRemoteTermRepository builds the repository.
func NewRemoteTermRepository(client remoteClient) *RemoteTermRepository {
	return &RemoteTermRepository{client: client}
}

// List returns the terms of a period; an empty periodID lets the API pick the active period.
func (r *RemoteTermRepository) List(ctx context.Context, periodID string) ([]models.Term, error) {
	var raw []map[string]interface{}
	if err := r.client.Get(ctx, "trimestres", queryOf("periodoId", periodID), &raw); err != nil {
		return nil, err
	}
	terms := make([]models.Term, 0, len(raw))
	for _, record := range raw {
		terms = append(terms, termcal.Normalize(record))
	}
	return terms, nil
}

// FindByID loads a single term.
func (r *RemoteTermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	var raw map[string]interface{}
	if err := r.client.Get(ctx, fmt.Sprintf("trimestres/%s", id), nil, &raw); err != nil {
		return nil, err
	}
	term := termcal.Normalize(raw)
	return &term, nil
}

// Create registers a term and copies back the server-assigned fields.
func (r *RemoteTermRepository) Create(ctx context.Context, term *models.Term) error {
	body := map[string]interface{}{
		"periodoId":   schoolapi.ID(term.PeriodID),
		"numero":      term.Number,
		"fechaInicio": term.StartDate,
		"fechaFin":    term.EndDate,
		"estado":      string(termcal.ClassifyState(*term)),
	}
	var raw map[string]interface{}
	if err := r.client.Post(ctx, "trimestres", body, &raw); err != nil {
		return err
	}
	created := termcal.Normalize(raw)
	if created.ID == "" {
		return fmt.Errorf("create term: response without id")
	}
	term.ID = created.ID
	if created.DeclaredState != "" || created.Closed != nil {
		term.DeclaredState, term.Closed = created.DeclaredState, created.Closed
	}
	return nil
}

// UpdateState applies an administrative lifecycle transition.
func (r *RemoteTermRepository) UpdateState(ctx context.Context, id string, state models.TermState) error {
	body := map[string]interface{}{
		"estado":  string(state),
		"cerrado": state == models.TermStateClosed,
	}
	return r.client.Patch(ctx, fmt.Sprintf("trimestres/%s", id), body, nil)
}
