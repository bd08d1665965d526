package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
	"github.com/noah-isme/sma-rollcall-api/pkg/schoolapi"
)

type jornadaWire struct {
	ID          schoolapi.ID `json:"id"`
	SeccionID   schoolapi.ID `json:"seccionId"`
	Fecha       string       `json:"fecha"`
	TrimestreID schoolapi.ID `json:"trimestreId"`
}

func (w jornadaWire) toModel() models.RollCall {
	return models.RollCall{
		ID:        w.ID.String(),
		SectionID: w.SeccionID.String(),
		Date:      termcal.NormalizeDate(w.Fecha),
		TermID:    w.TrimestreID.String(),
	}
}

// RemoteRollCallRepository manages jornadas through the school API.
type RemoteRollCallRepository struct {
	client remoteClient
}

// NewRemoteRollCallRepository builds the repository.
func NewRemoteRollCallRepository(client remoteClient) *RemoteRollCallRepository {
	return &RemoteRollCallRepository{client: client}
}

// List searches roll-calls by section, date and term.
func (r *RemoteRollCallRepository) List(ctx context.Context, filter models.RollCallFilter) ([]models.RollCall, error) {
	var rows []jornadaWire
	query := queryOf("seccionId", filter.SectionID, "fecha", filter.Date, "trimestreId", filter.TermID)
	if err := r.client.Get(ctx, "jornadas", query, &rows); err != nil {
		return nil, err
	}
	out := make([]models.RollCall, 0, len(rows))
	for _, row := range rows {
		rc := row.toModel()
		// older API versions ignore the fecha filter
		if filter.Date != "" && rc.Date != filter.Date {
			continue
		}
		out = append(out, rc)
	}
	return out, nil
}

// FindByID loads a roll-call.
func (r *RemoteRollCallRepository) FindByID(ctx context.Context, id string) (*models.RollCall, error) {
	var row jornadaWire
	if err := r.client.Get(ctx, fmt.Sprintf("jornadas/%s", id), nil, &row); err != nil {
		return nil, err
	}
	rc := row.toModel()
	return &rc, nil
}

// Create registers a roll-call and stores the assigned identifier on rc.
func (r *RemoteRollCallRepository) Create(ctx context.Context, rc *models.RollCall) error {
	body := jornadaWire{SeccionID: schoolapi.ID(rc.SectionID), Fecha: rc.Date, TrimestreID: schoolapi.ID(rc.TermID)}
	var created jornadaWire
	if err := r.client.Post(ctx, "jornadas", body, &created); err != nil {
		return err
	}
	if created.ID == "" {
		return fmt.Errorf("create roll-call: response without id")
	}
	rc.ID = created.ID.String()
	return nil
}
