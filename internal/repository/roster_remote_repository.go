package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/pkg/schoolapi"
)

type matriculaWire struct {
	ID             schoolapi.ID `json:"id"`
	MatriculaID    schoolapi.ID `json:"matriculaId"`
	EstudianteID   schoolapi.ID `json:"estudianteId"`
	SeccionID      schoolapi.ID `json:"seccionId"`
	NombreCompleto string       `json:"nombreCompleto"`
	Nombres        string       `json:"nombres"`
	Apellidos      string       `json:"apellidos"`
}

func (w matriculaWire) toModel() models.RosterEntry {
	enrollmentID := w.MatriculaID
	if enrollmentID == "" {
		enrollmentID = w.ID
	}
	name := strings.TrimSpace(w.NombreCompleto)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(w.Apellidos) + ", " + strings.TrimSpace(w.Nombres))
		name = strings.Trim(name, ", ")
	}
	return models.RosterEntry{
		EnrollmentID: enrollmentID.String(),
		StudentID:    w.EstudianteID.String(),
		StudentName:  name,
		SectionID:    w.SeccionID.String(),
	}
}

func toRoster(rows []matriculaWire, sectionID string) []models.RosterEntry {
	out := make([]models.RosterEntry, 0, len(rows))
	for _, row := range rows {
		entry := row.toModel()
		if entry.SectionID == "" {
			entry.SectionID = sectionID
		}
		out = append(out, entry)
	}
	return out
}

// RemoteRosterRepository lists section enrollments from the school API.
type RemoteRosterRepository struct {
	client remoteClient
}

// NewRemoteRosterRepository builds the repository.
func NewRemoteRosterRepository(client remoteClient) *RemoteRosterRepository {
	return &RemoteRosterRepository{client: client}
}

// ListBySection returns students enrolled in the section as of asOf (YYYY-MM-DD, optional).
func (r *RemoteRosterRepository) ListBySection(ctx context.Context, sectionID, asOf string) ([]models.RosterEntry, error) {
	var rows []matriculaWire
	if err := r.client.Get(ctx, fmt.Sprintf("matriculas/seccion/%s", sectionID), queryOf("fecha", asOf), &rows); err != nil {
		return nil, err
	}
	return toRoster(rows, sectionID), nil
}
