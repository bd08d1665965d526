package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/pkg/schoolapi"
)

type seccionWire struct {
	ID        schoolapi.ID `json:"id"`
	SeccionID schoolapi.ID `json:"seccionId"`
}

// RemoteScopeRepository answers "what may this actor see" questions from the school API.
type RemoteScopeRepository struct {
	client remoteClient
}

// NewRemoteScopeRepository builds the repository.
func NewRemoteScopeRepository(client remoteClient) *RemoteScopeRepository {
	return &RemoteScopeRepository{client: client}
}

// SectionsForTeacher lists the sections a teacher is assigned to.
func (r *RemoteScopeRepository) SectionsForTeacher(ctx context.Context, teacherID string) ([]string, error) {
	var rows []seccionWire
	if err := r.client.Get(ctx, fmt.Sprintf("docentes/%s/secciones", teacherID), nil, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id := row.SeccionID
		if id == "" {
			id = row.ID
		}
		if id != "" {
			ids = append(ids, id.String())
		}
	}
	return ids, nil
}

// EnrollmentsForGuardian lists the enrollments of a family member's children.
func (r *RemoteScopeRepository) EnrollmentsForGuardian(ctx context.Context, guardianID string) ([]models.RosterEntry, error) {
	var rows []matriculaWire
	if err := r.client.Get(ctx, fmt.Sprintf("familias/%s/matriculas", guardianID), nil, &rows); err != nil {
		return nil, err
	}
	return toRoster(rows, ""), nil
}

// EnrollmentsForStudent lists a student's own enrollments.
func (r *RemoteScopeRepository) EnrollmentsForStudent(ctx context.Context, studentID string) ([]models.RosterEntry, error) {
	var rows []matriculaWire
	if err := r.client.Get(ctx, fmt.Sprintf("estudiantes/%s/matriculas", studentID), nil, &rows); err != nil {
		return nil, err
	}
	return toRoster(rows, ""), nil
}
