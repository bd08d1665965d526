package repository

import (
	"context"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/pkg/schoolapi"
)

type calificacionWire struct {
	ID          schoolapi.ID `json:"id,omitempty"`
	MatriculaID schoolapi.ID `json:"matriculaId"`
	CursoID     schoolapi.ID `json:"cursoId"`
	TrimestreID schoolapi.ID `json:"trimestreId"`
	Nota        float64      `json:"nota"`
	Comentario  *string      `json:"comentario,omitempty"`
}

// RemoteGradeRepository records grades through the school API.
type RemoteGradeRepository struct {
	client remoteClient
}

// NewRemoteGradeRepository builds the repository.
func NewRemoteGradeRepository(client remoteClient) *RemoteGradeRepository {
	return &RemoteGradeRepository{client: client}
}

// Upsert creates or replaces the grade for (enrollment, subject, term).
func (r *RemoteGradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	body := calificacionWire{
		MatriculaID: schoolapi.ID(grade.EnrollmentID),
		CursoID:     schoolapi.ID(grade.SubjectID),
		TrimestreID: schoolapi.ID(grade.TermID),
		Nota:        grade.Score,
		Comentario:  grade.Comment,
	}
	var stored calificacionWire
	if err := r.client.Put(ctx, "calificaciones", body, &stored); err != nil {
		return err
	}
	if stored.ID != "" {
		grade.ID = stored.ID.String()
	}
	return nil
}
