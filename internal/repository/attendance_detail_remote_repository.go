package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/pkg/schoolapi"
)

type detalleWire struct {
	ID          schoolapi.ID `json:"id,omitempty"`
	JornadaID   schoolapi.ID `json:"jornadaId,omitempty"`
	MatriculaID schoolapi.ID `json:"matriculaId,omitempty"`
	Estado      string       `json:"estado"`
	Observacion string       `json:"observacion"`
}

func (w detalleWire) toModel() models.AttendanceDetail {
	return models.AttendanceDetail{
		ID:           w.ID.String(),
		RollCallID:   w.JornadaID.String(),
		EnrollmentID: w.MatriculaID.String(),
		Status:       models.NormalizeAttendanceStatus(w.Estado),
		Observation:  w.Observacion,
	}
}

// RemoteAttendanceDetailRepository manages asistencia-detalles through the school API.
type RemoteAttendanceDetailRepository struct {
	client remoteClient
}

// NewRemoteAttendanceDetailRepository builds the repository.
func NewRemoteAttendanceDetailRepository(client remoteClient) *RemoteAttendanceDetailRepository {
	return &RemoteAttendanceDetailRepository{client: client}
}

// List searches details by roll-call or enrollment.
func (r *RemoteAttendanceDetailRepository) List(ctx context.Context, filter models.AttendanceDetailFilter) ([]models.AttendanceDetail, error) {
	var rows []detalleWire
	query := queryOf("jornadaId", filter.RollCallID, "matriculaId", filter.EnrollmentID)
	if err := r.client.Get(ctx, "asistencia-detalles", query, &rows); err != nil {
		return nil, err
	}
	out := make([]models.AttendanceDetail, 0, len(rows))
	for _, row := range rows {
		detail := row.toModel()
		if detail.RollCallID == "" {
			detail.RollCallID = filter.RollCallID
		}
		out = append(out, detail)
	}
	return out, nil
}

// Create inserts a detail and stores the assigned identifier.
func (r *RemoteAttendanceDetailRepository) Create(ctx context.Context, detail *models.AttendanceDetail) error {
	body := detalleWire{
		JornadaID:   schoolapi.ID(detail.RollCallID),
		MatriculaID: schoolapi.ID(detail.EnrollmentID),
		Estado:      string(detail.Status),
		Observacion: detail.Observation,
	}
	var created detalleWire
	if err := r.client.Post(ctx, "asistencia-detalles", body, &created); err != nil {
		return err
	}
	if created.ID == "" {
		return fmt.Errorf("create attendance detail: response without id")
	}
	detail.ID = created.ID.String()
	return nil
}

// Update rewrites status and observation. A deleted row surfaces as NOT_FOUND.
func (r *RemoteAttendanceDetailRepository) Update(ctx context.Context, detail *models.AttendanceDetail) error {
	body := detalleWire{Estado: string(detail.Status), Observacion: detail.Observation}
	return r.client.Put(ctx, fmt.Sprintf("asistencia-detalles/%s", detail.ID), body, nil)
}
