package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
)

// AttendanceDetailRepository persists per-student marks. (roll_call_id, enrollment_id) is unique.
type AttendanceDetailRepository struct {
	db *sqlx.DB
}

// NewAttendanceDetailRepository builds the repository.
func NewAttendanceDetailRepository(db *sqlx.DB) *AttendanceDetailRepository {
	return &AttendanceDetailRepository{db: db}
}

// List returns details for a roll-call and/or enrollment.
func (r *AttendanceDetailRepository) List(ctx context.Context, filter models.AttendanceDetailFilter) ([]models.AttendanceDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.RollCallID != "" {
		args = append(args, filter.RollCallID)
		conditions = append(conditions, fmt.Sprintf("roll_call_id = $%d", len(args)))
	}
	if filter.EnrollmentID != "" {
		args = append(args, filter.EnrollmentID)
		conditions = append(conditions, fmt.Sprintf("enrollment_id = $%d", len(args)))
	}
	query := "SELECT id, roll_call_id, enrollment_id, status, COALESCE(observation, '') AS observation FROM attendance_details"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var rows []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance details: %w", err)
	}
	return rows, nil
}

// Create inserts a detail row.
func (r *AttendanceDetailRepository) Create(ctx context.Context, detail *models.AttendanceDetail) error {
	if detail.ID == "" {
		detail.ID = uuid.NewString()
	}
	const query = `INSERT INTO attendance_details (id, roll_call_id, enrollment_id, status, observation, created_at, updated_at) VALUES (:id, :roll_call_id, :enrollment_id, :status, :observation, NOW(), NOW())`
	if _, err := r.db.NamedExecContext(ctx, query, detail); err != nil {
		detail.ID = ""
		return translate(fmt.Errorf("create attendance detail: %w", err), "", "el estudiante ya tiene asistencia en esta jornada")
	}
	return nil
}

// Update rewrites status and observation; a missing row is NOT_FOUND.
func (r *AttendanceDetailRepository) Update(ctx context.Context, detail *models.AttendanceDetail) error {
	const query = `UPDATE attendance_details SET status = $1, observation = $2, updated_at = NOW() WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, detail.Status, detail.Observation, detail.ID)
	if err != nil {
		return fmt.Errorf("update attendance detail: %w", err)
	}
	return requireAffected(result, "detalle de asistencia no encontrado")
}
