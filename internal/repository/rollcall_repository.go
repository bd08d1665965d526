package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
)

const rollCallSelect = "SELECT id, section_id, to_char(date, 'YYYY-MM-DD') AS date, term_id FROM roll_calls"

// RollCallRepository persists roll-calls. (section_id, date) carries a unique index.
type RollCallRepository struct {
	db *sqlx.DB
}

// NewRollCallRepository builds the repository.
func NewRollCallRepository(db *sqlx.DB) *RollCallRepository {
	return &RollCallRepository{db: db}
}

// List searches roll-calls; empty filter fields are ignored.
func (r *RollCallRepository) List(ctx context.Context, filter models.RollCallFilter) ([]models.RollCall, error) {
	var conditions []string
	var args []interface{}
	if filter.SectionID != "" {
		args = append(args, filter.SectionID)
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}
	if filter.TermID != "" {
		args = append(args, filter.TermID)
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)))
	}

	query := rollCallSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC"

	var rows []models.RollCall
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list roll calls: %w", err)
	}
	return rows, nil
}

// FindByID loads a roll-call.
func (r *RollCallRepository) FindByID(ctx context.Context, id string) (*models.RollCall, error) {
	var rc models.RollCall
	if err := r.db.GetContext(ctx, &rc, rollCallSelect+" WHERE id = $1", id); err != nil {
		return nil, translate(err, "jornada no encontrada", "")
	}
	return &rc, nil
}

// Create inserts a roll-call; a unique violation surfaces as CONFLICT.
func (r *RollCallRepository) Create(ctx context.Context, rc *models.RollCall) error {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
	const query = `INSERT INTO roll_calls (id, section_id, date, term_id, created_at) VALUES (:id, :section_id, :date, :term_id, NOW())`
	if _, err := r.db.NamedExecContext(ctx, query, rc); err != nil {
		rc.ID = ""
		return translate(fmt.Errorf("create roll call: %w", err), "", "ya existe una jornada para esa sección y fecha")
	}
	return nil
}
