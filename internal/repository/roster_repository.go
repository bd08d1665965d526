package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
)

const rosterSelect = `SELECT e.id AS enrollment_id, e.student_id, e.section_id,
        TRIM(BOTH ', ' FROM COALESCE(s.last_name, '') || ', ' || COALESCE(s.first_name, '')) AS student_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id`

// RosterRepository reads section enrollments.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository builds the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListBySection returns the students enrolled in the section. When asOf is set only
// enrollments open on that date are returned.
func (r *RosterRepository) ListBySection(ctx context.Context, sectionID, asOf string) ([]models.RosterEntry, error) {
	query := rosterSelect + " WHERE e.section_id = $1"
	args := []interface{}{sectionID}
	if asOf != "" {
		query += " AND e.joined_at <= $2 AND (e.left_at IS NULL OR e.left_at >= $2)"
		args = append(args, asOf)
	}
	query += " ORDER BY student_name"

	var rows []models.RosterEntry
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return rows, nil
}
