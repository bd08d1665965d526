package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
)

// ScopeRepository resolves the sections and enrollments an actor is linked to.
type ScopeRepository struct {
	db *sqlx.DB
}

// NewScopeRepository builds the repository.
func NewScopeRepository(db *sqlx.DB) *ScopeRepository {
	return &ScopeRepository{db: db}
}

// SectionsForTeacher lists the sections assigned to a teacher.
func (r *ScopeRepository) SectionsForTeacher(ctx context.Context, teacherID string) ([]string, error) {
	var ids []string
	const query = `SELECT DISTINCT section_id FROM teacher_sections WHERE teacher_id = $1 ORDER BY section_id`
	if err := r.db.SelectContext(ctx, &ids, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher sections: %w", err)
	}
	return ids, nil
}

// EnrollmentsForGuardian lists the enrollments of a guardian's children.
func (r *ScopeRepository) EnrollmentsForGuardian(ctx context.Context, guardianID string) ([]models.RosterEntry, error) {
	query := rosterSelect + " JOIN guardians g ON g.student_id = e.student_id WHERE g.user_id = $1"
	var rows []models.RosterEntry
	if err := r.db.SelectContext(ctx, &rows, query, guardianID); err != nil {
		return nil, fmt.Errorf("list guardian enrollments: %w", err)
	}
	return rows, nil
}

// EnrollmentsForStudent lists a student's own enrollments.
func (r *ScopeRepository) EnrollmentsForStudent(ctx context.Context, studentID string) ([]models.RosterEntry, error) {
	query := rosterSelect + " WHERE e.student_id = $1"
	var rows []models.RosterEntry
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return rows, nil
}
