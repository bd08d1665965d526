package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
)

// GradeRepository persists grades keyed by (enrollment, subject, term).
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Upsert inserts or updates a grade and returns the stored identifier on grade.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	const query = `INSERT INTO grades (id, enrollment_id, subject_id, term_id, score, comment, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        ON CONFLICT (enrollment_id, subject_id, term_id)
        DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = NOW()
        RETURNING id`
	var id string
	if err := r.db.QueryRowxContext(ctx, query, grade.ID, grade.EnrollmentID, grade.SubjectID, grade.TermID, grade.Score, grade.Comment).Scan(&id); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	grade.ID = id
	return nil
}
