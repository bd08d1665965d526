package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
)

const termColumns = "id, period_id, number, start_date, end_date, state, closed"

// TermRepository handles persistence for trimesters.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// List returns the terms of a period ordered by number. An empty periodID selects the
// active period.
func (r *TermRepository) List(ctx context.Context, periodID string) ([]models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE period_id = $1 ORDER BY number", termColumns)
	args := []interface{}{periodID}
	if periodID == "" {
		query = fmt.Sprintf("SELECT %s FROM terms WHERE period_id = (SELECT id FROM periods WHERE is_active = TRUE LIMIT 1) ORDER BY number", termColumns)
		args = nil
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var terms []models.Term
	for rows.Next() {
		record := map[string]interface{}{}
		if err := rows.MapScan(record); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, termcal.Normalize(record))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return terms, nil
}

// FindByID loads a term by identifier.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	record := map[string]interface{}{}
	if err := r.db.QueryRowxContext(ctx, query, id).MapScan(record); err != nil {
		return nil, translate(err, "trimestre no encontrado", "")
	}
	term := termcal.Normalize(record)
	return &term, nil
}

// Create inserts a new term record.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	state := termcal.ClassifyState(*term)
	const query = `INSERT INTO terms (id, period_id, number, start_date, end_date, state, closed, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, query, term.ID, term.PeriodID, term.Number, term.StartDate, term.EndDate, string(state), state == models.TermStateClosed); err != nil {
		return translate(fmt.Errorf("create term: %w", err), "", "ya existe ese trimestre en el periodo")
	}
	return nil
}

// UpdateState writes both state signals so readers of either shape agree.
func (r *TermRepository) UpdateState(ctx context.Context, id string, state models.TermState) error {
	const query = `UPDATE terms SET state = $1, closed = $2, updated_at = NOW() WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, string(state), state == models.TermStateClosed, id)
	if err != nil {
		return fmt.Errorf("update term state: %w", err)
	}
	return requireAffected(result, "trimestre no encontrado")
}
