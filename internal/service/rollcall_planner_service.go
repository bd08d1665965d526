package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

type plannerTermSource interface {
	List(ctx context.Context) ([]models.Term, error)
	ActiveOf(terms []models.Term) (*models.Term, error)
}

type sectionAuthorizer interface {
	RequireView(ctx context.Context, actor *models.JWTClaims, sectionID string) error
	RequireModify(ctx context.Context, actor *models.JWTClaims, sectionID string) error
}

// RollCallPlannerService opens planning sessions and answers roll-call lookups for a section.
type RollCallPlannerService struct {
	repo    rollCallRepository
	terms   plannerTermSource
	scope   sectionAuthorizer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRollCallPlannerService wires the planner.
func NewRollCallPlannerService(repo rollCallRepository, terms plannerTermSource, scope sectionAuthorizer, metrics *MetricsService, logger *zap.Logger) *RollCallPlannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RollCallPlannerService{repo: repo, terms: terms, scope: scope, metrics: metrics, logger: logger}
}

// Begin checks the actor may modify the section and loads the session inputs once.
func (s *RollCallPlannerService) Begin(ctx context.Context, sectionID string, actor *models.JWTClaims) (*RollCallPlan, error) {
	if err := s.scope.RequireModify(ctx, actor, sectionID); err != nil {
		return nil, err
	}

	terms, err := s.terms.List(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.terms.ActiveOf(terms)
	if err != nil {
		if !appErrors.HasCode(err, appErrors.ErrNotFound.Code) && !appErrors.HasCode(err, appErrors.ErrConflict.Code) {
			return nil, err
		}
		// without an active term of record every date is rejected
		s.logger.Warn("active term unresolved", zap.String("section_id", sectionID), zap.Error(err))
		active = nil
	}

	existing, err := s.repo.List(ctx, models.RollCallFilter{SectionID: sectionID})
	if err != nil {
		return nil, passThrough(err, "failed to list roll calls")
	}
	dates := make(map[string]struct{}, len(existing))
	for _, rc := range existing {
		dates[rc.Date] = struct{}{}
	}

	return NewRollCallPlan(s.repo, PlanInput{
		SectionID:     sectionID,
		Terms:         terms,
		ActiveTerm:    active,
		ExistingDates: dates,
	}, s.metrics, s.logger), nil
}

// Eligibility answers whether a roll-call may be created on date.
func (s *RollCallPlannerService) Eligibility(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (PlanDecision, error) {
	plan, err := s.Begin(ctx, sectionID, actor)
	if err != nil {
		return PlanDecision{}, err
	}
	return plan.Propose(date), nil
}

// Create runs a full session: propose the date, then confirm it. Rejections are returned as
// validation errors carrying the reason message.
func (s *RollCallPlannerService) Create(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (*models.RollCall, PlanSnapshot, error) {
	plan, err := s.Begin(ctx, sectionID, actor)
	if err != nil {
		return nil, PlanSnapshot{}, err
	}
	decision := plan.Propose(date)
	if !decision.Eligible {
		return nil, plan.Snapshot(), rejectionError(decision)
	}
	rc, err := plan.Confirm(ctx)
	return rc, plan.Snapshot(), err
}

func rejectionError(decision PlanDecision) error {
	if decision.Reason == ReasonDuplicate {
		return appErrors.Clone(appErrors.ErrConflict, decision.Message)
	}
	return appErrors.Clone(appErrors.ErrValidation, decision.Message)
}

// ListBySection returns the section's roll-calls visible to the actor.
func (s *RollCallPlannerService) ListBySection(ctx context.Context, sectionID string, actor *models.JWTClaims) ([]models.RollCall, error) {
	if err := s.scope.RequireView(ctx, actor, sectionID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, models.RollCallFilter{SectionID: sectionID})
	if err != nil {
		return nil, passThrough(err, "failed to list roll calls")
	}
	return rows, nil
}

// FindByDate resolves the roll-call a section holds on date.
func (s *RollCallPlannerService) FindByDate(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (*models.RollCall, error) {
	if termcal.NormalizeDate(date) != date || date == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "la fecha no es válida")
	}
	if err := s.scope.RequireView(ctx, actor, sectionID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, models.RollCallFilter{SectionID: sectionID, Date: date})
	if err != nil {
		return nil, passThrough(err, "failed to find roll call")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no hay jornada para esa fecha")
	}
	return &rows[0], nil
}
