package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

const termCachePrefix = "terms:"

type termRepository interface {
	List(ctx context.Context, periodID string) ([]models.Term, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	Create(ctx context.Context, term *models.Term) error
	UpdateState(ctx context.Context, id string, state models.TermState) error
}

// CreateTermRequest describes payload for creating trimesters.
type CreateTermRequest struct {
	PeriodID  string `json:"period_id"`
	Number    int    `json:"number" validate:"required,min=1,max=3"`
	StartDate string `json:"start_date" validate:"required,iso_date"`
	EndDate   string `json:"end_date" validate:"required,iso_date"`
	State     string `json:"state" validate:"omitempty,oneof=activo inactivo cerrado"`
}

// TermServiceConfig carries the period and active-term overrides.
type TermServiceConfig struct {
	PeriodID     string
	ActiveTermID string
	CacheTTL     time.Duration
}

// TermService lists trimesters, resolves the active term of record and applies
// administrative lifecycle transitions.
type TermService struct {
	repo      termRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TermServiceConfig
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, cache *CacheService, cfg TermServiceConfig, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerISODate(validate)
	return &TermService{repo: repo, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// List returns the terms of the configured period, read through the cache.
func (s *TermService) List(ctx context.Context) ([]models.Term, error) {
	terms, _, err := s.ListCached(ctx)
	return terms, err
}

// ListCached is List that also reports whether the result came from the cache.
func (s *TermService) ListCached(ctx context.Context) ([]models.Term, bool, error) {
	key := s.cacheKey()
	var terms []models.Term
	if hit, _ := s.cache.Get(ctx, key, &terms); hit {
		return terms, true, nil
	}

	terms, err := s.repo.List(ctx, s.cfg.PeriodID)
	if err != nil {
		return nil, false, passThrough(err, "failed to list terms")
	}
	_ = s.cache.Set(ctx, key, terms, s.cfg.CacheTTL)
	return terms, false, nil
}

// Get returns a term by ID.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, passThrough(err, "failed to load term")
	}
	return term, nil
}

// ResolveActive returns the active term of record. A configured override wins; otherwise
// exactly one term of the period must classify as activo.
func (s *TermService) ResolveActive(ctx context.Context) (*models.Term, error) {
	terms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.ActiveOf(terms)
}

// ActiveOf picks the active term of record out of an already loaded term list.
func (s *TermService) ActiveOf(terms []models.Term) (*models.Term, error) {
	return resolveActiveTerm(terms, s.cfg.ActiveTermID)
}

func resolveActiveTerm(terms []models.Term, override string) (*models.Term, error) {
	if override != "" {
		for i := range terms {
			if terms[i].ID == override {
				return &terms[i], nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("el trimestre configurado %s no existe en el periodo", override))
	}

	var active []models.Term
	for _, term := range terms {
		if termcal.ClassifyState(term) == models.TermStateActive {
			active = append(active, term)
		}
	}
	switch len(active) {
	case 0:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no hay un trimestre activo")
	case 1:
		return &active[0], nil
	default:
		return nil, appErrors.Clone(appErrors.ErrConflict, "hay más de un trimestre activo en el periodo")
	}
}

// Create registers a term after checking its bounds and ordinal.
func (s *TermService) Create(ctx context.Context, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if req.StartDate > req.EndDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must not be after end_date")
	}
	if req.PeriodID == "" {
		req.PeriodID = s.cfg.PeriodID
	}

	existing, err := s.repo.List(ctx, req.PeriodID)
	if err != nil {
		return nil, passThrough(err, "failed to check term uniqueness")
	}
	for _, term := range existing {
		if term.Number == req.Number {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("el trimestre %d ya existe en el periodo", req.Number))
		}
	}

	state := req.State
	if state == "" {
		state = string(models.TermStateInactive)
	}
	if models.TermState(state) == models.TermStateActive {
		if err := conflictIfActive(existing, ""); err != nil {
			return nil, err
		}
	}
	term := &models.Term{
		PeriodID:      req.PeriodID,
		Number:        req.Number,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DeclaredState: state,
	}
	if err := s.repo.Create(ctx, term); err != nil {
		return nil, passThrough(err, "failed to create term")
	}
	s.invalidate(ctx)
	s.logger.Info("term created", zap.String("term_id", term.ID), zap.Int("number", term.Number))
	return term, nil
}

// Close marks a term cerrado. Closing an already closed term is a no-op.
func (s *TermService) Close(ctx context.Context, id string) (*models.Term, error) {
	return s.transition(ctx, id, models.TermStateClosed)
}

// Reopen marks a term activo again. It fails when another term is already active.
func (s *TermService) Reopen(ctx context.Context, id string) (*models.Term, error) {
	terms, err := s.repo.List(ctx, s.cfg.PeriodID)
	if err != nil {
		return nil, passThrough(err, "failed to list terms")
	}
	if err := conflictIfActive(terms, id); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, models.TermStateActive)
}

// conflictIfActive fails when a term other than except already classifies as activo.
func conflictIfActive(terms []models.Term, except string) error {
	for _, term := range terms {
		if term.ID != except && termcal.ClassifyState(term) == models.TermStateActive {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("el trimestre %d ya está activo", term.Number))
		}
	}
	return nil
}

func (s *TermService) transition(ctx context.Context, id string, state models.TermState) (*models.Term, error) {
	term, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if termcal.ClassifyState(*term) == state {
		return term, nil
	}
	if err := s.repo.UpdateState(ctx, id, state); err != nil {
		return nil, passThrough(err, "failed to update term state")
	}
	s.invalidate(ctx)

	closed := state == models.TermStateClosed
	term.DeclaredState = string(state)
	term.Closed = &closed
	s.logger.Info("term state changed", zap.String("term_id", id), zap.String("state", string(state)))
	return term, nil
}

func (s *TermService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, termCachePrefix+"*")
}

func (s *TermService) cacheKey() string {
	if s.cfg.PeriodID == "" {
		return termCachePrefix + "active"
	}
	return termCachePrefix + s.cfg.PeriodID
}
