package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

const scopeCachePrefix = "scope:"

type scopeRepository interface {
	SectionsForTeacher(ctx context.Context, teacherID string) ([]string, error)
	EnrollmentsForGuardian(ctx context.Context, guardianID string) ([]models.RosterEntry, error)
	EnrollmentsForStudent(ctx context.Context, studentID string) ([]models.RosterEntry, error)
}

// ScopeService decides which sections and enrollments an actor may see or modify.
type ScopeService struct {
	repo   scopeRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewScopeService constructs the scope resolver.
func NewScopeService(repo scopeRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the actor's scope, read through the cache.
func (s *ScopeService) Resolve(ctx context.Context, actor *models.JWTClaims) (models.Scope, error) {
	if actor == nil {
		return models.Scope{}, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleStaff:
		return models.Scope{Role: actor.Role, All: true}, nil
	}

	key := scopeCachePrefix + actor.UserID
	var cached models.Scope
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached.Role == actor.Role {
		return cached, nil
	}

	scope := models.Scope{Role: actor.Role}
	switch actor.Role {
	case models.RoleTeacher:
		sections, err := s.repo.SectionsForTeacher(ctx, actor.UserID)
		if err != nil {
			return models.Scope{}, passThrough(err, "failed to resolve teacher sections")
		}
		scope.SectionIDs = sections
	case models.RoleFamily, models.RoleStudent:
		load := s.repo.EnrollmentsForGuardian
		if actor.Role == models.RoleStudent {
			load = s.repo.EnrollmentsForStudent
		}
		entries, err := load(ctx, actor.UserID)
		if err != nil {
			return models.Scope{}, passThrough(err, "failed to resolve enrollments")
		}
		seen := map[string]struct{}{}
		for _, entry := range entries {
			scope.EnrollmentIDs = append(scope.EnrollmentIDs, entry.EnrollmentID)
			if _, ok := seen[entry.SectionID]; !ok && entry.SectionID != "" {
				seen[entry.SectionID] = struct{}{}
				scope.SectionIDs = append(scope.SectionIDs, entry.SectionID)
			}
		}
	default:
		return models.Scope{}, appErrors.Clone(appErrors.ErrForbidden, "rol no reconocido")
	}

	_ = s.cache.Set(ctx, key, scope, s.ttl)
	return scope, nil
}

// CanViewSection reports whether the actor sees the section at all.
func (s *ScopeService) CanViewSection(ctx context.Context, actor *models.JWTClaims, sectionID string) (bool, error) {
	scope, err := s.Resolve(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.HasSection(sectionID), nil
}

// CanModifySection is true for staff everywhere and for teachers on their own sections.
func (s *ScopeService) CanModifySection(ctx context.Context, actor *models.JWTClaims, sectionID string) (bool, error) {
	scope, err := s.Resolve(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.CanWrite() && scope.HasSection(sectionID), nil
}

// RequireModify turns CanModifySection into a FORBIDDEN error.
func (s *ScopeService) RequireModify(ctx context.Context, actor *models.JWTClaims, sectionID string) error {
	ok, err := s.CanModifySection(ctx, actor, sectionID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "no autorizado para modificar esta sección")
	}
	return nil
}

// RequireView turns CanViewSection into a FORBIDDEN error.
func (s *ScopeService) RequireView(ctx context.Context, actor *models.JWTClaims, sectionID string) error {
	ok, err := s.CanViewSection(ctx, actor, sectionID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "no autorizado para ver esta sección")
	}
	return nil
}

// Visible reports whether an enrollment of a section is within scope. Teachers see the
// whole roster of their own sections; families and students only their enrollments.
func Visible(scope models.Scope, sectionID, enrollmentID string) bool {
	if scope.All {
		return true
	}
	if scope.Role == models.RoleTeacher && scope.HasSection(sectionID) {
		return true
	}
	return scope.HasEnrollment(enrollmentID)
}

// InvalidateScope drops the cached scope of a user.
func (s *ScopeService) InvalidateScope(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, scopeCachePrefix+userID)
}
