package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

type gradeRepository interface {
	Upsert(ctx context.Context, grade *models.Grade) error
}

// RecordGradeRequest carries one grade entry.
type RecordGradeRequest struct {
	SectionID    string   `json:"section_id" validate:"required"`
	EnrollmentID string   `json:"enrollment_id" validate:"required"`
	SubjectID    string   `json:"subject_id" validate:"required"`
	TermID       string   `json:"term_id" validate:"required"`
	Score        *float64 `json:"score" validate:"required,min=0,max=20"`
	Comment      *string  `json:"comment" validate:"omitempty,max=500"`
}

// GradeService records grades, refusing writes to terms that are not active.
type GradeService struct {
	repo      gradeRepository
	terms     termReader
	roster    rosterRepository
	scope     sectionAuthorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs the grade service.
func NewGradeService(repo gradeRepository, terms termReader, roster rosterRepository, scope sectionAuthorizer, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, terms: terms, roster: roster, scope: scope, validator: validate, logger: logger}
}

// Record upserts the grade for (enrollment, subject, term).
func (s *GradeService) Record(ctx context.Context, req RecordGradeRequest, actor *models.JWTClaims) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if err := s.scope.RequireModify(ctx, actor, req.SectionID); err != nil {
		return nil, err
	}

	term, err := s.terms.Get(ctx, req.TermID)
	if err != nil {
		return nil, err
	}
	if err := termcal.RequireWritable(*term); err != nil {
		return nil, err
	}

	roster, err := s.roster.ListBySection(ctx, req.SectionID, "")
	if err != nil {
		return nil, passThrough(err, "failed to load section roster")
	}
	enrolled := false
	for _, entry := range roster {
		if entry.EnrollmentID == req.EnrollmentID {
			enrolled = true
			break
		}
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "la matrícula no pertenece a la sección")
	}

	grade := &models.Grade{
		EnrollmentID: req.EnrollmentID,
		SubjectID:    req.SubjectID,
		TermID:       req.TermID,
		Score:        *req.Score,
	}
	if req.Comment != nil {
		comment := strings.TrimSpace(*req.Comment)
		grade.Comment = &comment
	}
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, passThrough(err, "failed to record grade")
	}
	s.logger.Info("grade recorded", zap.String("enrollment_id", grade.EnrollmentID), zap.String("term_id", grade.TermID))
	return grade, nil
}
