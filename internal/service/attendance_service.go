package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

type ledgerSource interface {
	Get(ctx context.Context, rollCallID string, refresh bool) (*AttendanceLedger, error)
}

type scopeResolver interface {
	Resolve(ctx context.Context, actor *models.JWTClaims) (models.Scope, error)
}

// SetMarkRequest is the payload for marking a student.
type SetMarkRequest struct {
	Status string `json:"status" validate:"required,attendance_status"`
}

// SetObservationRequest is the payload for annotating a student's mark.
type SetObservationRequest struct {
	Observation string `json:"observation" validate:"max=500"`
}

// AttendanceSheet is a roll-call with the rows the actor may see.
type AttendanceSheet struct {
	RollCall  models.RollCall `json:"roll_call"`
	TermRange *string         `json:"term_range,omitempty"`
	Writable  bool            `json:"writable"`
	Rows      []LedgerRow     `json:"rows"`
}

// AttendanceService applies scope rules in front of the ledger registry.
type AttendanceService struct {
	ledgers   ledgerSource
	scope     scopeResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService builds the service. statuses is the closed set accepted for writes.
func NewAttendanceService(ledgers ledgerSource, scope scopeResolver, statuses []models.AttendanceStatus, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerAttendanceStatus(validate, statusSet(statuses))
	return &AttendanceService{ledgers: ledgers, scope: scope, validator: validate, logger: logger}
}

// Sheet returns the roll-call's rows filtered to the actor's scope.
func (s *AttendanceService) Sheet(ctx context.Context, rollCallID string, refresh bool, actor *models.JWTClaims) (*AttendanceSheet, error) {
	scope, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledgers.Get(ctx, rollCallID, refresh)
	if err != nil {
		return nil, err
	}
	rc := ledger.RollCall()
	if !scope.HasSection(rc.SectionID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no autorizado para ver esta jornada")
	}
	term := ledger.Term()
	return &AttendanceSheet{
		RollCall:  rc,
		TermRange: termcal.FormatRange(term),
		Writable:  scope.CanWrite() && termcal.IsWritable(term),
		Rows:      ledger.RowsFor(scope),
	}, nil
}

// SetMark records a status for one student.
func (s *AttendanceService) SetMark(ctx context.Context, rollCallID, enrollmentID string, req SetMarkRequest, actor *models.JWTClaims) (LedgerRow, error) {
	if err := s.validator.Struct(req); err != nil {
		return LedgerRow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "estado de asistencia no válido")
	}
	ledger, err := s.writableLedger(ctx, rollCallID, actor)
	if err != nil {
		return LedgerRow{}, err
	}
	return ledger.SetMark(ctx, enrollmentID, models.NormalizeAttendanceStatus(req.Status))
}

// SetObservation records an observation for one student.
func (s *AttendanceService) SetObservation(ctx context.Context, rollCallID, enrollmentID string, req SetObservationRequest, actor *models.JWTClaims) (LedgerRow, error) {
	if err := s.validator.Struct(req); err != nil {
		return LedgerRow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "observación no válida")
	}
	ledger, err := s.writableLedger(ctx, rollCallID, actor)
	if err != nil {
		return LedgerRow{}, err
	}
	return ledger.SetObservation(ctx, enrollmentID, req.Observation)
}

func (s *AttendanceService) writableLedger(ctx context.Context, rollCallID string, actor *models.JWTClaims) (*AttendanceLedger, error) {
	scope, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledgers.Get(ctx, rollCallID, false)
	if err != nil {
		return nil, err
	}
	if !scope.CanWrite() || !scope.HasSection(ledger.RollCall().SectionID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, msgLedgerForbidden)
	}
	return ledger, nil
}
