package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

// RejectReason explains why a date cannot hold a new roll-call.
type RejectReason string

const (
	ReasonInvalidDate    RejectReason = "INVALID_DATE"
	ReasonOutsideTerm    RejectReason = "OUTSIDE_TERM"
	ReasonTermNotActive  RejectReason = "TERM_NOT_ACTIVE"
	ReasonNotCurrentTerm RejectReason = "NOT_CURRENT_TERM"
	ReasonWeekend        RejectReason = "WEEKEND"
	ReasonDuplicate      RejectReason = "DUPLICATE"
)

// PlanInput is everything the eligibility rules look at. ActiveTerm is the active term of
// record resolved by the caller; nil means none could be resolved.
type PlanInput struct {
	SectionID     string
	Date          string
	Terms         []models.Term
	ActiveTerm    *models.Term
	ExistingDates map[string]struct{}
}

// PlanDecision is the outcome of EvaluateRollCallDate.
type PlanDecision struct {
	Eligible bool         `json:"eligible"`
	Date     string       `json:"date"`
	Reason   RejectReason `json:"reason,omitempty"`
	Message  string       `json:"message,omitempty"`
	Term     *models.Term `json:"term,omitempty"`
}

func reject(date string, reason RejectReason, message string) PlanDecision {
	return PlanDecision{Date: date, Reason: reason, Message: message}
}

// EvaluateRollCallDate applies the eligibility rules in order. When several terms contain
// the date only the active term of record is accepted; no other match is ever picked.
func EvaluateRollCallDate(in PlanInput) PlanDecision {
	date := in.Date
	if termcal.NormalizeDate(date) != date || date == "" {
		return reject(date, ReasonInvalidDate, "la fecha no es válida")
	}

	var matches []models.Term
	for _, term := range in.Terms {
		if termcal.ContainsDate(date, term) {
			matches = append(matches, term)
		}
	}
	if len(matches) == 0 {
		msg := "la fecha no pertenece a ningún trimestre"
		if in.ActiveTerm != nil {
			if rng := termcal.FormatRange(*in.ActiveTerm); rng != nil {
				msg = fmt.Sprintf("la fecha está fuera del trimestre activo (%s)", *rng)
			}
		}
		return reject(date, ReasonOutsideTerm, msg)
	}

	var accepted *models.Term
	anyActive := false
	for i := range matches {
		if termcal.ClassifyState(matches[i]) != models.TermStateActive {
			continue
		}
		anyActive = true
		if in.ActiveTerm != nil && matches[i].ID == in.ActiveTerm.ID {
			accepted = &matches[i]
			break
		}
	}
	if accepted == nil {
		if !anyActive {
			return reject(date, ReasonTermNotActive, fmt.Sprintf("el trimestre %s no está activo", termLabel(matches[0])))
		}
		return reject(date, ReasonNotCurrentTerm, "la fecha pertenece a un trimestre distinto del trimestre activo")
	}

	weekend, err := termcal.IsWeekend(date)
	if err != nil {
		return reject(date, ReasonInvalidDate, "la fecha no es válida")
	}
	if weekend {
		return reject(date, ReasonWeekend, "no se registran jornadas en fin de semana")
	}

	if _, taken := in.ExistingDates[date]; taken {
		return reject(date, ReasonDuplicate, "ya existe una jornada para esta sección en esa fecha")
	}

	return PlanDecision{Eligible: true, Date: date, Term: accepted}
}

func termLabel(term models.Term) string {
	if term.Number > 0 {
		return fmt.Sprint(term.Number)
	}
	return term.ID
}

// PlanState is a step of the planning session.
type PlanState string

const (
	PlanIdle       PlanState = "IDLE"
	PlanValidating PlanState = "VALIDATING"
	PlanEligible   PlanState = "ELIGIBLE"
	PlanRejected   PlanState = "REJECTED"
	PlanCreating   PlanState = "CREATING"
	PlanCreated    PlanState = "CREATED"
)

// PlanSnapshot is the observable state of a session.
type PlanSnapshot struct {
	State      PlanState    `json:"state"`
	SectionID  string       `json:"section_id"`
	Decision   PlanDecision `json:"decision"`
	RollCallID string       `json:"roll_call_id,omitempty"`
	Error      string       `json:"error,omitempty"`
}

type rollCallRepository interface {
	List(ctx context.Context, filter models.RollCallFilter) ([]models.RollCall, error)
	FindByID(ctx context.Context, id string) (*models.RollCall, error)
	Create(ctx context.Context, rc *models.RollCall) error
}

// RollCallPlan is one planning session for a section. Terms, the active term and the set
// of taken dates are loaded once when the session begins.
type RollCallPlan struct {
	mu       sync.Mutex
	repo     rollCallRepository
	metrics  *MetricsService
	logger   *zap.Logger
	input    PlanInput
	state    PlanState
	decision PlanDecision
	created  *models.RollCall
	lastErr  string
}

// NewRollCallPlan starts a session in Idle from already loaded inputs.
func NewRollCallPlan(repo rollCallRepository, input PlanInput, metrics *MetricsService, logger *zap.Logger) *RollCallPlan {
	if logger == nil {
		logger = zap.NewNop()
	}
	if input.ExistingDates == nil {
		input.ExistingDates = map[string]struct{}{}
	}
	return &RollCallPlan{repo: repo, metrics: metrics, logger: logger, input: input, state: PlanIdle}
}

// Propose validates a candidate date and moves the session to Eligible or Rejected.
// While a creation is in flight the current decision is returned unchanged.
func (p *RollCallPlan) Propose(date string) PlanDecision {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PlanCreating {
		return p.decision
	}
	p.state = PlanValidating
	p.created = nil
	p.lastErr = ""
	in := p.input
	in.Date = date
	p.decision = EvaluateRollCallDate(in)
	if p.decision.Eligible {
		p.state = PlanEligible
		p.metrics.RecordPlannerDecision("eligible")
	} else {
		p.state = PlanRejected
		p.metrics.RecordPlannerDecision(string(p.decision.Reason))
	}
	return p.decision
}

// Confirm creates the roll-call for the eligible date. The section+date is re-queried
// first; a duplicate found then, or a server-side conflict, rejects the date and marks it
// taken. Other failures return the session to Eligible without retrying.
func (p *RollCallPlan) Confirm(ctx context.Context) (*models.RollCall, error) {
	p.mu.Lock()
	if p.state != PlanEligible {
		p.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no hay una fecha elegible para confirmar")
	}
	if err := termcal.RequireWritable(*p.decision.Term); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.state = PlanCreating
	sectionID, date, termID := p.input.SectionID, p.decision.Date, p.decision.Term.ID
	p.mu.Unlock()

	// The lock is released while the requests are in flight so Snapshot can report Creating.
	existing, err := p.repo.List(ctx, models.RollCallFilter{SectionID: sectionID, Date: date})
	if err != nil {
		return nil, p.settle(func() error { return p.fail(err) })
	}
	if len(existing) > 0 {
		return nil, p.settle(func() error {
			return p.rejectDuplicate(date, "ya existe una jornada para esta sección en esa fecha")
		})
	}

	rc := &models.RollCall{SectionID: sectionID, Date: date, TermID: termID}
	if err := p.repo.Create(ctx, rc); err != nil {
		if appErrors.HasCode(err, appErrors.ErrConflict.Code) {
			return nil, p.settle(func() error { return p.rejectDuplicate(date, appErrors.FromError(err).Message) })
		}
		return nil, p.settle(func() error { return p.fail(err) })
	}

	p.mu.Lock()
	p.input.ExistingDates[date] = struct{}{}
	p.state = PlanCreated
	p.created = rc
	p.mu.Unlock()
	p.logger.Info("roll call created", zap.String("roll_call_id", rc.ID), zap.String("section_id", rc.SectionID), zap.String("date", rc.Date))
	return rc, nil
}

// settle applies a terminal transition out of Creating under the plan lock.
func (p *RollCallPlan) settle(apply func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return apply()
}

func (p *RollCallPlan) rejectDuplicate(date, message string) error {
	p.input.ExistingDates[date] = struct{}{}
	p.state = PlanRejected
	p.decision = reject(date, ReasonDuplicate, message)
	p.metrics.RecordPlannerDecision(string(ReasonDuplicate))
	return appErrors.Clone(appErrors.ErrConflict, message)
}

func (p *RollCallPlan) fail(err error) error {
	p.state = PlanEligible
	p.lastErr = appErrors.FromError(err).Message
	p.logger.Warn("roll call creation failed", zap.String("section_id", p.input.SectionID), zap.String("date", p.decision.Date), zap.Error(err))
	return passThrough(err, "failed to create roll call")
}

// Snapshot reports the current session state.
func (p *RollCallPlan) Snapshot() PlanSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := PlanSnapshot{State: p.state, SectionID: p.input.SectionID, Decision: p.decision, Error: p.lastErr}
	if p.created != nil {
		snap.RollCallID = p.created.ID
	}
	return snap
}
