package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/termcal"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

const (
	msgLedgerForbidden = "no autorizado para modificar esta jornada"
	msgLedgerGeneric   = "no se pudo guardar la asistencia"
)

// RowState tags where a ledger row stands relative to the server.
type RowState string

const (
	RowClean  RowState = "CLEAN"
	RowSaving RowState = "SAVING"
	RowError  RowState = "ERROR"
)

type rowSnapshot struct {
	status      models.AttendanceStatus
	detailID    string
	observation string
}

// ledgerRow holds one student's mark. writeMu serialises mutations on the row; the fields
// themselves are guarded by the ledger's mu.
type ledgerRow struct {
	writeMu sync.Mutex

	entry       models.RosterEntry
	status      models.AttendanceStatus
	detailID    string
	observation string
	state       RowState
	snapshot    *rowSnapshot
	errMessage  string
}

// LedgerRow is the read view of a row.
type LedgerRow struct {
	EnrollmentID string                  `json:"enrollment_id"`
	StudentID    string                  `json:"student_id"`
	StudentName  string                  `json:"student_name"`
	SectionID    string                  `json:"section_id"`
	Status       models.AttendanceStatus `json:"status,omitempty"`
	StatusLabel  string                  `json:"status_label,omitempty"`
	DetailID     string                  `json:"detail_id,omitempty"`
	Observation  string                  `json:"observation"`
	State        RowState                `json:"state"`
	Error        string                  `json:"error,omitempty"`
}

type attendanceDetailRepository interface {
	List(ctx context.Context, filter models.AttendanceDetailFilter) ([]models.AttendanceDetail, error)
	Create(ctx context.Context, detail *models.AttendanceDetail) error
	Update(ctx context.Context, detail *models.AttendanceDetail) error
}

type rosterRepository interface {
	ListBySection(ctx context.Context, sectionID, asOf string) ([]models.RosterEntry, error)
}

type termReader interface {
	Get(ctx context.Context, id string) (*models.Term, error)
}

// LedgerDeps groups the collaborators a ledger talks to.
type LedgerDeps struct {
	RollCalls rollCallRepository
	Details   attendanceDetailRepository
	Roster    rosterRepository
	Terms     termReader
	Statuses  []models.AttendanceStatus
	Metrics   *MetricsService
	Logger    *zap.Logger
}

// AttendanceLedger keeps one row per enrolled student of an open roll-call and writes
// mark changes optimistically. Rows are independent; mutations on the same row run one at
// a time.
type AttendanceLedger struct {
	rollCall models.RollCall
	term     models.Term
	deps     LedgerDeps
	allowed  map[models.AttendanceStatus]struct{}

	mu    sync.RWMutex
	rows  map[string]*ledgerRow
	order []string

	// inflight is read-held by every mutation; retire write-locks it to wait them out.
	inflight sync.RWMutex
	retired  atomic.Bool
	closed   atomic.Bool
	lastUsed atomic.Int64
}

// OpenLedger loads the roll-call, then its term, roster and details concurrently and joins
// them by enrollment id. Rows without a detail start with no mark.
func OpenLedger(ctx context.Context, rollCallID string, deps LedgerDeps) (*AttendanceLedger, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	rc, err := deps.RollCalls.FindByID(ctx, rollCallID)
	if err != nil {
		return nil, passThrough(err, "failed to load roll call")
	}

	var (
		term    *models.Term
		roster  []models.RosterEntry
		details []models.AttendanceDetail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		term, err = deps.Terms.Get(gctx, rc.TermID)
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = deps.Roster.ListBySection(gctx, rc.SectionID, rc.Date)
		return err
	})
	g.Go(func() error {
		var err error
		details, err = deps.Details.List(gctx, models.AttendanceDetailFilter{RollCallID: rc.ID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, passThrough(err, "failed to open attendance ledger")
	}

	l := &AttendanceLedger{
		rollCall: *rc,
		term:     *term,
		deps:     deps,
		allowed:  statusSet(deps.Statuses),
		rows:     make(map[string]*ledgerRow, len(roster)),
		order:    make([]string, 0, len(roster)),
	}
	for _, entry := range roster {
		if _, dup := l.rows[entry.EnrollmentID]; dup {
			continue
		}
		l.rows[entry.EnrollmentID] = &ledgerRow{entry: entry, state: RowClean}
		l.order = append(l.order, entry.EnrollmentID)
	}
	for _, detail := range details {
		row, ok := l.rows[detail.EnrollmentID]
		if !ok {
			deps.Logger.Debug("attendance detail outside roster", zap.String("roll_call_id", rc.ID), zap.String("enrollment_id", detail.EnrollmentID))
			continue
		}
		if row.detailID != "" {
			continue
		}
		row.status = detail.Status
		row.detailID = detail.ID
		row.observation = detail.Observation
	}
	l.touch()
	return l, nil
}

func statusSet(statuses []models.AttendanceStatus) map[models.AttendanceStatus]struct{} {
	if len(statuses) == 0 {
		statuses = models.DefaultAttendanceStatuses
	}
	set := make(map[models.AttendanceStatus]struct{}, len(statuses))
	for _, status := range statuses {
		set[models.NormalizeAttendanceStatus(string(status))] = struct{}{}
	}
	return set
}

// RollCall returns the roll-call the ledger was opened for.
func (l *AttendanceLedger) RollCall() models.RollCall {
	return l.rollCall
}

// Term returns the owning term as loaded at open time.
func (l *AttendanceLedger) Term() models.Term {
	return l.term
}

// Rows returns every row in roster order.
func (l *AttendanceLedger) Rows() []LedgerRow {
	l.touch()
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LedgerRow, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.viewLocked(l.rows[id]))
	}
	return out
}

// RowsFor returns the rows visible within scope.
func (l *AttendanceLedger) RowsFor(scope models.Scope) []LedgerRow {
	rows := l.Rows()
	out := rows[:0]
	for _, row := range rows {
		if Visible(scope, l.rollCall.SectionID, row.EnrollmentID) {
			out = append(out, row)
		}
	}
	return out
}

// Row returns a single row.
func (l *AttendanceLedger) Row(enrollmentID string) (LedgerRow, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	row, ok := l.rows[enrollmentID]
	if !ok {
		return LedgerRow{}, false
	}
	return l.viewLocked(row), true
}

func (l *AttendanceLedger) viewLocked(row *ledgerRow) LedgerRow {
	return LedgerRow{
		EnrollmentID: row.entry.EnrollmentID,
		StudentID:    row.entry.StudentID,
		StudentName:  row.entry.StudentName,
		SectionID:    row.entry.SectionID,
		Status:       row.status,
		StatusLabel:  HumanizeStatus(row.status),
		DetailID:     row.detailID,
		Observation:  row.observation,
		State:        row.state,
		Error:        row.errMessage,
	}
}

// HumanizeStatus renders a status token for display. Unknown tokens are rendered too.
func HumanizeStatus(status models.AttendanceStatus) string {
	if status == "" {
		return ""
	}
	words := strings.ReplaceAll(strings.ToLower(string(status)), "_", " ")
	return cases.Title(language.Spanish).String(words)
}

// SetMark changes a student's status. An unchanged status is a no-op. The new status is
// visible immediately; on an unrecoverable failure the row returns to its previous status,
// detail id and observation. An update that hits a deleted detail falls back to create.
func (l *AttendanceLedger) SetMark(ctx context.Context, enrollmentID string, status models.AttendanceStatus) (LedgerRow, error) {
	status = models.NormalizeAttendanceStatus(string(status))
	if _, ok := l.allowed[status]; !ok {
		return LedgerRow{}, appErrors.Clone(appErrors.ErrValidation, "estado de asistencia no válido")
	}
	return l.mutate(ctx, enrollmentID, func(current rowSnapshot) (rowSnapshot, bool, error) {
		if current.status == status {
			return current, false, nil
		}
		next := current
		next.status = status
		return next, true, nil
	})
}

// SetObservation changes a student's observation under the same optimistic contract as
// SetMark. A row without a mark cannot carry an observation yet.
func (l *AttendanceLedger) SetObservation(ctx context.Context, enrollmentID, observation string) (LedgerRow, error) {
	observation = strings.TrimSpace(observation)
	return l.mutate(ctx, enrollmentID, func(current rowSnapshot) (rowSnapshot, bool, error) {
		if current.observation == observation {
			return current, false, nil
		}
		if current.status == "" {
			return current, false, appErrors.Clone(appErrors.ErrValidation, "registre primero la asistencia del estudiante")
		}
		next := current
		next.observation = observation
		return next, true, nil
	})
}

type rowChange func(current rowSnapshot) (next rowSnapshot, changed bool, err error)

func (l *AttendanceLedger) mutate(ctx context.Context, enrollmentID string, change rowChange) (LedgerRow, error) {
	l.touch()
	l.inflight.RLock()
	defer l.inflight.RUnlock()
	if l.Closed() {
		return LedgerRow{}, errLedgerClosed()
	}
	l.mu.RLock()
	row, ok := l.rows[enrollmentID]
	l.mu.RUnlock()
	if !ok {
		return LedgerRow{}, appErrors.Clone(appErrors.ErrNotFound, "el estudiante no pertenece a esta jornada")
	}

	row.writeMu.Lock()
	defer row.writeMu.Unlock()

	l.mu.RLock()
	prev := rowSnapshot{status: row.status, detailID: row.detailID, observation: row.observation}
	next, changed, err := change(prev)
	view := l.viewLocked(row)
	l.mu.RUnlock()
	if err != nil || !changed {
		return view, err
	}
	if err := l.requireWritable(ctx); err != nil {
		return view, err
	}

	l.mu.Lock()
	row.status, row.observation = next.status, next.observation
	row.state = RowSaving
	row.snapshot = &prev
	row.errMessage = ""
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		if row.state == RowSaving {
			row.status, row.detailID, row.observation = prev.status, prev.detailID, prev.observation
			row.state = RowClean
			row.snapshot = nil
		}
		l.mu.Unlock()
	}()

	detailID, recovered, persistErr := l.persist(ctx, row, next)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed.Load() {
		return LedgerRow{}, errLedgerClosed()
	}

	if persistErr != nil {
		row.status, row.detailID, row.observation = prev.status, prev.detailID, prev.observation
		row.state = RowError
		row.errMessage = ledgerErrorMessage(persistErr)
		l.deps.Metrics.RecordLedgerOutcome(LedgerOutcomeRolledBack)
		l.deps.Logger.Warn("attendance mutation rolled back",
			zap.String("roll_call_id", l.rollCall.ID),
			zap.String("enrollment_id", enrollmentID),
			zap.Error(persistErr))
		return l.viewLocked(row), ledgerError(persistErr, row.errMessage)
	}

	row.detailID = detailID
	row.state = RowClean
	row.snapshot = nil
	if recovered {
		l.deps.Metrics.RecordLedgerOutcome(LedgerOutcomeRecovered)
		l.deps.Logger.Info("stale attendance detail replaced",
			zap.String("roll_call_id", l.rollCall.ID),
			zap.String("enrollment_id", enrollmentID),
			zap.String("stale_detail_id", prev.detailID),
			zap.String("detail_id", detailID))
	}
	l.deps.Metrics.RecordLedgerOutcome(LedgerOutcomeCommitted)
	return l.viewLocked(row), nil
}

// requireWritable re-reads the owning term so a close applied after the ledger opened is honoured.
func (l *AttendanceLedger) requireWritable(ctx context.Context) error {
	term, err := l.deps.Terms.Get(ctx, l.rollCall.TermID)
	if err != nil {
		return err
	}
	return termcal.RequireWritable(*term)
}

// persist writes next to the backend. It updates the known detail when there is one; a
// NOT_FOUND there marks the id stale and falls through to create. A CONFLICT on create
// means the ledger missed a detail stored for the pair, which is then looked up and updated.
func (l *AttendanceLedger) persist(ctx context.Context, row *ledgerRow, next rowSnapshot) (string, bool, error) {
	detail := models.AttendanceDetail{
		ID:           next.detailID,
		RollCallID:   l.rollCall.ID,
		EnrollmentID: row.entry.EnrollmentID,
		Status:       next.status,
		Observation:  next.observation,
	}

	recovered := false
	if detail.ID != "" {
		err := l.deps.Details.Update(ctx, &detail)
		if err == nil {
			return detail.ID, false, nil
		}
		if !appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return "", false, err
		}
		l.mu.Lock()
		row.detailID = ""
		l.mu.Unlock()
		detail.ID = ""
		recovered = true
	}

	err := l.deps.Details.Create(ctx, &detail)
	if err == nil {
		return detail.ID, recovered, nil
	}
	if !appErrors.HasCode(err, appErrors.ErrConflict.Code) {
		return "", recovered, err
	}
	existingID, lookupErr := l.findDetailID(ctx, detail.EnrollmentID)
	if lookupErr != nil || existingID == "" {
		return "", recovered, err
	}
	detail.ID = existingID
	if err := l.deps.Details.Update(ctx, &detail); err != nil {
		return "", true, err
	}
	return detail.ID, true, nil
}

func (l *AttendanceLedger) findDetailID(ctx context.Context, enrollmentID string) (string, error) {
	details, err := l.deps.Details.List(ctx, models.AttendanceDetailFilter{RollCallID: l.rollCall.ID, EnrollmentID: enrollmentID})
	if err != nil {
		return "", err
	}
	for _, d := range details {
		if d.EnrollmentID == enrollmentID {
			return d.ID, nil
		}
	}
	return "", nil
}

// Close stops the ledger. Mutations settling afterwards are discarded.
func (l *AttendanceLedger) Close() {
	l.closed.Store(true)
}

// Closed reports whether the ledger stopped accepting mutations, through Close or retire.
func (l *AttendanceLedger) Closed() bool {
	return l.closed.Load() || l.retired.Load()
}

// retire refuses new mutations and blocks until those already running have settled.
func (l *AttendanceLedger) retire() {
	l.retired.Store(true)
	l.inflight.Lock()
	defer l.inflight.Unlock()
	// stay clear of the idle sweep while the replacement loads
	l.touch()
}

// resume undoes retire when the replacement ledger could not be opened.
func (l *AttendanceLedger) resume() {
	l.retired.Store(false)
}

func (l *AttendanceLedger) touch() {
	l.lastUsed.Store(time.Now().UnixNano())
}

func (l *AttendanceLedger) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, l.lastUsed.Load()))
}

func errLedgerClosed() error {
	return appErrors.Clone(appErrors.ErrPreconditionFailed, "la jornada fue cerrada, vuelva a abrirla")
}

// ledgerErrorMessage picks the user-facing text for a failed write. Permission failures
// always get their own message; other failures keep the server message when it sent one.
func ledgerErrorMessage(err error) string {
	if appErrors.HasCode(err, appErrors.ErrForbidden.Code) {
		return msgLedgerForbidden
	}
	appErr := appErrors.FromError(err)
	if appErr.Code == appErrors.ErrInternal.Code || appErrors.IsDefaultMessage(appErr) {
		return msgLedgerGeneric
	}
	return appErr.Message
}

func ledgerError(err error, message string) error {
	appErr := appErrors.FromError(err)
	out := appErrors.Clone(appErr, message)
	out.Err = err
	return out
}
