package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
)

// TermStore persists trimesters.
type TermStore interface {
	List(ctx context.Context, periodID string) ([]models.Term, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	Create(ctx context.Context, term *models.Term) error
	UpdateState(ctx context.Context, id string, state models.TermState) error
}

// RollCallStore persists roll-calls.
type RollCallStore interface {
	List(ctx context.Context, filter models.RollCallFilter) ([]models.RollCall, error)
	FindByID(ctx context.Context, id string) (*models.RollCall, error)
	Create(ctx context.Context, rc *models.RollCall) error
}

// AttendanceDetailStore persists per-student marks.
type AttendanceDetailStore interface {
	List(ctx context.Context, filter models.AttendanceDetailFilter) ([]models.AttendanceDetail, error)
	Create(ctx context.Context, detail *models.AttendanceDetail) error
	Update(ctx context.Context, detail *models.AttendanceDetail) error
}

// RosterStore reads section rosters.
type RosterStore interface {
	ListBySection(ctx context.Context, sectionID, asOf string) ([]models.RosterEntry, error)
}

// GradeStore persists grades.
type GradeStore interface {
	Upsert(ctx context.Context, grade *models.Grade) error
}

// ScopeStore answers which sections and enrollments belong to a user.
type ScopeStore interface {
	SectionsForTeacher(ctx context.Context, teacherID string) ([]string, error)
	EnrollmentsForGuardian(ctx context.Context, guardianID string) ([]models.RosterEntry, error)
	EnrollmentsForStudent(ctx context.Context, studentID string) ([]models.RosterEntry, error)
}

// Backend bundles the stores of one system of record.
type Backend struct {
	Terms     TermStore
	RollCalls RollCallStore
	Details   AttendanceDetailStore
	Roster    RosterStore
	Grades    GradeStore
	Scope     ScopeStore
}

// NewRemoteBackend talks to the school REST API.
func NewRemoteBackend(client remoteClient) Backend {
	return Backend{
		Terms:     NewRemoteTermRepository(client),
		RollCalls: NewRemoteRollCallRepository(client),
		Details:   NewRemoteAttendanceDetailRepository(client),
		Roster:    NewRemoteRosterRepository(client),
		Grades:    NewRemoteGradeRepository(client),
		Scope:     NewRemoteScopeRepository(client),
	}
}

// NewPostgresBackend reads and writes the school tables directly.
func NewPostgresBackend(db *sqlx.DB) Backend {
	return Backend{
		Terms:     NewTermRepository(db),
		RollCalls: NewRollCallRepository(db),
		Details:   NewAttendanceDetailRepository(db),
		Roster:    NewRosterRepository(db),
		Grades:    NewGradeRepository(db),
		Scope:     NewScopeRepository(db),
	}
}
