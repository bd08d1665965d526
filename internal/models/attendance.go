package models

import "strings"

// AttendanceStatus is the mark recorded for a student on a roll-call.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENTE"
	AttendanceStatusAbsent  AttendanceStatus = "AUSENTE"
	AttendanceStatusLate    AttendanceStatus = "TARDANZA"
	AttendanceStatusExcused AttendanceStatus = "JUSTIFICADO"
)

// DefaultAttendanceStatuses is the closed set accepted for writes when none is configured.
var DefaultAttendanceStatuses = []AttendanceStatus{
	AttendanceStatusPresent,
	AttendanceStatusAbsent,
	AttendanceStatusLate,
	AttendanceStatusExcused,
}

// NormalizeAttendanceStatus upper-cases a raw token and joins words with underscores.
func NormalizeAttendanceStatus(raw string) AttendanceStatus {
	fields := strings.FieldsFunc(strings.ToUpper(strings.TrimSpace(raw)), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return AttendanceStatus(strings.Join(fields, "_"))
}

// AttendanceDetail is one student's mark within a roll-call. ID is empty until persisted.
type AttendanceDetail struct {
	ID           string           `db:"id" json:"id,omitempty"`
	RollCallID   string           `db:"roll_call_id" json:"roll_call_id"`
	EnrollmentID string           `db:"enrollment_id" json:"enrollment_id"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Observation  string           `db:"observation" json:"observation"`
}

// AttendanceDetailFilter narrows detail searches.
type AttendanceDetailFilter struct {
	RollCallID   string
	EnrollmentID string
}
