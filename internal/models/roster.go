package models

// RosterEntry is a student enrolled in a section.
type RosterEntry struct {
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	StudentID    string `db:"student_id" json:"student_id"`
	StudentName  string `db:"student_name" json:"student_name"`
	SectionID    string `db:"section_id" json:"section_id"`
}
