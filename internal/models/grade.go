package models

// Grade is a score recorded for an enrollment in a subject during a term.
type Grade struct {
	ID           string  `db:"id" json:"id,omitempty"`
	EnrollmentID string  `db:"enrollment_id" json:"enrollment_id"`
	SubjectID    string  `db:"subject_id" json:"subject_id"`
	TermID       string  `db:"term_id" json:"term_id"`
	Score        float64 `db:"score" json:"score"`
	Comment      *string `db:"comment" json:"comment,omitempty"`
}
