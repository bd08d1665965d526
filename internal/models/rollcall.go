package models

// RollCall ("jornada") is the attendance register of one section on one calendar date.
type RollCall struct {
	ID        string `db:"id" json:"id"`
	SectionID string `db:"section_id" json:"section_id"`
	Date      string `db:"date" json:"date"`
	TermID    string `db:"term_id" json:"term_id"`
}

// RollCallFilter narrows roll-call searches. Empty fields are ignored.
type RollCallFilter struct {
	SectionID string
	Date      string
	TermID    string
}
