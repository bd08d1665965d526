package models

// TermState is the derived lifecycle state of a trimester.
type TermState string

const (
	TermStateActive   TermState = "activo"
	TermStateInactive TermState = "inactivo"
	TermStateClosed   TermState = "cerrado"
)

// Valid reports whether the state is one of the known lifecycle values.
func (s TermState) Valid() bool {
	switch s {
	case TermStateActive, TermStateInactive, TermStateClosed:
		return true
	default:
		return false
	}
}

// Term is the normalised form of a trimester record. Dates are ISO YYYY-MM-DD strings;
// an empty string means the bound is absent. DeclaredState and Closed keep the raw state
// signals so the lifecycle can be classified later.
type Term struct {
	ID            string `db:"id" json:"id"`
	PeriodID      string `db:"period_id" json:"period_id,omitempty"`
	Number        int    `db:"number" json:"number,omitempty"`
	StartDate     string `db:"start_date" json:"start_date,omitempty"`
	EndDate       string `db:"end_date" json:"end_date,omitempty"`
	DeclaredState string `db:"state" json:"declared_state,omitempty"`
	Closed        *bool  `db:"closed" json:"closed,omitempty"`
}
