package termcal

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
)

// ResolveBounds returns the term's start and end dates; nil means unbounded on that side.
func ResolveBounds(term models.Term) (start, end *string) {
	if s := NormalizeDate(term.StartDate); s != "" {
		start = &s
	}
	if e := NormalizeDate(term.EndDate); e != "" {
		end = &e
	}
	return start, end
}

// ClassifyState derives the lifecycle state: a valid explicit state wins, then the closed
// flag, then inactivo.
func ClassifyState(term models.Term) models.TermState {
	declared := models.TermState(strings.ToLower(strings.TrimSpace(term.DeclaredState)))
	if declared.Valid() {
		return declared
	}
	if term.Closed != nil {
		if *term.Closed {
			return models.TermStateClosed
		}
		return models.TermStateActive
	}
	return models.TermStateInactive
}

// ContainsDate compares zero-padded ISO strings lexicographically; absent bounds never exclude.
func ContainsDate(date string, term models.Term) bool {
	start, end := ResolveBounds(term)
	if start != nil && date < *start {
		return false
	}
	if end != nil && date > *end {
		return false
	}
	return true
}

// FormatRange renders the bounds for display, or nil when both are absent.
func FormatRange(term models.Term) *string {
	start, end := ResolveBounds(term)
	var out string
	switch {
	case start != nil && end != nil:
		out = fmt.Sprintf("del %s al %s", *start, *end)
	case start != nil:
		out = fmt.Sprintf("desde %s", *start)
	case end != nil:
		out = fmt.Sprintf("hasta %s", *end)
	default:
		return nil
	}
	return &out
}

// IsWeekend reports whether a well-formed ISO date falls on Saturday or Sunday.
func IsWeekend(date string) (bool, error) {
	day, err := time.Parse(isoDate, date)
	if err != nil {
		return false, err
	}
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday, nil
}
