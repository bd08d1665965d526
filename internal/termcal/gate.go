package termcal

import (
	"fmt"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

// IsWritable is true only for active terms.
func IsWritable(term models.Term) bool {
	return ClassifyState(term) == models.TermStateActive
}

// RequireWritable turns IsWritable into an error suitable for the service boundary.
func RequireWritable(term models.Term) error {
	switch ClassifyState(term) {
	case models.TermStateActive:
		return nil
	case models.TermStateClosed:
		return appErrors.Clone(appErrors.ErrTermClosed, fmt.Sprintf("el trimestre %s está cerrado", label(term)))
	default:
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("el trimestre %s no está activo", label(term)))
	}
}

func label(term models.Term) string {
	if term.Number > 0 {
		return fmt.Sprint(term.Number)
	}
	return term.ID
}
