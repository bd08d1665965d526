package service

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

const isoDate = "2006-01-02"

func registerISODate(v *validator.Validate) {
	_ = v.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(isoDate, fl.Field().String())
		return err == nil
	})
}

func registerAttendanceStatus(v *validator.Validate, allowed map[models.AttendanceStatus]struct{}) {
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		_, ok := allowed[models.NormalizeAttendanceStatus(fl.Field().String())]
		return ok
	})
}

// passThrough keeps typed errors from the backends intact and wraps anything else as internal.
func passThrough(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
