package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-rollcall-api/internal/middleware"
	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
	"github.com/noah-isme/sma-rollcall-api/pkg/response"
)

type attendanceService interface {
	Sheet(ctx context.Context, rollCallID string, refresh bool, actor *models.JWTClaims) (*service.AttendanceSheet, error)
	SetMark(ctx context.Context, rollCallID, enrollmentID string, req service.SetMarkRequest, actor *models.JWTClaims) (service.LedgerRow, error)
	SetObservation(ctx context.Context, rollCallID, enrollmentID string, req service.SetObservationRequest, actor *models.JWTClaims) (service.LedgerRow, error)
}

// AttendanceHandler exposes the attendance sheet of a roll-call.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler builds an attendance handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Sheet godoc
// @Summary Get the attendance sheet of a roll-call
// @Tags Attendance
// @Produce json
// @Param id path string true "Roll-call ID"
// @Param refresh query bool false "Reload from the system of record"
// @Param Cache-Control header string false "no-cache also forces a reload"
// @Success 200 {object} response.Envelope
// @Router /roll-calls/{id}/attendance [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	refresh := wantsRefresh(c)
	sheet, err := h.service.Sheet(c.Request.Context(), c.Param("id"), refresh, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetRefreshed(c, refresh)
	response.JSON(c, http.StatusOK, sheet, nil, middleware.ExtractMeta(c))
}

// SetMark godoc
// @Summary Record a student's attendance mark
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Roll-call ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Param payload body service.SetMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /roll-calls/{id}/attendance/{enrollmentId} [put]
func (h *AttendanceHandler) SetMark(c *gin.Context) {
	var req service.SetMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.service.SetMark(c.Request.Context(), c.Param("id"), c.Param("enrollmentId"), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// SetObservation godoc
// @Summary Record a student's observation
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Roll-call ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Param payload body service.SetObservationRequest true "Observation payload"
// @Success 200 {object} response.Envelope
// @Router /roll-calls/{id}/attendance/{enrollmentId}/observation [put]
func (h *AttendanceHandler) SetObservation(c *gin.Context) {
	var req service.SetObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.service.SetObservation(c.Request.Context(), c.Param("id"), c.Param("enrollmentId"), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}
