package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

type attendanceServiceMock struct {
	refresh    bool
	markReq    service.SetMarkRequest
	obsReq     service.SetObservationRequest
	enrollment string
	markErr    error
}

func (m *attendanceServiceMock) Sheet(ctx context.Context, rollCallID string, refresh bool, actor *models.JWTClaims) (*service.AttendanceSheet, error) {
	m.refresh = refresh
	return &service.AttendanceSheet{RollCall: models.RollCall{ID: rollCallID}, Writable: true}, nil
}

func (m *attendanceServiceMock) SetMark(ctx context.Context, rollCallID, enrollmentID string, req service.SetMarkRequest, actor *models.JWTClaims) (service.LedgerRow, error) {
	m.markReq, m.enrollment = req, enrollmentID
	if m.markErr != nil {
		return service.LedgerRow{}, m.markErr
	}
	return service.LedgerRow{EnrollmentID: enrollmentID, Status: models.AttendanceStatus(req.Status), State: service.RowClean}, nil
}

func (m *attendanceServiceMock) SetObservation(ctx context.Context, rollCallID, enrollmentID string, req service.SetObservationRequest, actor *models.JWTClaims) (service.LedgerRow, error) {
	m.obsReq, m.enrollment = req, enrollmentID
	return service.LedgerRow{EnrollmentID: enrollmentID, Observation: req.Observation}, nil
}

func TestAttendanceHandlerSheetRefresh(t *testing.T) {
	svc := &attendanceServiceMock{}
	c, w := newTestContext(http.MethodGet, "/roll-calls/rc-1/attendance?refresh=true", "", teacher, gin.Param{Key: "id", Value: "rc-1"})

	NewAttendanceHandler(svc).Sheet(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.refresh)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["refreshed"])
}

func TestAttendanceHandlerSheetRefreshSources(t *testing.T) {
	cases := []struct {
		name    string
		target  string
		header  string
		refresh bool
	}{
		{name: "default", target: "/roll-calls/rc-1/attendance"},
		{name: "query false wins over header", target: "/roll-calls/rc-1/attendance?refresh=false", header: "no-cache"},
		{name: "no-cache header", target: "/roll-calls/rc-1/attendance", header: "max-age=0, No-Cache", refresh: true},
		{name: "unparsable query", target: "/roll-calls/rc-1/attendance?refresh=maybe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &attendanceServiceMock{}
			c, w := newTestContext(http.MethodGet, tc.target, "", teacher, gin.Param{Key: "id", Value: "rc-1"})
			if tc.header != "" {
				c.Request.Header.Set("Cache-Control", tc.header)
			}

			NewAttendanceHandler(svc).Sheet(c)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.refresh, svc.refresh)
			assert.Equal(t, tc.refresh, decodeEnvelope(t, w).Meta["refreshed"])
		})
	}
}

func TestAttendanceHandlerSetMark(t *testing.T) {
	svc := &attendanceServiceMock{}
	c, w := newTestContext(http.MethodPut, "/roll-calls/rc-1/attendance/e-7", `{"status":"AUSENTE"}`, teacher,
		gin.Param{Key: "id", Value: "rc-1"}, gin.Param{Key: "enrollmentId", Value: "e-7"})

	NewAttendanceHandler(svc).SetMark(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "e-7", svc.enrollment)
	assert.Equal(t, "AUSENTE", svc.markReq.Status)
}

func TestAttendanceHandlerSetMarkTermClosed(t *testing.T) {
	svc := &attendanceServiceMock{markErr: appErrors.Clone(appErrors.ErrTermClosed, "el trimestre 1 está cerrado")}
	c, w := newTestContext(http.MethodPut, "/roll-calls/rc-1/attendance/e-7", `{"status":"PRESENTE"}`, teacher,
		gin.Param{Key: "id", Value: "rc-1"}, gin.Param{Key: "enrollmentId", Value: "e-7"})

	NewAttendanceHandler(svc).SetMark(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TERM_CLOSED", env.Error.Code)
}

func TestAttendanceHandlerSetObservation(t *testing.T) {
	svc := &attendanceServiceMock{}
	c, w := newTestContext(http.MethodPut, "/roll-calls/rc-1/attendance/e-7/observation", `{"observation":"llegó con justificativo"}`, teacher,
		gin.Param{Key: "id", Value: "rc-1"}, gin.Param{Key: "enrollmentId", Value: "e-7"})

	NewAttendanceHandler(svc).SetObservation(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "llegó con justificativo", svc.obsReq.Observation)
}

func TestAttendanceHandlerInvalidBody(t *testing.T) {
	c, w := newTestContext(http.MethodPut, "/roll-calls/rc-1/attendance/e-7", `{"status":`, teacher)
	NewAttendanceHandler(&attendanceServiceMock{}).SetMark(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
