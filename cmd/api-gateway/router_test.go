package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/internal/handler"
	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
	"github.com/noah-isme/sma-rollcall-api/pkg/config"
)

func testRouter() http.Handler {
	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1", JWT: config.JWTConfig{Secret: "secret"}}
	metrics := service.NewMetricsService()
	return newRouter(cfg, zap.NewNop(), metrics, handlers{
		terms:      handler.NewTermHandler(nil),
		rollCalls:  handler.NewRollCallHandler(nil),
		attendance: handler.NewAttendanceHandler(nil),
		grades:     handler.NewGradeHandler(nil),
		metrics:    handler.NewMetricsHandler(metrics, nil),
	})
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.JWTClaims{
		UserID:           "u-1",
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := testRouter()
	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouterGuardsAPI(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/terms", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cases := []struct {
		method string
		path   string
		role   models.UserRole
	}{
		{http.MethodPost, "/api/v1/terms", models.RoleTeacher},
		{http.MethodPost, "/api/v1/terms/2/close", models.RoleStaff},
		{http.MethodPost, "/api/v1/sections/12/roll-calls", models.RoleFamily},
		{http.MethodPut, "/api/v1/roll-calls/rc-1/attendance/e-1", models.RoleStudent},
		{http.MethodPut, "/api/v1/grades", models.RoleFamily},
		{http.MethodGet, "/api/v1/metrics/summary", models.RoleTeacher},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, tc.role))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
	}
}

func TestAttendanceStatuses(t *testing.T) {
	assert.Equal(t, models.DefaultAttendanceStatuses, attendanceStatuses(nil))
	assert.Equal(t, []models.AttendanceStatus{"PRESENTE", "MEDIO_DIA"}, attendanceStatuses([]string{"presente", "medio dia", " "}))
}
