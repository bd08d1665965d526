package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
)

type gradeServiceMock struct {
	req service.RecordGradeRequest
}

func (m *gradeServiceMock) Record(ctx context.Context, req service.RecordGradeRequest, actor *models.JWTClaims) (*models.Grade, error) {
	m.req = req
	return &models.Grade{ID: "g-1", EnrollmentID: req.EnrollmentID, SubjectID: req.SubjectID, TermID: req.TermID, Score: *req.Score}, nil
}

func TestGradeHandlerRecord(t *testing.T) {
	svc := &gradeServiceMock{}
	body := `{"section_id":"12","enrollment_id":"e-1","subject_id":"mat","term_id":"2","score":17.5}`
	c, w := newTestContext(http.MethodPut, "/grades", body, teacher)

	NewGradeHandler(svc).Record(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.req.Score)
	assert.Equal(t, 17.5, *svc.req.Score)
	assert.Equal(t, "e-1", svc.req.EnrollmentID)
}
