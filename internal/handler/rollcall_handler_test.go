package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-rollcall-api/internal/dto"
	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

type rollCallServiceMock struct {
	decision    service.PlanDecision
	createErr   error
	findErr     error
	lastSection string
	lastDate    string
	lastActor   *models.JWTClaims
}

func (m *rollCallServiceMock) ListBySection(ctx context.Context, sectionID string, actor *models.JWTClaims) ([]models.RollCall, error) {
	m.lastSection, m.lastActor = sectionID, actor
	return []models.RollCall{{ID: "rc-1", SectionID: sectionID, Date: "2024-04-10", TermID: "2"}}, nil
}

func (m *rollCallServiceMock) Eligibility(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (service.PlanDecision, error) {
	m.lastSection, m.lastDate = sectionID, date
	return m.decision, nil
}

func (m *rollCallServiceMock) Create(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (*models.RollCall, service.PlanSnapshot, error) {
	m.lastSection, m.lastDate = sectionID, date
	if m.createErr != nil {
		return nil, service.PlanSnapshot{State: service.PlanRejected}, m.createErr
	}
	term := models.Term{ID: "2", StartDate: "2024-04-01", EndDate: "2024-06-30", DeclaredState: "activo"}
	snapshot := service.PlanSnapshot{
		State:      service.PlanCreated,
		SectionID:  sectionID,
		Decision:   service.PlanDecision{Eligible: true, Date: date, Term: &term},
		RollCallID: "rc-501",
	}
	return &models.RollCall{ID: "rc-501", SectionID: sectionID, Date: date, TermID: "2"}, snapshot, nil
}

func (m *rollCallServiceMock) FindByDate(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (*models.RollCall, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return &models.RollCall{ID: "rc-1", SectionID: sectionID, Date: date}, nil
}

func TestRollCallHandlerListPassesActor(t *testing.T) {
	svc := &rollCallServiceMock{}
	c, w := newTestContext(http.MethodGet, "/sections/12/roll-calls", "", teacher, gin.Param{Key: "sectionId", Value: "12"})

	NewRollCallHandler(svc).List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12", svc.lastSection)
	assert.Equal(t, teacher, svc.lastActor)
}

func TestRollCallHandlerEligibilityReportsRejection(t *testing.T) {
	svc := &rollCallServiceMock{decision: service.PlanDecision{
		Date:    "2024-05-18",
		Reason:  service.ReasonWeekend,
		Message: "no se puede crear una jornada en fin de semana",
	}}
	c, w := newTestContext(http.MethodGet, "/sections/12/roll-calls/eligibility?date=2024-05-18", "", teacher, gin.Param{Key: "sectionId", Value: "12"})

	NewRollCallHandler(svc).Eligibility(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05-18", svc.lastDate)
	var resp dto.EligibilityResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.False(t, resp.Eligible)
	assert.Equal(t, "WEEKEND", resp.Reason)
	assert.Equal(t, "12", resp.SectionID)
	assert.Nil(t, resp.Term)
}

func TestRollCallHandlerCreate(t *testing.T) {
	svc := &rollCallServiceMock{}
	c, w := newTestContext(http.MethodPost, "/sections/12/roll-calls", `{"date":"2024-04-10"}`, teacher, gin.Param{Key: "sectionId", Value: "12"})

	NewRollCallHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.RollCallCreated
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &created))
	assert.Equal(t, "rc-501", created.RollCall.ID)
	require.NotNil(t, created.Term)
	assert.Equal(t, "2", created.Term.ID)
}

func TestRollCallHandlerCreateDuplicate(t *testing.T) {
	svc := &rollCallServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "ya existe una jornada para esa fecha")}
	c, w := newTestContext(http.MethodPost, "/sections/12/roll-calls", `{"date":"2024-04-10"}`, teacher, gin.Param{Key: "sectionId", Value: "12"})

	NewRollCallHandler(svc).Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ya existe una jornada para esa fecha", env.Error.Message)
}

func TestRollCallHandlerFindByDateNotFound(t *testing.T) {
	svc := &rollCallServiceMock{findErr: appErrors.Clone(appErrors.ErrNotFound, "no hay jornada para esa fecha")}
	c, w := newTestContext(http.MethodGet, "/sections/12/roll-calls/by-date/2024-04-11", "", teacher,
		gin.Param{Key: "sectionId", Value: "12"}, gin.Param{Key: "date", Value: "2024-04-11"})

	NewRollCallHandler(svc).FindByDate(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
