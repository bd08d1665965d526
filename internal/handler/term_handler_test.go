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
	"github.com/noah-isme/sma-rollcall-api/internal/middleware"
	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

type termServiceMock struct {
	terms     []models.Term
	cacheHit  bool
	active    *models.Term
	activeErr error
	created   service.CreateTermRequest
	closedID  string
	reopenErr error
}

func (m *termServiceMock) ListCached(ctx context.Context) ([]models.Term, bool, error) {
	return m.terms, m.cacheHit, nil
}

func (m *termServiceMock) ResolveActive(ctx context.Context) (*models.Term, error) {
	return m.active, m.activeErr
}

func (m *termServiceMock) Create(ctx context.Context, req service.CreateTermRequest) (*models.Term, error) {
	m.created = req
	return &models.Term{ID: "t-new", Number: req.Number, StartDate: req.StartDate, EndDate: req.EndDate, DeclaredState: "inactivo"}, nil
}

func (m *termServiceMock) Close(ctx context.Context, id string) (*models.Term, error) {
	m.closedID = id
	closed := true
	return &models.Term{ID: id, StartDate: "2024-04-01", EndDate: "2024-06-30", Closed: &closed}, nil
}

func (m *termServiceMock) Reopen(ctx context.Context, id string) (*models.Term, error) {
	return nil, m.reopenErr
}

func TestTermHandlerListDerivesPresentationFields(t *testing.T) {
	svc := &termServiceMock{
		cacheHit: true,
		terms: []models.Term{
			{ID: "2", Number: 2, StartDate: "2024-04-01", EndDate: "2024-06-30", DeclaredState: "activo"},
			{ID: "3", Number: 3, StartDate: "2024-07-01"},
		},
	}
	c, w := newTestContext(http.MethodGet, "/terms", "", teacher)
	c.Set("response_meta", map[string]interface{}{})

	NewTermHandler(svc).List(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var items []dto.TermResponse
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, models.TermStateActive, items[0].State)
	assert.True(t, items[0].Writable)
	require.NotNil(t, items[0].Range)
	assert.Equal(t, "del 2024-04-01 al 2024-06-30", *items[0].Range)
	assert.Equal(t, models.TermStateInactive, items[1].State)
	assert.False(t, items[1].Writable)
	assert.Nil(t, items[1].EndDate)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, true, middleware.ExtractMeta(c)["cache_hit"])
}

func TestTermHandlerGetActiveConflict(t *testing.T) {
	svc := &termServiceMock{activeErr: appErrors.Clone(appErrors.ErrConflict, "hay más de un trimestre activo en el periodo")}
	c, w := newTestContext(http.MethodGet, "/terms/active", "", teacher)

	NewTermHandler(svc).GetActive(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "hay más de un trimestre activo en el periodo", env.Error.Message)
}

func TestTermHandlerCreate(t *testing.T) {
	svc := &termServiceMock{}
	body := `{"period_id":"p-2024","number":3,"start_date":"2024-07-01","end_date":"2024-09-30"}`
	c, w := newTestContext(http.MethodPost, "/terms", body, &models.JWTClaims{UserID: "a", Role: models.RoleAdmin})

	NewTermHandler(svc).Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, svc.created.Number)
	assert.Equal(t, "2024-07-01", svc.created.StartDate)
}

func TestTermHandlerCreateInvalidBody(t *testing.T) {
	c, w := newTestContext(http.MethodPost, "/terms", `{"number":`, nil)
	NewTermHandler(&termServiceMock{}).Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTermHandlerCloseAndReopen(t *testing.T) {
	svc := &termServiceMock{reopenErr: appErrors.Clone(appErrors.ErrConflict, "ya hay un trimestre activo")}
	handler := NewTermHandler(svc)

	c, w := newTestContext(http.MethodPost, "/terms/2/close", "", nil, gin.Param{Key: "id", Value: "2"})
	handler.Close(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", svc.closedID)
	var closed dto.TermResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &closed))
	assert.Equal(t, models.TermStateClosed, closed.State)
	assert.False(t, closed.Writable)

	c, w = newTestContext(http.MethodPost, "/terms/1/reopen", "", nil, gin.Param{Key: "id", Value: "1"})
	handler.Reopen(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
