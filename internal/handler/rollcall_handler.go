package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-rollcall-api/internal/dto"
	"github.com/noah-isme/sma-rollcall-api/internal/middleware"
	"github.com/noah-isme/sma-rollcall-api/internal/models"
	"github.com/noah-isme/sma-rollcall-api/internal/service"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
	"github.com/noah-isme/sma-rollcall-api/pkg/response"
)

type rollCallService interface {
	ListBySection(ctx context.Context, sectionID string, actor *models.JWTClaims) ([]models.RollCall, error)
	Eligibility(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (service.PlanDecision, error)
	Create(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (*models.RollCall, service.PlanSnapshot, error)
	FindByDate(ctx context.Context, sectionID, date string, actor *models.JWTClaims) (*models.RollCall, error)
}

// RollCallHandler exposes roll-call planning endpoints.
type RollCallHandler struct {
	service rollCallService
}

// NewRollCallHandler builds a roll-call handler.
func NewRollCallHandler(svc rollCallService) *RollCallHandler {
	return &RollCallHandler{service: svc}
}

// List godoc
// @Summary List roll-calls of a section
// @Tags RollCalls
// @Produce json
// @Param sectionId path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{sectionId}/roll-calls [get]
func (h *RollCallHandler) List(c *gin.Context) {
	items, err := h.service.ListBySection(c.Request.Context(), c.Param("sectionId"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Eligibility godoc
// @Summary Check whether a date can hold a new roll-call
// @Tags RollCalls
// @Produce json
// @Param sectionId path string true "Section ID"
// @Param date query string true "ISO date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /sections/{sectionId}/roll-calls/eligibility [get]
func (h *RollCallHandler) Eligibility(c *gin.Context) {
	sectionID := c.Param("sectionId")
	decision, err := h.service.Eligibility(c.Request.Context(), sectionID, c.Query("date"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := dto.EligibilityResponse{
		SectionID: sectionID,
		Date:      decision.Date,
		Eligible:  decision.Eligible,
		Reason:    string(decision.Reason),
		Message:   decision.Message,
	}
	if decision.Term != nil {
		term := dto.NewTermResponse(*decision.Term)
		resp.Term = &term
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Create godoc
// @Summary Create a roll-call
// @Description The date must fall inside the active term, on a weekday, with no roll-call yet.
// @Tags RollCalls
// @Accept json
// @Produce json
// @Param sectionId path string true "Section ID"
// @Param payload body dto.CreateRollCallRequest true "Roll-call payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections/{sectionId}/roll-calls [post]
func (h *RollCallHandler) Create(c *gin.Context) {
	var req dto.CreateRollCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rc, snapshot, err := h.service.Create(c.Request.Context(), c.Param("sectionId"), req.Date, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	created := dto.RollCallCreated{RollCall: *rc}
	if snapshot.Decision.Term != nil {
		term := dto.NewTermResponse(*snapshot.Decision.Term)
		created.Term = &term
	}
	response.Created(c, created)
}

// FindByDate godoc
// @Summary Find the roll-call a section holds on a date
// @Tags RollCalls
// @Produce json
// @Param sectionId path string true "Section ID"
// @Param date path string true "ISO date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{sectionId}/roll-calls/by-date/{date} [get]
func (h *RollCallHandler) FindByDate(c *gin.Context) {
	rc, err := h.service.FindByDate(c.Request.Context(), c.Param("sectionId"), c.Param("date"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rc, nil)
}
