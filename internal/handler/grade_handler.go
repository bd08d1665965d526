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

type gradeService interface {
	Record(ctx context.Context, req service.RecordGradeRequest, actor *models.JWTClaims) (*models.Grade, error)
}

// GradeHandler exposes grade entry.
type GradeHandler struct {
	service gradeService
}

// NewGradeHandler builds a grade handler.
func NewGradeHandler(svc gradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Record godoc
// @Summary Record a grade
// @Description Writes are refused unless the term is active.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.RecordGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grades [put]
func (h *GradeHandler) Record(c *gin.Context) {
	var req service.RecordGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.service.Record(c.Request.Context(), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}
