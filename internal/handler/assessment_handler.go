package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/models"
	"github.com/noah-isme/sma-report-api/internal/service"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
	"github.com/noah-isme/sma-report-api/pkg/response"
)

type assessmentRecorder interface {
	Record(ctx context.Context, req dto.UpsertAssessmentRequest) (*models.Assessment, error)
}

// AssessmentHandler exposes score entry and grade preview endpoints.
type AssessmentHandler struct {
	assessments assessmentRecorder
}

// NewAssessmentHandler constructs handler.
func NewAssessmentHandler(assessments assessmentRecorder) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// Record godoc
// @Summary Record an assessment score
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.UpsertAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope{data=models.Assessment}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Record(c *gin.Context) {
	var req dto.UpsertAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, assessment, nil)
}

// Preview godoc
// @Summary Provisional grade for a score
// @Tags Grading
// @Produce json
// @Param score query number true "Score on the 0-20 scale"
// @Param tier query string false "ORDINARY or ADVANCED" Enums(ORDINARY, ADVANCED)
// @Success 200 {object} response.Envelope{data=dto.GradePreview}
// @Failure 400 {object} response.Envelope
// @Router /grading/preview [get]
func (h *AssessmentHandler) Preview(c *gin.Context) {
	score, err := strconv.ParseFloat(c.Query("score"), 64)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "score must be a number"))
		return
	}
	preview, err := service.PreviewGrade(score, c.Query("tier"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}
