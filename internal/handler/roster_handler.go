package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
	"github.com/noah-isme/sma-report-api/pkg/response"
)

type rosterManager interface {
	MoveStudent(ctx context.Context, studentID string, req dto.MoveStudentRequest) (*models.Student, error)
	NextStudentCode(ctx context.Context, req dto.StudentCodeRequest) (string, error)
}

// RosterHandler exposes class membership and student code endpoints.
type RosterHandler struct {
	roster rosterManager
}

// NewRosterHandler constructs handler.
func NewRosterHandler(roster rosterManager) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// MoveStudent godoc
// @Summary Move a student to another class
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.MoveStudentRequest true "Target class"
// @Success 200 {object} response.Envelope{data=models.Student}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/class [put]
func (h *RosterHandler) MoveStudent(c *gin.Context) {
	var req dto.MoveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.roster.MoveStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// NextCode godoc
// @Summary Allocate the next student code
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.StudentCodeRequest true "Department and specialty"
// @Success 201 {object} response.Envelope{data=dto.StudentCodeResponse}
// @Failure 400 {object} response.Envelope
// @Router /students/codes [post]
func (h *RosterHandler) NextCode(c *gin.Context) {
	var req dto.StudentCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	code, err := h.roster.NextStudentCode(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dto.StudentCodeResponse{Code: code}, nil)
}
