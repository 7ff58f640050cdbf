package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/grading"
	"github.com/noah-isme/sma-report-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
)

type assessmentWriter interface {
	Upsert(ctx context.Context, assessment *models.Assessment) error
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// AssessmentService validates and records scores.
type AssessmentService struct {
	repo      assessmentWriter
	students  studentFinder
	subjects  subjectFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentService constructs the assessment service. cache may be nil.
func NewAssessmentService(repo assessmentWriter, students studentFinder, subjects subjectFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{repo: repo, students: students, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// Record stores a score after validating it and drops the shared cache entry
// of the affected (student, term).
func (s *AssessmentService) Record(ctx context.Context, req dto.UpsertAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if err := grading.ValidateTerm(req.Term); err != nil {
		return nil, err
	}
	if _, err := models.AssessmentSlot(req.Term, req.Number); err != nil {
		return nil, err
	}
	if err := grading.ValidateScore(*req.Score); err != nil {
		return nil, err
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	assessment := &models.Assessment{
		StudentID:    req.StudentID,
		SubjectID:    req.SubjectID,
		Term:         req.Term,
		Number:       req.Number,
		Score:        *req.Score,
		AcademicYear: strings.TrimSpace(req.AcademicYear),
	}
	if err := s.repo.Upsert(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assessment")
	}

	if err := s.cache.Delete(ctx, AssessmentsCacheKey(req.StudentID, req.Term)); err != nil {
		s.logger.Error("assessment saved but cache invalidation failed",
			zap.String("student_id", req.StudentID), zap.Int("term", req.Term), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "assessment saved but cached reports could not be invalidated")
	}

	s.logger.Info("assessment recorded",
		zap.String("student_id", assessment.StudentID),
		zap.String("subject_id", assessment.SubjectID),
		zap.Int("term", assessment.Term),
		zap.Int("number", assessment.Number))
	return assessment, nil
}

// PreviewGrade returns the provisional grade of a single score, as shown on
// entry forms before anything is saved.
func PreviewGrade(score float64, tier string) (*dto.GradePreview, error) {
	if err := grading.ValidateScore(score); err != nil {
		return nil, err
	}
	t := grading.Tier(strings.ToUpper(strings.TrimSpace(tier)))
	if t == "" {
		t = grading.TierOrdinary
	}
	if !t.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown tier %q", tier))
	}
	grade := grading.LetterGrade(&score, t)
	return &dto.GradePreview{
		Score:   score,
		Tier:    t,
		Grade:   grade,
		Passed:  grading.IsPassing(grade, t),
		Status:  grading.PerformanceStatus(&score),
		Remarks: grading.Remarks(&score),
	}, nil
}
