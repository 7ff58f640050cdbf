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
	"github.com/noah-isme/sma-report-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
)

type rosterStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdateClass(ctx context.Context, id, classID string) error
}

type sequenceAllocator interface {
	Next(ctx context.Context, sequence string) (int64, error)
}

var specialtyCodes = map[string]string{
	"ACCOUNTANCY": "ACC",
	"MARKETING":   "MKT",
	"SAC(SECRETARIAL ADMINISTRATION AND COMMUNICATION)": "SAC",
	"EPS(ELECTRICAL POWER SYSTEM)":                      "EPS",
	"BC(BUILDING AND CONSTRUCTION)":                     "BC",
	"CI(CLOTHING INDUSTRY)":                             "CI",
}

// RosterService moves students between classes and allocates student codes.
type RosterService struct {
	students     rosterStore
	classes      classReader
	sequences    sequenceAllocator
	sequenceName string
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewRosterService constructs the roster service. cache may be nil.
func NewRosterService(students rosterStore, classes classReader, sequences sequenceAllocator, sequenceName string, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sequenceName == "" {
		sequenceName = "student_code_seq"
	}
	return &RosterService{
		students:     students,
		classes:      classes,
		sequences:    sequences,
		sequenceName: sequenceName,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// MoveStudent assigns a student to another class and drops the cached rosters
// of both classes.
func (s *RosterService) MoveStudent(ctx context.Context, studentID string, req dto.MoveStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class assignment payload")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if student.ClassID == req.ClassID {
		return student, nil
	}

	previous := student.ClassID
	if err := s.students.UpdateClass(ctx, studentID, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move student")
	}
	if err := s.cache.Delete(ctx, RosterCacheKey(previous), RosterCacheKey(req.ClassID)); err != nil {
		s.logger.Error("student moved but roster invalidation failed",
			zap.String("student_id", studentID), zap.String("from", previous), zap.String("to", req.ClassID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "student moved but cached rosters could not be invalidated")
	}

	s.logger.Info("student moved", zap.String("student_id", studentID), zap.String("from", previous), zap.String("to", req.ClassID))
	student.ClassID = req.ClassID
	return student, nil
}

// NextStudentCode allocates a code such as STUSCIS10042 from a database sequence.
func (s *RosterService) NextStudentCode(ctx context.Context, req dto.StudentCodeRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student code payload")
	}
	seq, err := s.sequences.Next(ctx, s.sequenceName)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate student code")
	}
	return fmt.Sprintf("STU%s%s%04d", strings.ToUpper(req.DepartmentCode), SpecialtyCode(req.Specialty), seq), nil
}

// SpecialtyCode abbreviates a specialty for student codes. Short codes such
// as S1 or A2 are kept; anything unknown becomes GEN.
func SpecialtyCode(specialty string) string {
	normalized := strings.ToUpper(strings.TrimSpace(specialty))
	if normalized == "" {
		return "GEN"
	}
	if len(normalized) == 2 && (normalized[0] == 'S' || normalized[0] == 'A') {
		return normalized
	}
	if code, ok := specialtyCodes[normalized]; ok {
		return code
	}
	return "GEN"
}
