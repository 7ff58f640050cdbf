package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/grading"
	"github.com/noah-isme/sma-report-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
	"github.com/noah-isme/sma-report-api/pkg/logger"
)

// Report kinds used in logs and metrics.
const (
	ReportKindTerm        = "term"
	ReportKindClassTerm   = "class_term"
	ReportKindYearly      = "yearly"
	ReportKindClassYearly = "class_yearly"
)

var terms = [...]int{1, 2, 3}

// ReportOptions tunes batch execution.
type ReportOptions struct {
	Workers   int
	Timeout   time.Duration
	SharedTTL time.Duration
}

// ReportService aggregates assessments into term and yearly reports.
type ReportService struct {
	students    studentReader
	classes     classReader
	subjects    subjectReader
	assessments assessmentReader
	shared      *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	opts        ReportOptions
}

// NewReportService constructs the report aggregator. shared and metrics may be nil.
func NewReportService(students studentReader, classes classReader, subjects subjectReader, assessments assessmentReader, shared *CacheService, metrics *MetricsService, opts ReportOptions, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &ReportService{
		students:    students,
		classes:     classes,
		subjects:    subjects,
		assessments: assessments,
		shared:      shared,
		metrics:     metrics,
		logger:      logger,
		opts:        opts,
	}
}

// NewBatch opens a fresh batch cache.
func (s *ReportService) NewBatch() *ReportCache {
	return NewReportCache(s.students, s.classes, s.subjects, s.assessments, s.shared, s.opts.SharedTTL, s.metrics)
}

// termSnapshot holds every student's term report computed from one roster snapshot.
type termSnapshot struct {
	class    *models.Class
	term     int
	roster   []models.Student
	reports  map[string]*dto.TermReport
	failures map[string]error
}

// TermReport builds one student's report for a term, ranked against the class.
func (s *ReportService) TermReport(ctx context.Context, studentID string, term int) (report *dto.TermReport, err error) {
	defer s.observe(ReportKindTerm, time.Now(), &err)
	if err := grading.ValidateTerm(term); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cache := s.NewBatch()
	_, class, err := s.studentAndClass(ctx, cache, studentID)
	if err != nil {
		return nil, err
	}
	log := logger.ForBatch(ctx, s.logger, ReportKindTerm, studentID, term)
	snapshot, err := s.buildTermSnapshot(ctx, cache, class, term, ReportKindTerm, log)
	if err != nil {
		return nil, err
	}
	if failure, ok := snapshot.failures[studentID]; ok {
		return nil, failure
	}
	report, ok := snapshot.reports[studentID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not on the class roster")
	}
	return report, nil
}

// ClassTermReport builds the term report of every student in a class, sorted by rank.
func (s *ReportService) ClassTermReport(ctx context.Context, classID string, term int) (reports []dto.TermReport, err error) {
	defer s.observe(ReportKindClassTerm, time.Now(), &err)
	if err := grading.ValidateTerm(term); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cache := s.NewBatch()
	class, err := s.loadClass(ctx, cache, classID)
	if err != nil {
		return nil, err
	}
	log := logger.ForBatch(ctx, s.logger, ReportKindClassTerm, classID, term)
	snapshot, err := s.buildTermSnapshot(ctx, cache, class, term, ReportKindClassTerm, log)
	if err != nil {
		return nil, err
	}

	reports = make([]dto.TermReport, 0, len(snapshot.roster))
	for _, student := range snapshot.roster {
		reports = append(reports, *snapshot.reports[student.ID])
	}
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Rank != reports[j].Rank {
			return reports[i].Rank < reports[j].Rank
		}
		return reports[i].Student.ID < reports[j].Student.ID
	})
	log.Info("class term report generated", zap.Int("students", len(reports)), zap.Int("placeholders", len(snapshot.failures)))
	return reports, nil
}

// YearlyReport combines the three terms of a student into a yearly report
// ranked against the classmates' yearly averages.
func (s *ReportService) YearlyReport(ctx context.Context, studentID string) (report *dto.YearlyReport, err error) {
	defer s.observe(ReportKindYearly, time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cache := s.NewBatch()
	_, class, err := s.studentAndClass(ctx, cache, studentID)
	if err != nil {
		return nil, err
	}
	log := logger.ForBatch(ctx, s.logger, ReportKindYearly, studentID, 0)
	yearly, err := s.buildYearly(ctx, cache, class, ReportKindYearly, log)
	if err != nil {
		return nil, err
	}
	for i := range yearly {
		if yearly[i].Student.ID == studentID {
			return &yearly[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not on the class roster")
}

// ClassYearlyReport builds the yearly report of every student in a class, sorted by rank.
func (s *ReportService) ClassYearlyReport(ctx context.Context, classID string) (reports []dto.YearlyReport, err error) {
	defer s.observe(ReportKindClassYearly, time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cache := s.NewBatch()
	class, err := s.loadClass(ctx, cache, classID)
	if err != nil {
		return nil, err
	}
	log := logger.ForBatch(ctx, s.logger, ReportKindClassYearly, classID, 0)
	reports, err = s.buildYearly(ctx, cache, class, ReportKindClassYearly, log)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Rank != reports[j].Rank {
			return reports[i].Rank < reports[j].Rank
		}
		return reports[i].Student.ID < reports[j].Student.ID
	})
	return reports, nil
}

// AvailableTerms lists the terms, ascending, for which a student has at least
// one recorded assessment.
func (s *ReportService) AvailableTerms(ctx context.Context, studentID string) ([]int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, _, err := s.studentAndClass(ctx, s.NewBatch(), studentID); err != nil {
		return nil, err
	}
	recorded, err := s.assessments.ListTermsByStudent(ctx, studentID)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to load assessment terms")
	}
	available := make([]int, 0, len(recorded))
	for _, term := range recorded {
		if grading.ValidateTerm(term) == nil {
			available = append(available, term)
		}
	}
	return available, nil
}

// TermReportByRollNumber resolves a student from their roll number within a
// class and builds their term report.
func (s *ReportService) TermReportByRollNumber(ctx context.Context, classID, rollNumber string, term int) (*dto.TermReport, error) {
	student, err := s.studentByRollNumber(ctx, classID, rollNumber)
	if err != nil {
		return nil, err
	}
	return s.TermReport(ctx, student.ID, term)
}

// YearlyReportByRollNumber resolves a student from their roll number within a
// class and builds their yearly report.
func (s *ReportService) YearlyReportByRollNumber(ctx context.Context, classID, rollNumber string) (*dto.YearlyReport, error) {
	student, err := s.studentByRollNumber(ctx, classID, rollNumber)
	if err != nil {
		return nil, err
	}
	return s.YearlyReport(ctx, student.ID)
}

func (s *ReportService) studentByRollNumber(ctx context.Context, classID, rollNumber string) (*models.Student, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	if rollNumber == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roll number is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.loadClass(ctx, s.NewBatch(), classID); err != nil {
		return nil, err
	}
	student, err := s.students.FindByClassAndRollNumber(ctx, classID, rollNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no student with roll number %s in class", rollNumber))
		}
		return nil, s.internal(ctx, err, "failed to load student")
	}
	return student, nil
}

// SummarizeTerm aggregates a class term report.
func SummarizeTerm(reports []dto.TermReport) dto.ClassSummary {
	summary := dto.ClassSummary{ClassSize: len(reports)}
	averages := make([]*float64, 0, len(reports))
	for _, r := range reports {
		summary.ClassID, summary.ClassName = r.ClassID, r.ClassName
		averages = append(averages, r.Average)
		if r.Passed {
			summary.TotalPassed++
		}
	}
	summary.TotalFailed = summary.ClassSize - summary.TotalPassed
	summary.ClassAverage = grading.MeanOfPresent(averages...)
	summary.PassRate = grading.PassRate(summary.TotalPassed, summary.ClassSize)
	return summary
}

// SummarizeYear aggregates a class yearly report.
func SummarizeYear(reports []dto.YearlyReport) dto.ClassSummary {
	summary := dto.ClassSummary{ClassSize: len(reports)}
	averages := make([]*float64, 0, len(reports))
	for _, r := range reports {
		summary.ClassID, summary.ClassName = r.ClassID, r.ClassName
		averages = append(averages, r.Average)
		if r.Passed {
			summary.TotalPassed++
		}
	}
	summary.TotalFailed = summary.ClassSize - summary.TotalPassed
	summary.ClassAverage = grading.MeanOfPresent(averages...)
	summary.PassRate = grading.PassRate(summary.TotalPassed, summary.ClassSize)
	return summary
}

func (s *ReportService) buildTermSnapshot(ctx context.Context, cache *ReportCache, class *models.Class, term int, kind string, log *zap.Logger) (*termSnapshot, error) {
	roster, err := cache.StudentsInClass(ctx, class.ID)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to load class roster")
	}
	ids := make([]string, len(roster))
	for i, student := range roster {
		ids[i] = student.ID
	}
	if err := cache.PrefetchAssessments(ctx, ids, term); err != nil {
		return nil, s.internal(ctx, err, "failed to load assessments")
	}
	if err := s.prefetchSubjects(ctx, cache, ids, term); err != nil {
		return nil, s.internal(ctx, err, "failed to load subjects")
	}

	results := make([]*dto.TermReport, len(roster))
	failures := make([]error, len(roster))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range roster {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := s.studentTerm(gctx, cache, class, roster[i], term)
			if err != nil {
				if !isStudentLevel(err) {
					return err
				}
				failures[i] = err
				report = placeholderTerm(class, roster[i], term, err)
			}
			results[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.internal(ctx, err, "failed to compute term reports")
	}

	// Ranking runs only once every student's average is known.
	entries := make([]grading.RankEntry, len(results))
	for i, r := range results {
		entries[i] = grading.RankEntry{ID: r.Student.ID, Metric: r.Average}
	}
	ranks := grading.RankIndex(grading.Rank(entries))

	snapshot := &termSnapshot{
		class:    class,
		term:     term,
		roster:   roster,
		reports:  make(map[string]*dto.TermReport, len(results)),
		failures: make(map[string]error),
	}
	for i, r := range results {
		r.Rank = ranks[r.Student.ID]
		r.ClassSize = len(roster)
		snapshot.reports[r.Student.ID] = r
		if failures[i] != nil {
			snapshot.failures[r.Student.ID] = failures[i]
			s.metrics.RecordStudentFailure(kind)
			log.Warn("student replaced by placeholder report", zap.String("student_id", r.Student.ID), zap.Error(failures[i]))
		}
	}
	return snapshot, nil
}

func (s *ReportService) prefetchSubjects(ctx context.Context, cache *ReportCache, studentIDs []string, term int) error {
	seen := make(map[string]struct{})
	var subjectIDs []string
	for _, id := range studentIDs {
		list, err := cache.Assessments(ctx, id, term)
		if err != nil {
			return err
		}
		for _, a := range list {
			if _, ok := seen[a.SubjectID]; ok {
				continue
			}
			seen[a.SubjectID] = struct{}{}
			subjectIDs = append(subjectIDs, a.SubjectID)
		}
	}
	_, err := cache.Subjects(ctx, subjectIDs)
	return err
}

// studentTerm computes one student's term report without rank.
func (s *ReportService) studentTerm(ctx context.Context, cache *ReportCache, class *models.Class, student models.Student, term int) (*dto.TermReport, error) {
	assessments, err := cache.Assessments(ctx, student.ID, term)
	if err != nil {
		return nil, err
	}

	slots := make(map[string]*[2]*float64)
	var subjectIDs []string
	for _, a := range assessments {
		if a.Term != term {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("assessment %s belongs to term %d", a.ID, a.Term))
		}
		slot, err := models.AssessmentSlot(term, a.Number)
		if err != nil {
			return nil, err
		}
		if err := grading.ValidateScore(a.Score); err != nil {
			return nil, err
		}
		pair, ok := slots[a.SubjectID]
		if !ok {
			pair = &[2]*float64{}
			slots[a.SubjectID] = pair
			subjectIDs = append(subjectIDs, a.SubjectID)
		}
		score := a.Score
		pair[slot] = &score
	}

	subjects, err := cache.Subjects(ctx, subjectIDs)
	if err != nil {
		return nil, err
	}

	tier := class.Tier()
	subjectReports := make([]dto.SubjectReport, 0, len(subjectIDs))
	scores := make([]grading.SubjectScore, 0, len(subjectIDs))
	passed := 0
	for _, id := range subjectIDs {
		subject, ok := subjects[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", id))
		}
		coefficient := subject.Weight()
		if err := grading.ValidateCoefficient(coefficient); err != nil {
			return nil, err
		}
		pair := slots[id]
		avg, err := grading.SubjectAverage(term, pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		grade := grading.LetterGrade(&avg, tier)
		sr := dto.SubjectReport{
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Coefficient: coefficient,
			Average:     &avg,
			Grade:       grade,
			Passed:      grading.IsPassing(grade, tier),
		}
		if term == 3 {
			sr.Exam = pair[0]
		} else {
			sr.Assessment1, sr.Assessment2 = pair[0], pair[1]
		}
		if sr.Passed {
			passed++
		}
		subjectReports = append(subjectReports, sr)
		scores = append(scores, grading.SubjectScore{Average: &avg, Coefficient: coefficient})
	}
	sort.SliceStable(subjectReports, func(i, j int) bool {
		if subjectReports[i].SubjectName != subjectReports[j].SubjectName {
			return subjectReports[i].SubjectName < subjectReports[j].SubjectName
		}
		return subjectReports[i].SubjectID < subjectReports[j].SubjectID
	})

	average := grading.WeightedTermAverage(scores)
	report := newTermReport(class, student, term, average)
	report.Subjects = subjectReports
	report.SubjectsPassed = passed
	report.TotalSubjects = len(subjectReports)
	report.PassRate = grading.PassRate(passed, len(subjectReports))
	if average == nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("no assessments recorded for term %d", term))
	}
	return report, nil
}

func newTermReport(class *models.Class, student models.Student, term int, average *float64) *dto.TermReport {
	tier := class.Tier()
	grade := grading.LetterGrade(average, tier)
	return &dto.TermReport{
		Student:          student.Ref(),
		ClassID:          class.ID,
		ClassName:        class.Name,
		Tier:             tier,
		AcademicYear:     class.AcademicYear,
		Term:             term,
		Subjects:         []dto.SubjectReport{},
		Average:          average,
		FormattedAverage: grading.FormatAverage(average),
		Grade:            grade,
		Passed:           grading.IsPassing(grade, tier),
		Status:           grading.PerformanceStatus(average),
		Remarks:          grading.Remarks(average),
		Action:           grading.TermAction(average),
		HasData:          average != nil,
	}
}

func placeholderTerm(class *models.Class, student models.Student, term int, cause error) *dto.TermReport {
	report := newTermReport(class, student, term, nil)
	report.Warnings = []string{appErrors.FromError(cause).Message}
	return report
}

func (s *ReportService) buildYearly(ctx context.Context, cache *ReportCache, class *models.Class, kind string, log *zap.Logger) ([]dto.YearlyReport, error) {
	var snapshots [len(terms)]*termSnapshot
	for i, term := range terms {
		snapshot, err := s.buildTermSnapshot(ctx, cache, class, term, kind, log.With(zap.Int("term", term)))
		if err != nil {
			return nil, err
		}
		snapshots[i] = snapshot
	}

	roster := snapshots[0].roster
	yearly := make([]dto.YearlyReport, len(roster))
	entries := make([]grading.RankEntry, len(roster))
	for i, student := range roster {
		var termReports [len(terms)]*dto.TermReport
		for t := range terms {
			termReports[t] = snapshots[t].reports[student.ID]
		}
		yearly[i] = yearlyFromTerms(class, student, termReports)
		entries[i] = grading.RankEntry{ID: student.ID, Metric: yearly[i].Average}
	}

	ranks := grading.RankIndex(grading.Rank(entries))
	for i := range yearly {
		yearly[i].Rank = ranks[yearly[i].Student.ID]
		yearly[i].ClassSize = len(roster)
	}
	return yearly, nil
}

type subjectRollup struct {
	name        string
	coefficient int
	averages    [len(terms)]*float64
}

func yearlyFromTerms(class *models.Class, student models.Student, termReports [len(terms)]*dto.TermReport) dto.YearlyReport {
	tier := class.Tier()
	rollups := make(map[string]*subjectRollup)
	var names []string
	termAverages := make([]*float64, 0, len(terms))
	summaries := make([]dto.TermSummary, 0, len(terms))
	var warnings []string

	for t, tr := range termReports {
		term := terms[t]
		if tr == nil {
			summaries = append(summaries, dto.TermSummary{Term: term, FormattedAverage: grading.FormatAverage(nil), Remarks: grading.Remarks(nil)})
			warnings = append(warnings, fmt.Sprintf("term %d: no data", term))
			continue
		}
		termAverages = append(termAverages, tr.Average)
		summary := dto.TermSummary{
			Term:             term,
			Average:          tr.Average,
			FormattedAverage: tr.FormattedAverage,
			Remarks:          tr.Remarks,
			Passed:           tr.Passed,
			HasData:          tr.HasData,
		}
		if tr.HasData {
			rank := tr.Rank
			summary.Rank = &rank
		}
		summaries = append(summaries, summary)
		for _, w := range tr.Warnings {
			warnings = append(warnings, fmt.Sprintf("term %d: %s", term, w))
		}

		for _, sr := range tr.Subjects {
			rollup, ok := rollups[sr.SubjectName]
			if !ok {
				rollup = &subjectRollup{name: sr.SubjectName}
				rollups[sr.SubjectName] = rollup
				names = append(names, sr.SubjectName)
			}
			rollup.coefficient = sr.Coefficient
			rollup.averages[t] = sr.Average
		}
	}
	sort.Strings(names)

	subjects := make([]dto.YearlySubjectReport, 0, len(names))
	passed := 0
	for _, name := range names {
		rollup := rollups[name]
		avg := grading.MeanOfPresent(rollup.averages[:]...)
		grade := grading.LetterGrade(avg, tier)
		ys := dto.YearlySubjectReport{
			SubjectName:   name,
			Coefficient:   rollup.coefficient,
			Term1Average:  rollup.averages[0],
			Term2Average:  rollup.averages[1],
			Term3Average:  rollup.averages[2],
			YearlyAverage: avg,
			Grade:         grade,
			Passed:        grading.IsPassing(grade, tier),
		}
		if ys.Passed {
			passed++
		}
		subjects = append(subjects, ys)
	}

	average := grading.MeanOfPresent(termAverages...)
	grade := grading.LetterGrade(average, tier)
	passRate := grading.PassRate(passed, len(subjects))
	return dto.YearlyReport{
		Student:          student.Ref(),
		ClassID:          class.ID,
		ClassName:        class.Name,
		Tier:             tier,
		AcademicYear:     class.AcademicYear,
		Average:          average,
		FormattedAverage: grading.FormatAverage(average),
		Grade:            grade,
		Passed:           grading.IsPassing(grade, tier),
		SubjectsPassed:   passed,
		TotalSubjects:    len(subjects),
		PassRate:         passRate,
		Remarks:          grading.YearlyRemarks(average, passRate),
		Action:           grading.YearlyAction(average, passRate),
		Subjects:         subjects,
		Terms:            summaries,
		HasData:          average != nil,
		Warnings:         warnings,
	}
}

func (s *ReportService) studentAndClass(ctx context.Context, cache *ReportCache, studentID string) (*models.Student, *models.Class, error) {
	student, err := cache.Student(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, s.internal(ctx, err, "failed to load student")
	}
	class, err := s.loadClass(ctx, cache, student.ClassID)
	if err != nil {
		return nil, nil, err
	}
	return student, class, nil
}

func (s *ReportService) loadClass(ctx context.Context, cache *ReportCache, classID string) (*models.Class, error) {
	class, err := cache.Class(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, s.internal(ctx, err, "failed to load class")
	}
	return class, nil
}

// internal converts infrastructure and context failures into API errors.
func (s *ReportService) internal(ctx context.Context, err error, message string) error {
	var appErr *appErrors.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return appErrors.Wrap(err, appErrors.ErrCanceled.Code, appErrors.ErrCanceled.Status, appErrors.ErrCanceled.Message)
	case errors.As(err, &appErr):
		return appErr
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

func (s *ReportService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func (s *ReportService) observe(kind string, start time.Time, err *error) {
	s.metrics.ObserveReport(kind, time.Since(start), *err)
}

func isStudentLevel(err error) bool {
	return errors.Is(err, appErrors.ErrValidation) || errors.Is(err, appErrors.ErrNotFound)
}
