package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-api/internal/grading"
	"github.com/noah-isme/sma-report-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
)

type reportFixture struct {
	students    *fakeStudentRepo
	classes     *fakeClassRepo
	subjects    *fakeSubjectRepo
	assessments *fakeAssessmentRepo
}

func newReportFixture(level string, studentIDs ...string) *reportFixture {
	students := make([]models.Student, 0, len(studentIDs))
	for _, id := range studentIDs {
		students = append(students, models.Student{ID: id, FirstName: "Student", LastName: id, ClassID: "c1"})
	}
	return &reportFixture{
		students: newFakeStudentRepo(students...),
		classes:  newFakeClassRepo(models.Class{ID: "c1", Name: "Form One A", Level: level, AcademicYear: "2025/2026"}),
		subjects: newFakeSubjectRepo(
			models.Subject{ID: "math", Name: "Mathematics", Coefficient: intPtr(3)},
			models.Subject{ID: "eng", Name: "English"},
			models.Subject{ID: "phy", Name: "Physics", Coefficient: intPtr(5)},
			models.Subject{ID: "void", Name: "Broken", Coefficient: intPtr(0)},
		),
		assessments: &fakeAssessmentRepo{},
	}
}

func (f *reportFixture) service(shared *CacheService) *ReportService {
	return NewReportService(f.students, f.classes, f.subjects, f.assessments, shared, nil, ReportOptions{Workers: 4}, zap.NewNop())
}

func TestClassTermReportEndToEnd(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1", "s2", "s3")
	f.assessments.add("s1", "math", 1, 1, 18)
	f.assessments.add("s1", "math", 1, 2, 16)
	f.assessments.add("s2", "math", 1, 1, 10)
	f.assessments.add("s2", "math", 1, 2, 10)

	reports, err := f.service(nil).ClassTermReport(context.Background(), "c1", 1)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "s1", reports[0].Student.ID)
	require.NotNil(t, reports[0].Average)
	assert.Equal(t, 17.0, *reports[0].Average)
	assert.Equal(t, 1, reports[0].Rank)
	assert.Equal(t, grading.GradeB, reports[0].Grade)
	assert.True(t, reports[0].Passed)
	require.Len(t, reports[0].Subjects, 1)
	assert.Equal(t, 3, reports[0].Subjects[0].Coefficient)
	assert.Equal(t, 17.0, *reports[0].Subjects[0].Average)

	assert.Equal(t, "s2", reports[1].Student.ID)
	assert.Equal(t, 10.0, *reports[1].Average)
	assert.Equal(t, 2, reports[1].Rank)
	assert.Equal(t, grading.GradeC, reports[1].Grade)

	assert.Equal(t, "s3", reports[2].Student.ID)
	assert.Nil(t, reports[2].Average)
	assert.False(t, reports[2].HasData)
	assert.Equal(t, 3, reports[2].Rank)
	assert.Equal(t, grading.GradeU, reports[2].Grade)
	assert.False(t, reports[2].Passed)

	for _, r := range reports {
		assert.Equal(t, 3, r.ClassSize)
		assert.Equal(t, grading.TierOrdinary, r.Tier)
	}

	assert.Equal(t, int32(1), f.assessments.batchCalls)
	assert.Equal(t, int32(0), f.assessments.singleCalls)
	assert.Equal(t, int32(1), f.students.listCalls)
	assert.Equal(t, int32(1), f.subjects.manyCalls)
}

func TestClassTermReportTiedRanks(t *testing.T) {
	f := newReportFixture(models.LevelForm2, "a", "b", "c", "d")
	for id, score := range map[string]float64{"a": 18, "b": 18, "c": 15, "d": 10} {
		f.assessments.add(id, "math", 2, 3, score)
		f.assessments.add(id, "math", 2, 4, score)
	}

	reports, err := f.service(nil).ClassTermReport(context.Background(), "c1", 2)
	require.NoError(t, err)

	ranks := make([]int, len(reports))
	ids := make([]string, len(reports))
	for i, r := range reports {
		ranks[i] = r.Rank
		ids[i] = r.Student.ID
	}
	assert.Equal(t, []int{1, 1, 3, 4}, ranks)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestClassTermReportTiesOnRoundedAverage(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1", "s2")
	f.assessments.add("s1", "math", 1, 1, 15.008)
	f.assessments.add("s1", "math", 1, 2, 15)
	f.assessments.add("s2", "math", 1, 1, 15.002)
	f.assessments.add("s2", "math", 1, 2, 15)

	reports, err := f.service(nil).ClassTermReport(context.Background(), "c1", 1)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		require.NotNil(t, r.Average)
		assert.Equal(t, 15.0, *r.Average)
		assert.Equal(t, 1, r.Rank, r.Student.ID)
	}
	assert.Equal(t, "s1", reports[0].Student.ID)
}

func TestAvailableTerms(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1", "s2")
	f.assessments.add("s1", "math", 3, 5, 12)
	f.assessments.add("s1", "math", 1, 1, 14)
	f.assessments.add("s1", "eng", 1, 2, 9)
	svc := f.service(nil)
	ctx := context.Background()

	got, err := svc.AvailableTerms(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, got)

	got, err = svc.AvailableTerms(ctx, "s2")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = svc.AvailableTerms(ctx, "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReportsByRollNumber(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1", "s2")
	s2 := f.students.byID["s2"]
	s2.RollNumber = "F1-GEN-GEN-002"
	f.students.byID["s2"] = s2
	f.assessments.add("s1", "math", 1, 1, 12)
	f.assessments.add("s1", "math", 1, 2, 12)
	f.assessments.add("s2", "math", 1, 1, 16)
	f.assessments.add("s2", "math", 1, 2, 16)
	svc := f.service(nil)
	ctx := context.Background()

	term, err := svc.TermReportByRollNumber(ctx, "c1", " F1-GEN-GEN-002 ", 1)
	require.NoError(t, err)
	assert.Equal(t, "s2", term.Student.ID)
	assert.Equal(t, 1, term.Rank)

	yearly, err := svc.YearlyReportByRollNumber(ctx, "c1", "F1-GEN-GEN-002")
	require.NoError(t, err)
	assert.Equal(t, "s2", yearly.Student.ID)
	assert.Equal(t, 1, yearly.Rank)

	_, err = svc.TermReportByRollNumber(ctx, "c1", "F1-GEN-GEN-099", 1)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.YearlyReportByRollNumber(ctx, "missing", "F1-GEN-GEN-002")
	require.Error(t, err)
	assert.Equal(t, "class not found", appErrors.FromError(err).Message)

	_, err = svc.TermReportByRollNumber(ctx, "c1", "  ", 1)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.TermReportByRollNumber(ctx, "c1", "F1-GEN-GEN-002", 4)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTermReportWeightedAverage(t *testing.T) {
	f := newReportFixture(models.LevelForm3, "s1")
	f.assessments.add("s1", "phy", 1, 1, 20)
	f.assessments.add("s1", "phy", 1, 2, 20)
	f.assessments.add("s1", "eng", 1, 1, 10)
	f.assessments.add("s1", "eng", 1, 2, 10)

	report, err := f.service(nil).TermReport(context.Background(), "s1", 1)
	require.NoError(t, err)
	require.NotNil(t, report.Average)
	assert.Equal(t, 18.33, *report.Average)
	assert.Equal(t, "18.33/20", report.FormattedAverage)
	require.Len(t, report.Subjects, 2)
	assert.Equal(t, "English", report.Subjects[0].SubjectName)
	assert.Equal(t, 1, report.Subjects[0].Coefficient)
	assert.Equal(t, 2, report.SubjectsPassed)
	assert.Equal(t, 100.0, report.PassRate)
	assert.Equal(t, "Excellent", report.Status)
}

func TestTermReportAbsentScoreCountsAsZero(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1")
	f.assessments.add("s1", "math", 1, 1, 16)

	report, err := f.service(nil).TermReport(context.Background(), "s1", 1)
	require.NoError(t, err)
	require.Len(t, report.Subjects, 1)
	assert.Equal(t, 8.0, *report.Subjects[0].Average)
	assert.Nil(t, report.Subjects[0].Assessment2)
	assert.Equal(t, grading.GradeD, report.Grade)
	assert.False(t, report.Passed)
}

func TestTermReportExamTerm(t *testing.T) {
	f := newReportFixture(models.LevelUpperSixth, "s1")
	f.assessments.add("s1", "math", 3, 5, 8.5)

	report, err := f.service(nil).TermReport(context.Background(), "s1", 3)
	require.NoError(t, err)
	require.Len(t, report.Subjects, 1)
	require.NotNil(t, report.Subjects[0].Exam)
	assert.Equal(t, 8.5, *report.Subjects[0].Exam)
	assert.Equal(t, grading.GradeO, report.Grade)
	assert.False(t, report.Passed)
	assert.Equal(t, grading.TierAdvanced, report.Tier)
}

func TestTermReportErrors(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1")
	f.students.byID["orphan"] = models.Student{ID: "orphan", ClassID: "missing"}
	svc := f.service(nil)
	ctx := context.Background()

	_, err := svc.TermReport(ctx, "s1", 4)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.TermReport(ctx, "ghost", 1)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.TermReport(ctx, "orphan", 1)
	require.Error(t, err)
	assert.Equal(t, "class not found", appErrors.FromError(err).Message)

	_, err = svc.ClassTermReport(ctx, "missing", 1)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.ClassTermReport(ctx, "c1", 0)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestClassTermReportPlaceholderForBrokenStudent(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1", "s2", "s3", "s4")
	f.assessments.add("s1", "math", 1, 1, 12)
	f.assessments.add("s2", "math", 1, 1, 25)
	f.assessments.add("s3", "math", 1, 3, 12)
	f.assessments.add("s4", "void", 1, 1, 12)
	svc := f.service(nil)

	reports, err := svc.ClassTermReport(context.Background(), "c1", 1)
	require.NoError(t, err)
	require.Len(t, reports, 4)

	assert.Equal(t, "s1", reports[0].Student.ID)
	assert.Equal(t, 1, reports[0].Rank)
	for _, r := range reports[1:] {
		assert.Nil(t, r.Average, r.Student.ID)
		assert.False(t, r.HasData)
		assert.Equal(t, 2, r.Rank)
		assert.NotEmpty(t, r.Warnings)
	}
	assert.Contains(t, reports[1].Warnings[0], "outside 0-20")

	_, err = svc.TermReport(context.Background(), "s2", 1)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	report, err := svc.TermReport(context.Background(), "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rank)
	assert.Equal(t, 4, report.ClassSize)
}

func TestClassTermReportAbortsOnDataLayerFailure(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1")
	f.assessments.batchErr = errBoom

	_, err := f.service(nil).ClassTermReport(context.Background(), "c1", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestClassTermReportCancelled(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1", "s2")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service(nil).ClassTermReport(ctx, "c1", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrCanceled)
}

func TestInternalMapsDeadline(t *testing.T) {
	svc := newReportFixture(models.LevelForm1).service(nil)

	err := svc.internal(context.Background(), context.DeadlineExceeded, "failed")
	assert.ErrorIs(t, err, appErrors.ErrTimeout)

	err = svc.internal(context.Background(), errBoom, "failed to load class")
	assert.Equal(t, "failed to load class", appErrors.FromError(err).Message)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestYearlyReportWithSingleTerm(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1")
	f.assessments.add("s1", "math", 1, 1, 14)
	f.assessments.add("s1", "math", 1, 2, 14)

	report, err := f.service(nil).YearlyReport(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, report.Average)
	assert.Equal(t, 14.0, *report.Average)
	assert.Equal(t, grading.GradeC, report.Grade)
	assert.True(t, report.Passed)
	assert.Equal(t, 1, report.Rank)

	require.Len(t, report.Terms, 3)
	assert.True(t, report.Terms[0].HasData)
	require.NotNil(t, report.Terms[0].Rank)
	assert.Equal(t, 1, *report.Terms[0].Rank)
	assert.False(t, report.Terms[1].HasData)
	assert.Nil(t, report.Terms[1].Rank)
	assert.Nil(t, report.Terms[2].Average)

	require.Len(t, report.Subjects, 1)
	assert.Equal(t, 14.0, *report.Subjects[0].YearlyAverage)
	assert.Nil(t, report.Subjects[0].Term2Average)
}

func TestYearlyReportRollupAdvancedTier(t *testing.T) {
	f := newReportFixture(models.LevelLowerSixth, "s1", "s2")
	f.assessments.add("s1", "math", 1, 1, 16)
	f.assessments.add("s1", "math", 1, 2, 16)
	f.assessments.add("s1", "eng", 1, 1, 8)
	f.assessments.add("s1", "eng", 1, 2, 9)
	f.assessments.add("s1", "math", 2, 3, 12)
	f.assessments.add("s1", "math", 2, 4, 12)
	f.assessments.add("s1", "math", 3, 5, 14)
	f.assessments.add("s2", "math", 1, 1, 20)
	f.assessments.add("s2", "math", 1, 2, 20)
	svc := f.service(nil)

	report, err := svc.YearlyReport(context.Background(), "s1")
	require.NoError(t, err)

	require.NotNil(t, report.Terms[0].Average)
	assert.Equal(t, 14.13, *report.Terms[0].Average)
	assert.Equal(t, 13.38, *report.Average)
	assert.Equal(t, grading.GradeD, report.Grade)
	assert.True(t, report.Passed)
	assert.Equal(t, 2, report.Rank)
	assert.Equal(t, 2, report.ClassSize)

	require.Len(t, report.Subjects, 2)
	eng, math := report.Subjects[0], report.Subjects[1]
	assert.Equal(t, "English", eng.SubjectName)
	assert.Equal(t, 8.5, *eng.YearlyAverage)
	assert.Equal(t, grading.GradeO, eng.Grade)
	assert.False(t, eng.Passed)
	assert.Equal(t, 14.0, *math.YearlyAverage)
	assert.True(t, math.Passed)
	assert.Equal(t, 1, report.SubjectsPassed)
	assert.Equal(t, 50.0, report.PassRate)

	class, err := svc.ClassYearlyReport(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, class, 2)
	assert.Equal(t, "s2", class[0].Student.ID)
	assert.Equal(t, 1, class[0].Rank)

	summary := SummarizeYear(class)
	assert.Equal(t, 2, summary.ClassSize)
	assert.Equal(t, 2, summary.TotalPassed)
	assert.Equal(t, 100.0, summary.PassRate)
}

func TestYearlyReportToleratesBrokenTerm(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1")
	f.assessments.add("s1", "math", 1, 1, 12)
	f.assessments.add("s1", "math", 1, 2, 12)
	f.assessments.add("s1", "math", 2, 3, 30)

	report, err := f.service(nil).YearlyReport(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, *report.Average)
	assert.False(t, report.Terms[1].HasData)
	assert.NotEmpty(t, report.Warnings)
}

func TestSummarizeTerm(t *testing.T) {
	f := newReportFixture(models.LevelForm1, "s1", "s2", "s3")
	f.assessments.add("s1", "math", 1, 1, 18)
	f.assessments.add("s1", "math", 1, 2, 16)
	f.assessments.add("s2", "math", 1, 1, 10)
	f.assessments.add("s2", "math", 1, 2, 10)

	reports, err := f.service(nil).ClassTermReport(context.Background(), "c1", 1)
	require.NoError(t, err)

	summary := SummarizeTerm(reports)
	assert.Equal(t, "c1", summary.ClassID)
	assert.Equal(t, 3, summary.ClassSize)
	assert.Equal(t, 2, summary.TotalPassed)
	assert.Equal(t, 1, summary.TotalFailed)
	assert.Equal(t, 66.67, summary.PassRate)
	require.NotNil(t, summary.ClassAverage)
	assert.Equal(t, 13.5, *summary.ClassAverage)
}
