package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/sma-report-api/internal/models"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	FindByClassAndRollNumber(ctx context.Context, classID, rollNumber string) (*models.Student, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type subjectReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
}

type assessmentReader interface {
	ListByStudentAndTerm(ctx context.Context, studentID string, term int) ([]models.Assessment, error)
	ListByStudentsAndTerm(ctx context.Context, studentIDs []string, term int) (map[string][]models.Assessment, error)
	ListTermsByStudent(ctx context.Context, studentID string) ([]int, error)
}

// RosterCacheKey is the shared cache key of a class roster.
func RosterCacheKey(classID string) string {
	return "reports:roster:" + classID
}

// AssessmentsCacheKey is the shared cache key of a student's assessments in a term.
func AssessmentsCacheKey(studentID string, term int) string {
	return fmt.Sprintf("reports:assessments:%s:%d", studentID, term)
}

type assessmentKey struct {
	studentID string
	term      int
}

// ReportCache memoizes data-layer lookups for the lifetime of one report batch.
// Rosters and assessments can additionally be served from the shared tier
// when one is configured; every other lookup is batch scoped only.
// A ReportCache is safe for concurrent use by the workers of its batch.
type ReportCache struct {
	students    studentReader
	classes     classReader
	subjects    subjectReader
	assessments assessmentReader
	shared      *CacheService
	sharedTTL   time.Duration
	metrics     *MetricsService

	group singleflight.Group

	mu             sync.RWMutex
	studentByID    map[string]*models.Student
	classByID      map[string]*models.Class
	rosterByClass  map[string][]models.Student
	subjectByID    map[string]models.Subject
	assessmentsFor map[assessmentKey][]models.Assessment
}

// NewReportCache constructs an empty batch cache. shared may be nil.
func NewReportCache(students studentReader, classes classReader, subjects subjectReader, assessments assessmentReader, shared *CacheService, sharedTTL time.Duration, metrics *MetricsService) *ReportCache {
	return &ReportCache{
		students:       students,
		classes:        classes,
		subjects:       subjects,
		assessments:    assessments,
		shared:         shared,
		sharedTTL:      sharedTTL,
		metrics:        metrics,
		studentByID:    make(map[string]*models.Student),
		classByID:      make(map[string]*models.Class),
		rosterByClass:  make(map[string][]models.Student),
		subjectByID:    make(map[string]models.Subject),
		assessmentsFor: make(map[assessmentKey][]models.Assessment),
	}
}

// Student returns a student by ID.
func (c *ReportCache) Student(ctx context.Context, id string) (*models.Student, error) {
	start := time.Now()
	student, ok := c.lookupStudent(id)
	c.metrics.RecordCacheOperation(CacheTierBatch, ok, time.Since(start))
	if ok {
		return student, nil
	}

	v, err, _ := c.group.Do("student:"+id, func() (interface{}, error) {
		if cached, ok := c.lookupStudent(id); ok {
			return cached, nil
		}
		loaded, err := c.students.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.studentByID[id] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Student), nil
}

func (c *ReportCache) lookupStudent(id string) (*models.Student, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	student, ok := c.studentByID[id]
	return student, ok
}

// Class returns a class by ID.
func (c *ReportCache) Class(ctx context.Context, id string) (*models.Class, error) {
	start := time.Now()
	c.mu.RLock()
	class, ok := c.classByID[id]
	c.mu.RUnlock()
	c.metrics.RecordCacheOperation(CacheTierBatch, ok, time.Since(start))
	if ok {
		return class, nil
	}

	v, err, _ := c.group.Do("class:"+id, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.classByID[id]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		loaded, err := c.classes.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.classByID[id] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Class), nil
}

// StudentsInClass returns the roster snapshot of a class. The first call in a
// batch fixes the snapshot; later calls return the same slice.
func (c *ReportCache) StudentsInClass(ctx context.Context, classID string) ([]models.Student, error) {
	start := time.Now()
	c.mu.RLock()
	roster, ok := c.rosterByClass[classID]
	c.mu.RUnlock()
	c.metrics.RecordCacheOperation(CacheTierBatch, ok, time.Since(start))
	if ok {
		return roster, nil
	}

	v, err, _ := c.group.Do("roster:"+classID, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.rosterByClass[classID]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		var loaded []models.Student
		hit, _ := c.shared.Get(ctx, RosterCacheKey(classID), &loaded)
		if !hit {
			var err error
			loaded, err = c.students.ListByClass(ctx, classID)
			if err != nil {
				return nil, err
			}
			_ = c.shared.Set(ctx, RosterCacheKey(classID), loaded, c.sharedTTL)
		}
		sort.SliceStable(loaded, func(i, j int) bool { return loaded[i].ID < loaded[j].ID })
		c.mu.Lock()
		c.rosterByClass[classID] = loaded
		for i := range loaded {
			if _, exists := c.studentByID[loaded[i].ID]; !exists {
				student := loaded[i]
				c.studentByID[student.ID] = &student
			}
		}
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Student), nil
}

// Assessments returns the assessments of a student in a term.
func (c *ReportCache) Assessments(ctx context.Context, studentID string, term int) ([]models.Assessment, error) {
	key := assessmentKey{studentID: studentID, term: term}
	start := time.Now()
	c.mu.RLock()
	list, ok := c.assessmentsFor[key]
	c.mu.RUnlock()
	c.metrics.RecordCacheOperation(CacheTierBatch, ok, time.Since(start))
	if ok {
		return list, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("assessments:%s:%d", studentID, term), func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.assessmentsFor[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		var loaded []models.Assessment
		hit, _ := c.shared.Get(ctx, AssessmentsCacheKey(studentID, term), &loaded)
		if !hit {
			var err error
			loaded, err = c.assessments.ListByStudentAndTerm(ctx, studentID, term)
			if err != nil {
				return nil, err
			}
			_ = c.shared.Set(ctx, AssessmentsCacheKey(studentID, term), loaded, c.sharedTTL)
		}
		if loaded == nil {
			loaded = []models.Assessment{}
		}
		c.mu.Lock()
		c.assessmentsFor[key] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Assessment), nil
}

// PrefetchAssessments loads the assessments of every listed student for a
// term with a single data-layer query. Students already cached are skipped.
func (c *ReportCache) PrefetchAssessments(ctx context.Context, studentIDs []string, term int) error {
	c.mu.RLock()
	missing := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		if _, ok := c.assessmentsFor[assessmentKey{studentID: id, term: term}]; !ok {
			missing = append(missing, id)
		}
	}
	c.mu.RUnlock()

	if c.shared.Enabled() {
		remaining := missing[:0]
		for _, id := range missing {
			var cached []models.Assessment
			if hit, _ := c.shared.Get(ctx, AssessmentsCacheKey(id, term), &cached); hit {
				if cached == nil {
					cached = []models.Assessment{}
				}
				c.storeAssessments(id, term, cached)
				continue
			}
			remaining = append(remaining, id)
		}
		missing = remaining
	}
	if len(missing) == 0 {
		return nil
	}

	grouped, err := c.assessments.ListByStudentsAndTerm(ctx, missing, term)
	if err != nil {
		return err
	}
	for _, id := range missing {
		list := grouped[id]
		if list == nil {
			list = []models.Assessment{}
		}
		c.storeAssessments(id, term, list)
		_ = c.shared.Set(ctx, AssessmentsCacheKey(id, term), list, c.sharedTTL)
	}
	return nil
}

func (c *ReportCache) storeAssessments(studentID string, term int, list []models.Assessment) {
	c.mu.Lock()
	c.assessmentsFor[assessmentKey{studentID: studentID, term: term}] = list
	c.mu.Unlock()
}

// Subjects returns the subjects matching ids keyed by ID. IDs unknown to the
// data layer are absent from the result.
func (c *ReportCache) Subjects(ctx context.Context, ids []string) (map[string]models.Subject, error) {
	result := make(map[string]models.Subject, len(ids))
	var missing []string
	c.mu.RLock()
	for _, id := range ids {
		if subject, ok := c.subjectByID[id]; ok {
			result[id] = subject
			continue
		}
		missing = append(missing, id)
	}
	c.mu.RUnlock()
	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := c.subjects.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, subject := range loaded {
		c.subjectByID[subject.ID] = subject
		result[subject.ID] = subject
	}
	c.mu.Unlock()
	return result, nil
}
