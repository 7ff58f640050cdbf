package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/sma-report-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-api/pkg/errors"
)

type fakeStudentRepo struct {
	mu        sync.Mutex
	byID      map[string]models.Student
	findCalls int32
	listCalls int32
	updateErr error
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{byID: make(map[string]models.Student)}
	for _, s := range students {
		repo.byID[s.ID] = s
	}
	return repo
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	atomic.AddInt32(&f.findCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeStudentRepo) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	atomic.AddInt32(&f.listCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Student
	for _, s := range f.byID {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) FindByClassAndRollNumber(ctx context.Context, classID, rollNumber string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if s.ClassID == classID && s.RollNumber == rollNumber {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) UpdateClass(ctx context.Context, id, classID string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.ClassID = classID
	f.byID[id] = s
	return nil
}

type fakeClassRepo struct {
	byID  map[string]models.Class
	calls int32
}

func newFakeClassRepo(classes ...models.Class) *fakeClassRepo {
	repo := &fakeClassRepo{byID: make(map[string]models.Class)}
	for _, c := range classes {
		repo.byID[c.ID] = c
	}
	return repo
}

func (f *fakeClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	atomic.AddInt32(&f.calls, 1)
	c, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

type fakeSubjectRepo struct {
	byID      map[string]models.Subject
	manyCalls int32
}

func newFakeSubjectRepo(subjects ...models.Subject) *fakeSubjectRepo {
	repo := &fakeSubjectRepo{byID: make(map[string]models.Subject)}
	for _, s := range subjects {
		repo.byID[s.ID] = s
	}
	return repo
}

func (f *fakeSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSubjectRepo) FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	atomic.AddInt32(&f.manyCalls, 1)
	var out []models.Subject
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeAssessmentRepo struct {
	mu          sync.Mutex
	items       []models.Assessment
	singleCalls int32
	batchCalls  int32
	lastBatch   []string
	upsertErr   error
	batchErr    error
}

func (f *fakeAssessmentRepo) add(studentID, subjectID string, term, number int, score float64) {
	f.items = append(f.items, models.Assessment{
		ID:        studentID + "-" + subjectID + "-" + string(rune('0'+number)),
		StudentID: studentID,
		SubjectID: subjectID,
		Term:      term,
		Number:    number,
		Score:     score,
	})
}

func (f *fakeAssessmentRepo) ListByStudentAndTerm(ctx context.Context, studentID string, term int) ([]models.Assessment, error) {
	atomic.AddInt32(&f.singleCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Assessment
	for _, a := range f.items {
		if a.StudentID == studentID && a.Term == term {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssessmentRepo) ListByStudentsAndTerm(ctx context.Context, studentIDs []string, term int) (map[string][]models.Assessment, error) {
	atomic.AddInt32(&f.batchCalls, 1)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBatch = append([]string(nil), studentIDs...)
	out := make(map[string][]models.Assessment, len(studentIDs))
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
		out[id] = []models.Assessment{}
	}
	for _, a := range f.items {
		if wanted[a.StudentID] && a.Term == term {
			out[a.StudentID] = append(out[a.StudentID], a)
		}
	}
	return out, nil
}

func (f *fakeAssessmentRepo) ListTermsByStudent(ctx context.Context, studentID string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int]bool)
	var out []int
	for _, a := range f.items {
		if a.StudentID == studentID && !seen[a.Term] {
			seen[a.Term] = true
			out = append(out, a.Term)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (f *fakeAssessmentRepo) Upsert(ctx context.Context, assessment *models.Assessment) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.items {
		if a.StudentID == assessment.StudentID && a.SubjectID == assessment.SubjectID && a.Term == assessment.Term && a.Number == assessment.Number {
			f.items[i].Score = assessment.Score
			assessment.ID = a.ID
			return nil
		}
	}
	assessment.ID = "new-" + assessment.StudentID
	f.items = append(f.items, *assessment)
	return nil
}

// memoryCache is an in-process stand-in for the Redis cache repository.
type memoryCache struct {
	mu        sync.Mutex
	entries   map[string][]byte
	deleted   []string
	deleteErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

var errBoom = errors.New("boom")

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
