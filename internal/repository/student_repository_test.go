package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var studentRowColumns = []string{"id", "code", "roll_number", "first_name", "last_name", "class_id", "department_code", "specialty", "created_at", "updated_at"}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "STUGENGEN0001", "F1-GEN-GEN-001", "Ada", "Nkem", "c1", "GEN", "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(rows)

	student, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", student.FirstName)
	assert.Equal(t, "c1", student.ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByClassAndRollNumber(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "STUGENGEN0001", "F1-GEN-GEN-001", "Ada", "Nkem", "c1", "GEN", "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE class_id = $1 AND roll_number = $2")).
		WithArgs("c1", "F1-GEN-GEN-001").
		WillReturnRows(rows)

	student, err := repo.FindByClassAndRollNumber(context.Background(), "c1", "F1-GEN-GEN-001")
	require.NoError(t, err)
	assert.Equal(t, "s1", student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByClassAndRollNumberNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE class_id = $1 AND roll_number = $2")).
		WithArgs("c1", "99").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByClassAndRollNumber(context.Background(), "c1", "99")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "A", "1", "Ada", "Nkem", "c1", "GEN", "", time.Now(), time.Now()).
		AddRow("s2", "B", "2", "Bola", "Eze", "c1", "GEN", "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE class_id = $1 ORDER BY id")).
		WithArgs("c1").
		WillReturnRows(rows)

	students, err := repo.ListByClass(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateClass(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET class_id = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("c2", sqlmock.AnyArg(), "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateClass(context.Background(), "s1", "c2"))

	mock.ExpectExec("UPDATE students").
		WithArgs("c2", sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateClass(context.Background(), "ghost", "c2"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
