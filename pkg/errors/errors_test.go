package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("load student: %w", Clone(ErrNotFound, "student not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "student not found", FromError(err).Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestNilError(t *testing.T) {
	var e *Error
	assert.Equal(t, "<nil>", e.Error())
	assert.Nil(t, e.Unwrap())
	assert.Nil(t, FromError(nil))
}
