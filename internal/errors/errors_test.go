package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	err := NewUserError("bad input", "try again")
	assert.Equal(t, "bad input", err.Error())
	assert.True(t, IsUserError(err))

	withField := NewUserErrorWithField("time", "8am", "Invalid time format", "Use HH:MM")
	assert.Contains(t, withField.Error(), "Invalid time format")
	assert.Contains(t, withField.Error(), "8am")
	assert.Equal(t, "time", withField.Field)
	assert.True(t, IsUserError(withField))
}

func TestSystemErrorUnwrap(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := NewSystemErrorWithOp("add", "store write failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "store write failed")
	assert.False(t, IsUserError(err))
}

func TestSentinelWrapping(t *testing.T) {
	wrapped := fmt.Errorf("subscribe: %w", ErrPermissionDenied)
	assert.True(t, Is(wrapped, ErrPermissionDenied))
	assert.False(t, Is(wrapped, ErrReminderNotFound))
}
