package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	err := Conflict("event %d is not pending", 7)

	require.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "event 7 is not pending", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(ErrConflict, cause, "request already exists")

	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", Forbidden("not the owner"))

	assert.Equal(t, ErrForbidden, KindOf(wrapped))
	assert.Equal(t, ErrNotFound, KindOf(NotFound("x")))
	assert.Nil(t, KindOf(errors.New("boom")))
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	err := &Error{Kind: ErrNotFound}
	assert.Equal(t, "not found", err.Error())
}
