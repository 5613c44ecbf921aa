package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	assert.ErrorIs(t, NewNotFoundError("match m1"), ErrNotFound)
	assert.ErrorIs(t, NewConflictError("claimed"), ErrConflict)
	assert.ErrorIs(t, NewValidationError("bad period"), ErrValidation)
	assert.ErrorIs(t, NewPeriodLockedError("2026-01"), ErrPeriodLocked)

	dup := NewDuplicateError("feed f1")
	assert.ErrorIs(t, dup, ErrConflict)
	assert.Equal(t, "CONFLICT", Code(dup))
}

func TestPeriodNotReconciledIsPeriodLockedClass(t *testing.T) {
	err := fmt.Errorf("lock acct-1 2026-01: %w", ErrPeriodNotReconciled)
	assert.ErrorIs(t, err, ErrPeriodLocked)
	assert.ErrorIs(t, err, ErrPeriodNotReconciled)
	assert.False(t, errors.Is(ErrPeriodLocked, ErrPeriodNotReconciled))
	assert.Equal(t, "PERIOD_NOT_RECONCILED", Code(err))
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNotFound, "NOT_FOUND"},
		{fmt.Errorf("wrap: %w", ErrPeriodLocked), "PERIOD_LOCKED"},
		{ErrValidation, "INVALID_INPUT"},
		{ErrForbidden, "FORBIDDEN"},
		{errors.New("boom"), "INTERNAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err))
	}
}
