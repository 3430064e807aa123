package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Unwrap(t *testing.T) {
	err := WrapLoanNotFound(42)

	assert.True(t, errors.Is(err, ErrLoanNotFound))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsInvalidInput(err))
	assert.Equal(t, "LOAN_NOT_FOUND: Loan with ID 42 not found (loan not found)", err.Error())
}

func TestInvalidInputFamily(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "amount", err: WrapInvalidPaymentAmount("-5"), code: ErrCodeInvalidPaymentAmount},
		{name: "period", err: WrapInvalidPeriod(11, 10), code: ErrCodeInvalidPeriod},
		{name: "date", err: WrapInvalidDate("2024-02-30"), code: ErrCodeInvalidDate},
		{name: "generic", err: WrapInvalidInput("bad"), code: ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsInvalidInput(tt.err))

			var be *BusinessError
			assert.True(t, errors.As(fmt.Errorf("wrapped: %w", tt.err), &be))
			assert.Equal(t, tt.code, be.Code)
		})
	}
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapDatabaseError(cause)

	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "database")
}
