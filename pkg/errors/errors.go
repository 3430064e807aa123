package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrRepaymentNotFound    = errors.New("repayment not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidPaymentAmount = fmt.Errorf("%w: invalid payment amount", ErrInvalidInput)
	ErrInvalidPeriod        = fmt.Errorf("%w: period number out of range", ErrInvalidInput)
	ErrInvalidDate          = fmt.Errorf("%w: malformed date", ErrInvalidInput)
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeRepaymentNotFound    = "REPAYMENT_NOT_FOUND"
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeInvalidPaymentAmount = "INVALID_PAYMENT_AMOUNT"
	ErrCodeInvalidPeriod        = "INVALID_PERIOD"
	ErrCodeInvalidDate          = "INVALID_DATE"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeCacheError           = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %d not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapRepaymentNotFound(loanID, repaymentID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeRepaymentNotFound,
		fmt.Sprintf("Repayment %d not found on loan %d", repaymentID, loanID),
		ErrRepaymentNotFound,
	)
}

func WrapInvalidInput(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidInput, message, ErrInvalidInput)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapInvalidPeriod(period, duration int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPeriod,
		fmt.Sprintf("Period %d is outside 1..%d", period, duration),
		ErrInvalidPeriod,
	)
}

func WrapInvalidDate(value string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidDate,
		fmt.Sprintf("Date %q is not a valid YYYY-MM-DD date", value),
		ErrInvalidDate,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// IsNotFound reports whether err refers to a missing loan or repayment.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLoanNotFound) || errors.Is(err, ErrRepaymentNotFound)
}

// IsInvalidInput reports whether err is a rejected request.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
