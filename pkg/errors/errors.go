package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrValidation          = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrDispatchFailure     = errors.New("reminder dispatch failed")
	ErrScanAbort           = errors.New("reminder scan aborted")
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
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeDispatchFailure     = "DISPATCH_FAILURE"
	ErrCodeScanAbort           = "SCAN_ABORT"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeCacheError          = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		message,
		ErrValidation,
	)
}

func WrapConcurrencyConflict(loanID string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrencyConflict,
		fmt.Sprintf("Concurrent payment on loan %s lost the race, retry the operation", loanID),
		errors.Join(ErrConcurrencyConflict, err),
	)
}

func WrapDispatchFailure(loanID string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDispatchFailure,
		fmt.Sprintf("Failed to dispatch reminder for loan %s", loanID),
		errors.Join(ErrDispatchFailure, err),
	)
}

func WrapScanAbort(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeScanAbort,
		"Listing active loans failed, reminder run aborted",
		errors.Join(ErrScanAbort, err),
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
