// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrNotFound indicates a referenced bank/card/loan/transaction/IPO
	// id does not resolve to an existing record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount indicates a non-positive amount where a positive
	// amount is required.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidState indicates an IPO transition attempted from a
	// terminal state.
	ErrInvalidState = errors.New("invalid state")

	// ErrConstraintViolation indicates an operation that would break
	// ledger consistency, such as editing the amount of a posted
	// transaction or deleting a record with live dependents.
	ErrConstraintViolation = errors.New("constraint violation")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
