package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced nozzle, sale or price does not exist or is deactivated.
	ErrNotFound = errors.New("ledger: not found")
	// ErrInvalidInput marks requests rejected before any storage access.
	ErrInvalidInput = errors.New("ledger: invalid input")
	// ErrStorage wraps persistence failures.
	ErrStorage = errors.New("ledger: storage unavailable")
	// ErrPriceUnavailable means no price was in force. SubmitReading never returns it.
	ErrPriceUnavailable = errors.New("ledger: price unavailable")
	// ErrSaleFinal is returned when a final sale would be modified.
	ErrSaleFinal = errors.New("ledger: sale already final")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError records which persistence step failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) match.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
