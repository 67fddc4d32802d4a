package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when the requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrSaleNotToggleable is returned when the Sale cause is flipped like a checkbox.
// Sale quantities only come from the sale workflow.
var ErrSaleNotToggleable = errors.New("sale cause cannot be toggled, record a sale instead")

// InvalidInputError signals malformed input from the caller (negative price, unknown cause, ...).
// It is a caller bug, not a user-correctable state.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInvalidInput builds an InvalidInputError
func NewInvalidInput(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

// AllocationErrorKind enumerates the user-correctable allocation failures
type AllocationErrorKind string

const (
	AllocationNegativeQuantity AllocationErrorKind = "NEGATIVE_QUANTITY"
	AllocationDuplicateCause   AllocationErrorKind = "DUPLICATE_CAUSE"
	AllocationIncomplete       AllocationErrorKind = "INCOMPLETE"
)

// AllocationError is returned when a proposed exit allocation cannot be accepted.
// Remaining is requiredTotal minus the assigned sum; it is negative on over-allocation.
type AllocationError struct {
	Kind      AllocationErrorKind
	Cause     ExitCause // set for NEGATIVE_QUANTITY and DUPLICATE_CAUSE
	Assigned  int
	Required  int
	Remaining int
}

func (e *AllocationError) Error() string {
	switch e.Kind {
	case AllocationNegativeQuantity:
		return fmt.Sprintf("allocation for cause %s has a negative quantity", e.Cause)
	case AllocationDuplicateCause:
		return fmt.Sprintf("allocation lists cause %s more than once", e.Cause)
	default:
		return fmt.Sprintf("allocation incomplete: assigned %d of %d (remaining %d)", e.Assigned, e.Required, e.Remaining)
	}
}

// StorageUnavailableError wraps a failed read from the storage collaborator
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

// StorageError wraps a rejected write. Services return it unchanged.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
