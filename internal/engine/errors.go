package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/sitetag/internal/ir"
)

// UsageError reports misuse of the evaluator protocol.
//
// Usage errors are programming defects in the caller (a placer's move
// bookkeeping), not problems with the placement data:
//   - Applying a placement that is already applied
//   - Undoing a placement that was never applied
//   - Passing the same placement twice to Check
//   - Placing one cell at two BELs
//   - Naming one site or tile with two different types
type UsageError struct {
	// Code identifies the error category.
	Code UsageErrorCode

	// Message is a human-readable description.
	Message string

	// Placement identifies the offending placement.
	Placement ir.PlacementKey
}

// UsageErrorCode categorizes usage errors.
type UsageErrorCode string

const (
	// ErrCodeAlreadyApplied indicates Apply of an applied placement.
	ErrCodeAlreadyApplied UsageErrorCode = "ALREADY_APPLIED"

	// ErrCodeNotApplied indicates Undo of a placement that is not applied.
	ErrCodeNotApplied UsageErrorCode = "NOT_APPLIED"

	// ErrCodeDuplicatePlacement indicates the same placement key, or the
	// same cell at two locations, twice in one input.
	ErrCodeDuplicatePlacement UsageErrorCode = "DUPLICATE_PLACEMENT"

	// ErrCodeTypeMismatch indicates a placement naming an occupied site or
	// tile with a different type than the placements already there.
	ErrCodeTypeMismatch UsageErrorCode = "TYPE_MISMATCH"
)

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e.Placement != "" {
		return fmt.Sprintf("%s: %s (placement=%s)", e.Code, e.Message, e.Placement)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUsageError returns true if err is or wraps a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// HasUsageCode returns true if err is or wraps a *UsageError with code.
func HasUsageCode(err error, code UsageErrorCode) bool {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// NewAlreadyAppliedError creates a UsageError for a double apply.
func NewAlreadyAppliedError(key ir.PlacementKey) *UsageError {
	return &UsageError{
		Code:      ErrCodeAlreadyApplied,
		Message:   "placement is already applied",
		Placement: key,
	}
}

// NewNotAppliedError creates a UsageError for undo without apply.
func NewNotAppliedError(key ir.PlacementKey) *UsageError {
	return &UsageError{
		Code:      ErrCodeNotApplied,
		Message:   "placement was never applied",
		Placement: key,
	}
}

// NewDuplicatePlacementError creates a UsageError for a repeated placement.
func NewDuplicatePlacementError(key ir.PlacementKey) *UsageError {
	return &UsageError{
		Code:      ErrCodeDuplicatePlacement,
		Message:   "placement appears more than once",
		Placement: key,
	}
}

// NewCellPlacedError creates a UsageError for a cell that is already placed
// as other. code is ErrCodeAlreadyApplied from Apply and
// ErrCodeDuplicatePlacement from Check.
func NewCellPlacedError(code UsageErrorCode, key, other ir.PlacementKey) *UsageError {
	return &UsageError{
		Code:      code,
		Message:   fmt.Sprintf("cell is already placed as %s", other),
		Placement: key,
	}
}

// NewTypeMismatchError creates a UsageError for a placement whose site or
// tile type disagrees with the occupied instance.
func NewTypeMismatchError(key ir.PlacementKey, inst ir.InstanceKey, have, got string) *UsageError {
	return &UsageError{
		Code:      ErrCodeTypeMismatch,
		Message:   fmt.Sprintf("%s has type %s, placement names %s", inst, have, got),
		Placement: key,
	}
}
