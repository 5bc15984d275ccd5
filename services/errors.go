package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services. Callers branch on the kind with
// errors.Is; the wrapped text carries the user-facing reason.
var (
	// ErrInvalidInput marks malformed principal, count or date input. It is
	// caught at the entry of an operation and never reaches the reconciler.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPlanLocked marks a plan-change rejection. Every rejection carries a
	// distinct reason and nothing is mutated when it is returned.
	ErrPlanLocked = errors.New("plan locked")

	// ErrAmountMismatch marks a manual-override save whose amounts do not add
	// up to the learner's recorded total.
	ErrAmountMismatch = errors.New("amount mismatch")

	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an access attempt on another account's record.
	ErrForbidden = errors.New("access denied")
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func planLocked(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPlanLocked, fmt.Sprintf(format, args...))
}

func amountMismatch(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAmountMismatch, fmt.Sprintf(format, args...))
}

// PartialWriteError reports a batch of independent row updates where some
// rows were written and others failed. The batch is not rolled back; the
// attempted IDs let the caller reconcile.
type PartialWriteError struct {
	AttemptedIDs []uint
	FailedIDs    []uint
	First        error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write failure: %d of %d rows failed: %v",
		len(e.FailedIDs), len(e.AttemptedIDs), e.First)
}

func (e *PartialWriteError) Unwrap() error {
	return e.First
}
