package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrAuthorization reports a caller without the required role or scope.
	ErrAuthorization = errors.New("not authorized")
	// ErrInvalidTransition reports a status change not permitted from the current state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotFound reports a referenced record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPolicyNotEligible reports a claim against a policy that is not active or
	// not owned by the claimant. It also matches ErrValidation.
	ErrPolicyNotEligible = fmt.Errorf("%w: policy not eligible for claims", ErrValidation)
	// ErrProvider reports a failure of the underlying document store.
	ErrProvider = errors.New("storage provider failure")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func providerErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProvider, op, err)
}
