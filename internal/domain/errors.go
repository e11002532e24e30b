package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks user-correctable input problems (empty cart, missing address).
	ErrValidation = errors.New("validation failed")
	// ErrAuth indicates a missing, invalid or expired bearer token.
	ErrAuth = errors.New("authentication required")
	// ErrForbidden indicates an authenticated caller without the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrStorage wraps local guest-cart persistence failures.
	ErrStorage = errors.New("local storage failure")
	// ErrNetwork wraps remote cart/order call failures.
	ErrNetwork = errors.New("remote call failed")
	// ErrConflict indicates an illegal state transition.
	ErrConflict = errors.New("conflict")
	// ErrCheckoutInProgress is returned when checkout is re-entered while submitting.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)
