package domain

import "errors"

var (
	// ErrQueryUnavailable is returned when every geodata server failed or timed out.
	ErrQueryUnavailable = errors.New("place query unavailable")
	// ErrRouteUnavailable is returned when routing failed or produced no candidates.
	ErrRouteUnavailable = errors.New("route unavailable")
	// ErrMalformedElement marks a single upstream record that failed validation.
	ErrMalformedElement = errors.New("malformed upstream element")
	ErrInvalidBounds    = errors.New("invalid bounding box")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid input")
)
