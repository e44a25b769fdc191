package domain

import "errors"

var (
	// ErrRemoteUnavailable is returned when the remote catalog source cannot be reached or errors
	ErrRemoteUnavailable = errors.New("remote catalog source unavailable")

	// ErrProductNotFound is returned when the remote source has no product with the given id
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidPrice is returned when a price is not a valid non-negative number
	ErrInvalidPrice = errors.New("price must be a valid non-negative number")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrLineNotFound is returned when a cart operation references an absent line
	ErrLineNotFound = errors.New("cart line not found")

	// ErrSessionNotFound is returned when a cart session id is unknown
	ErrSessionNotFound = errors.New("session not found")

	// ErrSlotEmpty is returned by a blob store when the key has never been written
	ErrSlotEmpty = errors.New("store slot empty")

	// ErrStoreUnavailable is returned when the local store cannot be read or written
	ErrStoreUnavailable = errors.New("local store unavailable")
)

// ErrMalformedRecord is returned when a remote record cannot be coerced into a Product
var ErrMalformedRecord = errors.New("malformed product record")
