package domain

import "errors"

var (
	// ErrInvalidThreshold is returned when a similarity threshold is outside [0,1]
	ErrInvalidThreshold = errors.New("threshold must be within [0,1]")

	// ErrInvalidWeights is returned when a weight table is negative or all zero
	ErrInvalidWeights = errors.New("invalid similarity weights")

	// ErrDuplicateID is returned when a record snapshot contains the same id twice
	ErrDuplicateID = errors.New("duplicate contact id in snapshot")

	// ErrNoSecondaries is returned when a merge names no secondary records
	ErrNoSecondaries = errors.New("merge requires at least one secondary record")

	// ErrSelfMerge is returned when the master also appears among the secondaries
	ErrSelfMerge = errors.New("master record cannot be merged into itself")

	// ErrInvalidResolution is returned when a resolution names an unusable record
	ErrInvalidResolution = errors.New("invalid merge resolution")

	// ErrContactNotFound is returned when a contact id is unknown to the repository
	ErrContactNotFound = errors.New("contact not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBackendFailure is returned when the contacts REST backend request fails
	ErrBackendFailure = errors.New("contacts backend request failed")
)

// IsValidation reports whether err is a caller-input error
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidThreshold) ||
		errors.Is(err, ErrInvalidWeights) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrNoSecondaries) ||
		errors.Is(err, ErrSelfMerge) ||
		errors.Is(err, ErrInvalidResolution) ||
		errors.Is(err, ErrInvalidRequest)
}
