package service

import "errors"

var (
	// ErrValidation marks caller input failures; recoverable by
	// correcting the input.
	ErrValidation = errors.New("validation failed")
	// ErrCardStore marks a Store protocol that wrote metadata but could
	// not write the vault payload. The metadata row stays active with no
	// payload behind it; the caller must resubmit.
	ErrCardStore = errors.New("card store failed")
	// ErrCardFetch marks a FetchAll that could not read every payload.
	// Partial result sets are never returned.
	ErrCardFetch = errors.New("card fetch failed")
)
