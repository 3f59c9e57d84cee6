// Package services defines the business logic for claims and sources.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Claim-related errors.
var (
	// ErrClaimNotFound indicates that the requested claim does not exist.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrEmptyClaim is returned when a submission contains no claim text.
	ErrEmptyClaim = errors.New("claim text is empty")

	// ErrClaimTooLong is returned when a submission exceeds the maximum
	// configured claim length.
	ErrClaimTooLong = errors.New("claim text too long")
)

// Source-related errors.
var (
	// ErrSourceNotFound indicates that no source is registered for the
	// requested domain.
	ErrSourceNotFound = errors.New("source not found")

	// ErrInvalidSource is returned when a source registration is missing
	// required fields.
	ErrInvalidSource = errors.New("source domain and name are required")

	// ErrDuplicateSource is returned when a source domain is already
	// registered.
	ErrDuplicateSource = errors.New("source already registered")
)
