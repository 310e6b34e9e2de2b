package services

import "errors"

// Errors shared by the services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidWeight    = errors.New("weight must be a non-negative number")
	ErrInvalidStatus    = errors.New("invalid result status")
	ErrInvalidSchedule  = errors.New("match date and times must be valid and ordered")

	ErrMatchNotFound  = errors.New("match not found")
	ErrSeriesNotFound = errors.New("series not found")

	ErrMatchFull               = errors.New("match is full")
	ErrMatchCancelled          = errors.New("match is cancelled")
	ErrMatchClosed             = errors.New("match no longer accepts registrations")
	ErrAnglerAlreadyRegistered = errors.New("angler is already registered for this match")
	ErrAnglerNotRegistered     = errors.New("angler is not registered for this match")

	ErrPublishingDisabled = errors.New("standings publishing is not configured")
)
