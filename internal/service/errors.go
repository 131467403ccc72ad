package service

import "errors"

// Common service errors
var (
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidReseedStart is returned when a reseed is requested with a
	// non-positive start value
	ErrInvalidReseedStart = errors.New("reseed start value must be positive")
)
