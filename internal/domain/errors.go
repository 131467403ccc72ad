package domain

import "errors"

// Persistence-level sentinel errors. Repositories translate driver errors
// onto these so services never match on gorm internals.
var (
	// ErrSerialConflict is returned when an allocation collides with an
	// existing sequential id or donation id
	ErrSerialConflict = errors.New("serial number conflict")

	// ErrSerialNotFound is returned when no serial record exists for the
	// given key
	ErrSerialNotFound = errors.New("serial number not found")

	// ErrDonationNotFound is returned when a donation does not exist
	ErrDonationNotFound = errors.New("donation not found")

	// ErrNoteNotFound is returned when a note does not exist
	ErrNoteNotFound = errors.New("note not found")

	// ErrSettingNotFound is returned when a setting key has no stored value
	ErrSettingNotFound = errors.New("setting not found")
)
