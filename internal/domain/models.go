package domain

import (
	"time"

	"github.com/google/uuid"
)

// DonationStatus represents the payment status of a donation
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusComplete  DonationStatus = "complete"
	DonationStatusRefunded  DonationStatus = "refunded"
	DonationStatusCancelled DonationStatus = "cancelled"
)

// Donation represents a single donation record. The Title carries the
// formatted serial code once sequential ordering has assigned one; until
// then it is empty and callers fall back to the numeric ID.
type Donation struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	Title      string         `gorm:"type:varchar(255);index"`
	Slug       string         `gorm:"type:varchar(255)"`
	DonorName  string         `gorm:"type:varchar(200);not null;column:donor_name"`
	DonorEmail string         `gorm:"type:varchar(255);column:donor_email"`
	Amount     int64          `gorm:"not null"` // minor currency units
	Currency   string         `gorm:"type:varchar(3);not null;default:'USD'"`
	Status     DonationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt  time.Time      `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

// SerialNumber maps an assigned sequential id to a donation. The ID is
// assigned by the serial number repository, never by the database, so
// reseeded values stay under application control. Both columns are unique:
// one serial per donation, one donation per serial.
type SerialNumber struct {
	ID         int64     `gorm:"primaryKey"`
	DonationID int64     `gorm:"uniqueIndex;not null;column:donation_id"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName overrides the default pluralization
func (SerialNumber) TableName() string { return "serial_numbers" }

// SerialCounter is the single-row high-water mark for serial allocation.
// It only ever moves forward: deleting serial records or forcing a low
// reseeded id never lowers it, mirroring database AUTO_INCREMENT behavior.
type SerialCounter struct {
	ID        int64     `gorm:"primaryKey"`
	LastID    int64     `gorm:"not null;column:last_id"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (SerialCounter) TableName() string { return "serial_counters" }

// Setting is an admin-configurable key/value option stored in the database.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"size:255;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Setting keys for the sequential ordering feature. The reseed marker is
// stored as a separate pending/start pair so the mirrored next-number
// counter can advance without disturbing an outstanding reseed request.
const (
	SettingSequentialEnabled = "sequential_ordering.enabled"
	SettingSequentialPadding = "sequential_ordering.number_padding"
	SettingSequentialPrefix  = "sequential_ordering.number_prefix"
	SettingSequentialSuffix  = "sequential_ordering.number_suffix"
	SettingSequentialNumber  = "sequential_ordering.number"
	SettingReseedPending     = "sequential_ordering.reseed_pending"
	SettingReseedStart       = "sequential_ordering.reseed_start"
)

// SequentialSettings is the resolved sequential ordering configuration,
// merged from stored settings over config-file defaults. Read-only during
// allocation.
type SequentialSettings struct {
	Enabled bool
	Padding int
	Prefix  string
	Suffix  string
	// TitlePrefix disambiguates serial-coded donation titles in storage.
	// It is internal and stripped before the code is shown to anyone;
	// not to be confused with the display Prefix.
	TitlePrefix string
}

// NoteType classifies a record in the shared note/comment store.
type NoteType string

const (
	// NoteTypeComment is a public-facing comment.
	NoteTypeComment NoteType = "comment"
	// NoteTypeDonation is an internal note attached to a donation.
	NoteTypeDonation NoteType = "donation"
	// NoteTypeDonor is an internal note attached to a donor.
	NoteTypeDonor NoteType = "donor"
)

// HiddenNoteTypes returns the note types that must never surface through
// the public comment queries.
func HiddenNoteTypes() []NoteType {
	return []NoteType{NoteTypeDonation, NoteTypeDonor}
}

// Note is a comment-like record attached to a donation or donor.
type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntityID  int64     `gorm:"not null;index;column:entity_id"`
	Type      NoteType  `gorm:"type:varchar(20);not null;index;column:note_type"`
	Content   string    `gorm:"type:text;not null"`
	Author    string    `gorm:"type:varchar(200)"`
	// No schema default on purpose: gorm skips zero-value fields that
	// carry one, which would flip Approved:false to true on insert.
	Approved  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
