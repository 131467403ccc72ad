package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/donorflow/donation-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// serialCounterRow is the id of the single serial_counters row.
const serialCounterRow = 1

// SerialNumberRepository owns the serial_numbers table and its high-water
// counter. Allocation is transactional: the counter row is locked for the
// duration of an insert so concurrent allocations can never be handed the
// same sequential id.
type SerialNumberRepository struct {
	db *gorm.DB
}

// NewSerialNumberRepository creates a new SerialNumberRepository
func NewSerialNumberRepository(db *gorm.DB) *SerialNumberRepository {
	return &SerialNumberRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction.
func (r *SerialNumberRepository) WithTx(tx *gorm.DB) *SerialNumberRepository {
	return &SerialNumberRepository{db: tx}
}

// Allocate inserts a new serial record for the donation and returns the
// assigned sequential id. A positive forcedID is used verbatim (the reseed
// path); otherwise the next id after the counter's high-water mark is
// assigned. Returns domain.ErrSerialConflict when the forced id or the
// donation already has a record.
//
// When the repository is bound to an open transaction via WithTx, the inner
// Transaction call degrades to a savepoint, so a conflicting forced insert
// can be retried naturally without aborting the caller's transaction.
func (r *SerialNumberRepository) Allocate(ctx context.Context, donationID, forcedID int64) (int64, error) {
	var assigned int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter, err := lockSerialCounter(tx)
		if err != nil {
			return err
		}

		id := forcedID
		if id <= 0 {
			id = counter.LastID + 1
		}

		record := domain.SerialNumber{ID: id, DonationID: donationID}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrSerialConflict
			}
			return fmt.Errorf("failed to insert serial number: %w", err)
		}

		// The counter never moves backwards: a forced id below the
		// high-water mark leaves natural allocation untouched.
		if id > counter.LastID {
			if err := tx.Model(&domain.SerialCounter{}).
				Where("id = ?", serialCounterRow).
				Updates(map[string]interface{}{
					"last_id":    id,
					"updated_at": time.Now(),
				}).Error; err != nil {
				return fmt.Errorf("failed to advance serial counter: %w", err)
			}
		}

		assigned = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	return assigned, nil
}

// Watermark returns the next sequential id the store would assign absent a
// forced value. Returns 1 when nothing has been allocated yet.
func (r *SerialNumberRepository) Watermark(ctx context.Context) (int64, error) {
	var counter domain.SerialCounter
	err := r.db.WithContext(ctx).First(&counter, "id = ?", serialCounterRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read serial counter: %w", err)
	}
	return counter.LastID + 1, nil
}

// LockWatermark is Watermark with the counter row locked for update. Only
// valid inside a transaction; the lock holds until that transaction ends,
// which makes a reseed check-and-allocate atomic.
func (r *SerialNumberRepository) LockWatermark(ctx context.Context) (int64, error) {
	counter, err := lockSerialCounter(r.db.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	return counter.LastID + 1, nil
}

// SequentialIDByDonation returns the sequential id assigned to a donation.
func (r *SerialNumberRepository) SequentialIDByDonation(ctx context.Context, donationID int64) (int64, error) {
	var record domain.SerialNumber
	err := r.db.WithContext(ctx).First(&record, "donation_id = ?", donationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.ErrSerialNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up serial number: %w", err)
	}
	return record.ID, nil
}

// DonationIDBySequential returns the donation a sequential id was assigned to.
func (r *SerialNumberRepository) DonationIDBySequential(ctx context.Context, sequentialID int64) (int64, error) {
	var record domain.SerialNumber
	err := r.db.WithContext(ctx).First(&record, "id = ?", sequentialID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.ErrSerialNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up serial number: %w", err)
	}
	return record.DonationID, nil
}

// DeleteByDonationID removes the serial record for a donation. Returns
// false when none existed; that is not an error.
func (r *SerialNumberRepository) DeleteByDonationID(ctx context.Context, donationID int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("donation_id = ?", donationID).Delete(&domain.SerialNumber{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete serial number: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MaxSequentialID returns the highest assigned sequential id, 0 when the
// store is empty. Unlike the watermark this follows deletions.
func (r *SerialNumberRepository) MaxSequentialID(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&domain.SerialNumber{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read max serial number: %w", err)
	}
	return max, nil
}

// DeleteOrphans removes serial records whose donation no longer exists and
// returns how many were removed.
func (r *SerialNumberRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("donation_id NOT IN (?)", r.db.Model(&domain.Donation{}).Select("id")).
		Delete(&domain.SerialNumber{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned serial numbers: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// lockSerialCounter fetches the counter row with a row lock, creating it on
// first use. SQLite has no FOR UPDATE; its writer lock serializes the
// transaction instead.
func lockSerialCounter(tx *gorm.DB) (*domain.SerialCounter, error) {
	query := tx
	if tx.Dialector.Name() == "postgres" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var counter domain.SerialCounter
	err := query.First(&counter, "id = ?", serialCounterRow).Error
	if err == nil {
		return &counter, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock serial counter: %w", err)
	}

	counter = domain.SerialCounter{ID: serialCounterRow, LastID: 0}
	if err := tx.Create(&counter).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create serial counter: %w", err)
		}
		// Lost a creation race; fetch the winner's row with the lock.
		if err := query.First(&counter, "id = ?", serialCounterRow).Error; err != nil {
			return nil, fmt.Errorf("failed to lock serial counter: %w", err)
		}
	}
	return &counter, nil
}
