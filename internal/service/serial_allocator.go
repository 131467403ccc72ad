package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SerialAllocator decides the next sequential id for a donation, honoring an
// outstanding admin reseed request. The marker check and the insert run in
// one transaction with the serial counter row locked, so two concurrent
// reseed-triggering creations cannot both act on the same marker state.
type SerialAllocator struct {
	db       *gorm.DB
	serials  *repository.SerialNumberRepository
	settings *repository.SettingRepository
	logger   *zap.Logger
}

// NewSerialAllocator creates a new SerialAllocator
func NewSerialAllocator(
	db *gorm.DB,
	serials *repository.SerialNumberRepository,
	settings *repository.SettingRepository,
	logger *zap.Logger,
) *SerialAllocator {
	return &SerialAllocator{
		db:       db,
		serials:  serials,
		settings: settings,
		logger:   logger,
	}
}

// NextNumber allocates and returns the sequential id for a donation.
//
// Reseed handling, reconciled once per allocation:
//   - marker pending and the watermark has not yet passed the requested
//     start: the start value is issued and the marker stays pending; it
//     clears on a later allocation once the counter has moved past it.
//   - marker pending but the watermark is already past the start: the
//     marker is cleared as stale, and the start value is still issued once
//     (an operator may deliberately reseed below already-issued ids).
//
// A forced id that turns out to be taken is retried as a natural
// allocation inside the same transaction; the savepoint created by the
// nested repository transaction makes the failed insert invisible.
func (a *SerialAllocator) NextNumber(ctx context.Context, donationID int64) (int64, error) {
	var assigned int64

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		serials := a.serials.WithTx(tx)
		settings := a.settings.WithTx(tx)

		forced, err := a.reconcileMarker(ctx, serials, settings)
		if err != nil {
			return err
		}

		assigned, err = serials.Allocate(ctx, donationID, forced)
		if forced > 0 && errors.Is(err, domain.ErrSerialConflict) {
			a.logger.Warn("reseed target already taken, falling back to natural allocation",
				zap.Int64("donationID", donationID),
				zap.Int64("forcedID", forced),
			)
			assigned, err = serials.Allocate(ctx, donationID, 0)
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate serial number: %w", err)
	}

	return assigned, nil
}

// reconcileMarker inspects the reseed marker and returns the forced id to
// use for this allocation, 0 for natural assignment. Must run inside the
// allocation transaction: reading the watermark takes the counter row lock
// that Allocate will re-enter.
func (a *SerialAllocator) reconcileMarker(
	ctx context.Context,
	serials *repository.SerialNumberRepository,
	settings *repository.SettingRepository,
) (int64, error) {
	pending, err := settings.GetBool(ctx, domain.SettingReseedPending, false)
	if err != nil {
		return 0, err
	}
	if !pending {
		return 0, nil
	}

	start, err := settings.GetInt64(ctx, domain.SettingReseedStart, 0)
	if err != nil {
		return 0, err
	}
	if start <= 0 {
		// Malformed marker; drop it rather than blocking allocation.
		a.logger.Warn("clearing reseed marker with invalid start value",
			zap.Int64("start", start),
		)
		if err := settings.SetBool(ctx, domain.SettingReseedPending, false); err != nil {
			return 0, err
		}
		return 0, nil
	}

	watermark, err := serials.LockWatermark(ctx)
	if err != nil {
		return 0, err
	}

	if watermark > start {
		// The counter has moved past the requested start, so the marker
		// is spent: issue the start value this one time, then resume
		// natural numbering.
		if err := settings.SetBool(ctx, domain.SettingReseedPending, false); err != nil {
			return 0, err
		}
		a.logger.Info("reseed marker cleared",
			zap.Int64("start", start),
			zap.Int64("watermark", watermark),
		)
	}

	return start, nil
}
