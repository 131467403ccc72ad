// Package events provides explicit donation lifecycle subscription. Services
// that react to donation creation or deletion register typed handlers at
// startup; the donation write path dispatches synchronously and logs handler
// failures without propagating them, so a decoration failure (a missing
// serial code, say) never fails the donation itself.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DonationHandler reacts to a donation lifecycle event.
type DonationHandler func(ctx context.Context, donationID int64) error

// Dispatcher fans donation lifecycle events out to registered handlers.
type Dispatcher struct {
	logger *zap.Logger

	mu      sync.RWMutex
	created []DonationHandler
	deleted []DonationHandler
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// OnDonationCreated registers a handler for donation creation.
func (d *Dispatcher) OnDonationCreated(handler DonationHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created = append(d.created, handler)
}

// OnDonationDeleted registers a handler for donation deletion.
func (d *Dispatcher) OnDonationDeleted(handler DonationHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, handler)
}

// DonationCreated dispatches a creation event to every registered handler in
// registration order.
func (d *Dispatcher) DonationCreated(ctx context.Context, donationID int64) {
	d.dispatch(ctx, donationID, "donation_created", d.snapshot(&d.created))
}

// DonationDeleted dispatches a deletion event to every registered handler in
// registration order.
func (d *Dispatcher) DonationDeleted(ctx context.Context, donationID int64) {
	d.dispatch(ctx, donationID, "donation_deleted", d.snapshot(&d.deleted))
}

func (d *Dispatcher) snapshot(handlers *[]DonationHandler) []DonationHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]DonationHandler(nil), *handlers...)
}

func (d *Dispatcher) dispatch(ctx context.Context, donationID int64, event string, handlers []DonationHandler) {
	for _, handler := range handlers {
		if err := handler(ctx, donationID); err != nil {
			d.logger.Error("lifecycle handler failed",
				zap.String("event", event),
				zap.Int64("donationID", donationID),
				zap.Error(err),
			)
		}
	}
}
