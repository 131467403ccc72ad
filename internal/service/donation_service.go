package service

import (
	"context"
	"fmt"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/events"
	"github.com/donorflow/donation-api/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CreateDonationInput is the validated input for creating a donation.
type CreateDonationInput struct {
	DonorName  string                `validate:"required,max=200"`
	DonorEmail string                `validate:"omitempty,email"`
	Amount     int64                 `validate:"gt=0"`
	Currency   string                `validate:"required,len=3,alpha"`
	Status     domain.DonationStatus `validate:"omitempty,oneof=pending complete refunded cancelled"`
}

// DonationService owns the donation entity lifecycle. It persists the
// record and dispatches lifecycle events; everything layered on top of a
// donation (serial numbering included) subscribes through the dispatcher.
type DonationService struct {
	donations  *repository.DonationRepository
	dispatcher *events.Dispatcher
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewDonationService creates a new DonationService
func NewDonationService(
	donations *repository.DonationRepository,
	dispatcher *events.Dispatcher,
	logger *zap.Logger,
) *DonationService {
	return &DonationService{
		donations:  donations,
		dispatcher: dispatcher,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Create persists a new donation and dispatches the created event. Event
// handler failures are logged by the dispatcher and do not fail creation.
func (s *DonationService) Create(ctx context.Context, input CreateDonationInput) (*domain.Donation, error) {
	if err := s.validate.Struct(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	status := input.Status
	if status == "" {
		status = domain.DonationStatusPending
	}

	donation := &domain.Donation{
		DonorName:  input.DonorName,
		DonorEmail: input.DonorEmail,
		Amount:     input.Amount,
		Currency:   input.Currency,
		Status:     status,
	}

	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	s.logger.Info("donation created",
		zap.Int64("donationID", donation.ID),
		zap.Int64("amount", donation.Amount),
		zap.String("currency", donation.Currency),
	)

	s.dispatcher.DonationCreated(ctx, donation.ID)

	// Reload so callers see any decoration applied by event handlers.
	return s.donations.GetByID(ctx, donation.ID)
}

// GetByID returns a donation by id.
func (s *DonationService) GetByID(ctx context.Context, id int64) (*domain.Donation, error) {
	return s.donations.GetByID(ctx, id)
}

// Delete permanently removes a donation and dispatches the deleted event.
func (s *DonationService) Delete(ctx context.Context, id int64) error {
	removed, err := s.donations.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrDonationNotFound
	}

	s.logger.Info("donation deleted", zap.Int64("donationID", id))

	s.dispatcher.DonationDeleted(ctx, id)
	return nil
}
