package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/donorflow/donation-api/internal/domain"
	"gorm.io/gorm"
)

// DonationRepository handles database operations for donation records.
type DonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new DonationRepository
func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction.
func (r *DonationRepository) WithTx(tx *gorm.DB) *DonationRepository {
	return &DonationRepository{db: tx}
}

// Create persists a new donation and fills in its assigned id.
func (r *DonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

// GetByID returns a donation by id, domain.ErrDonationNotFound when absent.
func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*domain.Donation, error) {
	var donation domain.Donation
	err := r.db.WithContext(ctx).First(&donation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	return &donation, nil
}

// TitleByID returns a donation's stored title.
func (r *DonationRepository) TitleByID(ctx context.Context, id int64) (string, error) {
	donation, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return donation.Title, nil
}

// UpdateTitle sets a donation's title and slug.
func (r *DonationRepository) UpdateTitle(ctx context.Context, id int64, title, slug string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Donation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title": title,
			"slug":  slug,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update donation title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrDonationNotFound
	}
	return nil
}

// FindIDByExactTitle returns the id of the donation whose title equals the
// given string exactly, domain.ErrDonationNotFound when none matches.
func (r *DonationRepository) FindIDByExactTitle(ctx context.Context, title string) (int64, error) {
	var donation domain.Donation
	err := r.db.WithContext(ctx).Select("id").First(&donation, "title = ?", title).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.ErrDonationNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find donation by title: %w", err)
	}
	return donation.ID, nil
}

// Delete removes a donation. Returns false when it did not exist.
func (r *DonationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Donation{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete donation: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
