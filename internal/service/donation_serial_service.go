package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/metrics"
	"github.com/donorflow/donation-api/internal/repository"
	"go.uber.org/zap"
)

// SerialCodeOptions control how a serial code is presented.
type SerialCodeOptions struct {
	// WithHash prepends "#" to a non-empty code.
	WithHash bool
	// UseIDAsDefault falls back to the decimal donation id when no code is
	// available; when false the fallback is the empty string.
	UseIDAsDefault bool
}

// DonationSerialService orchestrates sequential donation numbering against
// donation lifecycle events and exposes the lookup and formatting paths.
// Serial numbering is best-effort decoration: its failures are logged and
// never fail the donation itself.
type DonationSerialService struct {
	allocator *SerialAllocator
	formatter *SerialCodeFormatter
	serials   *repository.SerialNumberRepository
	settings  *repository.SettingRepository
	donations *repository.DonationRepository
	defaults  domain.SequentialSettings
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewDonationSerialService creates a new DonationSerialService
func NewDonationSerialService(
	allocator *SerialAllocator,
	formatter *SerialCodeFormatter,
	serials *repository.SerialNumberRepository,
	settings *repository.SettingRepository,
	donations *repository.DonationRepository,
	defaults domain.SequentialSettings,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DonationSerialService {
	return &DonationSerialService{
		allocator: allocator,
		formatter: formatter,
		serials:   serials,
		settings:  settings,
		donations: donations,
		defaults:  defaults,
		metrics:   m,
		logger:    logger,
	}
}

// HandleDonationCreated assigns a serial number to a newly created donation
// and writes the rendered serial code into its title. A no-op when
// sequential ordering is disabled or the donation already has a serial
// record (an update event, not a creation). Registered with the lifecycle
// dispatcher at startup.
func (s *DonationSerialService) HandleDonationCreated(ctx context.Context, donationID int64) error {
	settings := s.sequentialSettings(ctx)
	if !settings.Enabled {
		return nil
	}

	_, err := s.serials.SequentialIDByDonation(ctx, donationID)
	if err == nil {
		// Already numbered; the event is an update of an existing donation.
		return nil
	}
	if !errors.Is(err, domain.ErrSerialNotFound) {
		return fmt.Errorf("failed to check existing serial number: %w", err)
	}

	sequentialID, err := s.allocator.NextNumber(ctx, donationID)
	if err != nil {
		if errors.Is(err, domain.ErrSerialConflict) {
			s.metrics.SerialConflicts.Inc()
		}
		return err
	}
	s.metrics.SerialsAllocated.Inc()

	code := strings.TrimSpace(s.formatter.Render(sequentialID, settings))
	title := settings.TitlePrefix + code
	slug := fmt.Sprintf("%s%d", settings.TitlePrefix, donationID)

	if err := s.donations.UpdateTitle(ctx, donationID, title, slug); err != nil {
		// The serial record stays allocated: a gap in the sequence is
		// preferred over risking a duplicate on retry.
		s.logger.Error("failed to write serial code to donation title",
			zap.Int64("donationID", donationID),
			zap.Int64("sequentialID", sequentialID),
			zap.Error(err),
		)
		return nil
	}

	if err := s.settings.SetInt64(ctx, domain.SettingSequentialNumber, sequentialID+1); err != nil {
		s.logger.Warn("failed to mirror next serial number setting", zap.Error(err))
	}

	s.logger.Info("assigned donation serial number",
		zap.Int64("donationID", donationID),
		zap.Int64("sequentialID", sequentialID),
		zap.String("code", code),
	)
	return nil
}

// HandleDonationDeleted removes the serial record of a permanently deleted
// donation. Absence is ignored.
func (s *DonationSerialService) HandleDonationDeleted(ctx context.Context, donationID int64) error {
	removed, err := s.serials.DeleteByDonationID(ctx, donationID)
	if err != nil {
		return fmt.Errorf("failed to remove serial number: %w", err)
	}
	if removed {
		s.logger.Info("removed donation serial number",
			zap.Int64("donationID", donationID),
		)
	}
	return nil
}

// SerialCode returns the display serial code for a donation. When
// sequential ordering is disabled, the donation is missing, or it has no
// serial record, the fallback dictated by opts is returned instead.
func (s *DonationSerialService) SerialCode(ctx context.Context, donationID int64, opts SerialCodeOptions) (string, error) {
	fallback := ""
	if opts.UseIDAsDefault {
		fallback = strconv.FormatInt(donationID, 10)
	}

	settings := s.sequentialSettings(ctx)
	if !settings.Enabled {
		return fallback, nil
	}

	code := fallback
	if _, err := s.serials.SequentialIDByDonation(ctx, donationID); err == nil {
		title, err := s.donations.TitleByID(ctx, donationID)
		if err != nil {
			if !errors.Is(err, domain.ErrDonationNotFound) {
				return "", err
			}
		} else {
			code = strings.Replace(title, settings.TitlePrefix, "", 1)
		}
	} else if !errors.Is(err, domain.ErrSerialNotFound) {
		return "", err
	}

	if opts.WithHash && code != "" {
		code = "#" + code
	}
	return code, nil
}

// SerialNumber resolves a donation id or display serial code to its
// sequential id. Numeric input is treated as a donation id.
func (s *DonationSerialService) SerialNumber(ctx context.Context, idOrCode string) (int64, error) {
	if donationID, err := strconv.ParseInt(idOrCode, 10, 64); err == nil {
		return s.serials.SequentialIDByDonation(ctx, donationID)
	}

	donationID, err := s.DonationID(ctx, idOrCode)
	if err != nil {
		if errors.Is(err, domain.ErrDonationNotFound) {
			return 0, domain.ErrSerialNotFound
		}
		return 0, err
	}
	return s.serials.SequentialIDByDonation(ctx, donationID)
}

// DonationID resolves a sequential number or display serial code to the
// owning donation id. Numeric input is treated as a sequential number;
// anything else is matched against stored donation titles.
func (s *DonationSerialService) DonationID(ctx context.Context, numberOrCode string) (int64, error) {
	if sequentialID, err := strconv.ParseInt(numberOrCode, 10, 64); err == nil {
		return s.serials.DonationIDBySequential(ctx, sequentialID)
	}

	settings := s.sequentialSettings(ctx)
	return s.donations.FindIDByExactTitle(ctx, settings.TitlePrefix+numberOrCode)
}

// MaxNumber returns the highest assigned sequential id, 0 when none exist.
func (s *DonationSerialService) MaxNumber(ctx context.Context) (int64, error) {
	return s.serials.MaxSequentialID(ctx)
}

// NextNumber returns the sequential id the next donation would display.
func (s *DonationSerialService) NextNumber(ctx context.Context) (int64, error) {
	max, err := s.serials.MaxSequentialID(ctx)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// RequestReseed records an admin request to resume numbering from start.
// The marker is honored by the next allocation and clears itself once the
// counter passes the requested value.
func (s *DonationSerialService) RequestReseed(ctx context.Context, start int64) error {
	if start <= 0 {
		return ErrInvalidReseedStart
	}
	if err := s.settings.SetInt64(ctx, domain.SettingReseedStart, start); err != nil {
		return err
	}
	if err := s.settings.SetBool(ctx, domain.SettingReseedPending, true); err != nil {
		return err
	}
	s.logger.Info("reseed requested", zap.Int64("start", start))
	return nil
}

// sequentialSettings resolves the live sequential ordering settings,
// merging stored options over the configured defaults. Storage errors
// degrade to the defaults: formatting must never block donation flow.
func (s *DonationSerialService) sequentialSettings(ctx context.Context) domain.SequentialSettings {
	resolved := s.defaults

	enabled, err := s.settings.GetBool(ctx, domain.SettingSequentialEnabled, s.defaults.Enabled)
	if err != nil {
		s.logger.Warn("failed to load sequential settings, using defaults", zap.Error(err))
		return resolved
	}
	resolved.Enabled = enabled

	if padding, err := s.settings.GetInt64(ctx, domain.SettingSequentialPadding, int64(s.defaults.Padding)); err == nil {
		if padding < 0 {
			padding = 0
		}
		resolved.Padding = int(padding)
	}
	if prefix, err := s.settings.GetString(ctx, domain.SettingSequentialPrefix, s.defaults.Prefix); err == nil {
		resolved.Prefix = prefix
	}
	if suffix, err := s.settings.GetString(ctx, domain.SettingSequentialSuffix, s.defaults.Suffix); err == nil {
		resolved.Suffix = suffix
	}

	return resolved
}
