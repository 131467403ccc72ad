package jobs

import (
	"context"
	"time"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/repository"
	"go.uber.org/zap"
)

// serialAuditTimeout bounds a single audit run.
const serialAuditTimeout = 2 * time.Minute

// SerialAuditJob keeps the serial number store consistent with the donation
// table: it prunes serial records whose donation has been removed outside
// the normal lifecycle path and re-mirrors the next-number setting shown to
// admins.
type SerialAuditJob struct {
	serials  *repository.SerialNumberRepository
	settings *repository.SettingRepository
	logger   *zap.Logger
}

// NewSerialAuditJob creates a new SerialAuditJob
func NewSerialAuditJob(
	serials *repository.SerialNumberRepository,
	settings *repository.SettingRepository,
	logger *zap.Logger,
) *SerialAuditJob {
	return &SerialAuditJob{
		serials:  serials,
		settings: settings,
		logger:   logger,
	}
}

// Run executes one audit pass.
func (j *SerialAuditJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, serialAuditTimeout)
	defer cancel()

	removed, err := j.serials.DeleteOrphans(ctx)
	if err != nil {
		j.logger.Error("serial audit failed to remove orphans", zap.Error(err))
		return
	}
	if removed > 0 {
		j.logger.Warn("removed orphaned serial numbers",
			zap.Int64("count", removed),
		)
	}

	watermark, err := j.serials.Watermark(ctx)
	if err != nil {
		j.logger.Error("serial audit failed to read watermark", zap.Error(err))
		return
	}
	if err := j.settings.SetInt64(ctx, domain.SettingSequentialNumber, watermark); err != nil {
		j.logger.Error("serial audit failed to mirror next number", zap.Error(err))
		return
	}

	j.logger.Debug("serial audit completed",
		zap.Int64("orphans_removed", removed),
		zap.Int64("watermark", watermark),
	)
}

// RegisterSerialAuditJob schedules the audit job on the scheduler.
func RegisterSerialAuditJob(s *Scheduler, job *SerialAuditJob, cronExpr string) error {
	return s.AddJob("serial_audit", cronExpr, func() {
		job.Run(context.Background())
	})
}
