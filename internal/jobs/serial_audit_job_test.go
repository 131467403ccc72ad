package jobs_test

import (
	"context"
	"testing"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/jobs"
	"github.com/donorflow/donation-api/internal/repository"
	"github.com/donorflow/donation-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSerialAuditJob_RemovesOrphansAndMirrorsWatermark(t *testing.T) {
	db := testutil.SetupTestDB(t)
	serials := repository.NewSerialNumberRepository(db)
	settings := repository.NewSettingRepository(db)
	ctx := context.Background()

	kept := testutil.CreateTestDonation(t, db, "Kept")
	gone := testutil.CreateTestDonation(t, db, "Gone")
	_, err := serials.Allocate(ctx, kept.ID, 0)
	require.NoError(t, err)
	_, err = serials.Allocate(ctx, gone.ID, 0)
	require.NoError(t, err)

	// Delete the donation behind the second serial record
	require.NoError(t, db.Delete(&domain.Donation{}, gone.ID).Error)

	job := jobs.NewSerialAuditJob(serials, settings, zap.NewNop())
	job.Run(ctx)

	_, err = serials.SequentialIDByDonation(ctx, gone.ID)
	assert.ErrorIs(t, err, domain.ErrSerialNotFound)
	_, err = serials.SequentialIDByDonation(ctx, kept.ID)
	assert.NoError(t, err)

	// The next-number setting mirrors the watermark, which survives the
	// orphan removal
	mirrored, err := settings.GetInt64(ctx, domain.SettingSequentialNumber, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), mirrored)
}

func TestSerialAuditJob_EmptyStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	serials := repository.NewSerialNumberRepository(db)
	settings := repository.NewSettingRepository(db)

	job := jobs.NewSerialAuditJob(serials, settings, zap.NewNop())
	job.Run(context.Background())

	mirrored, err := settings.GetInt64(context.Background(), domain.SettingSequentialNumber, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mirrored)
}
