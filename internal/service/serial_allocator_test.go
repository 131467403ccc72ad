package service_test

import (
	"context"
	"testing"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/repository"
	"github.com/donorflow/donation-api/internal/service"
	"github.com/donorflow/donation-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type allocatorFixture struct {
	db        *gorm.DB
	serials   *repository.SerialNumberRepository
	settings  *repository.SettingRepository
	allocator *service.SerialAllocator
}

func newAllocatorFixture(t *testing.T) *allocatorFixture {
	db := testutil.SetupTestDB(t)
	serials := repository.NewSerialNumberRepository(db)
	settings := repository.NewSettingRepository(db)
	return &allocatorFixture{
		db:        db,
		serials:   serials,
		settings:  settings,
		allocator: service.NewSerialAllocator(db, serials, settings, zap.NewNop()),
	}
}

func (f *allocatorFixture) allocateFor(t *testing.T, donationName string) int64 {
	t.Helper()
	donation := testutil.CreateTestDonation(t, f.db, donationName)
	id, err := f.allocator.NextNumber(context.Background(), donation.ID)
	require.NoError(t, err)
	return id
}

func (f *allocatorFixture) seedCounter(t *testing.T, lastID int64) {
	t.Helper()
	donation := testutil.CreateTestDonation(t, f.db, "Seed")
	_, err := f.serials.Allocate(context.Background(), donation.ID, lastID)
	require.NoError(t, err)
}

func (f *allocatorFixture) requestReseed(t *testing.T, start int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.settings.SetInt64(ctx, domain.SettingReseedStart, start))
	require.NoError(t, f.settings.SetBool(ctx, domain.SettingReseedPending, true))
}

func (f *allocatorFixture) reseedPending(t *testing.T) bool {
	t.Helper()
	pending, err := f.settings.GetBool(context.Background(), domain.SettingReseedPending, false)
	require.NoError(t, err)
	return pending
}

func TestSerialAllocator_NaturalSequence(t *testing.T) {
	f := newAllocatorFixture(t)

	assert.Equal(t, int64(1), f.allocateFor(t, "A"))
	assert.Equal(t, int64(2), f.allocateFor(t, "B"))
	assert.Equal(t, int64(3), f.allocateFor(t, "C"))
}

func TestSerialAllocator_ReseedBelowWatermark(t *testing.T) {
	f := newAllocatorFixture(t)
	f.seedCounter(t, 49)

	f.requestReseed(t, 30)

	// The counter is already past 30: the start is issued once and the
	// stale marker clears immediately.
	assert.Equal(t, int64(30), f.allocateFor(t, "A"))
	assert.False(t, f.reseedPending(t))

	// Numbering resumes from the high-water mark, not from 31
	assert.Equal(t, int64(50), f.allocateFor(t, "B"))
}

func TestSerialAllocator_ReseedAboveWatermark(t *testing.T) {
	f := newAllocatorFixture(t)
	f.seedCounter(t, 49)

	f.requestReseed(t, 60)

	// Watermark 50 has not passed 60: the start is issued and the marker
	// stays pending.
	assert.Equal(t, int64(60), f.allocateFor(t, "A"))
	assert.True(t, f.reseedPending(t))

	// Next allocation sees watermark 61 > 60, clears the marker, and the
	// forced 60 conflicts into a natural 61.
	assert.Equal(t, int64(61), f.allocateFor(t, "B"))
	assert.False(t, f.reseedPending(t))

	assert.Equal(t, int64(62), f.allocateFor(t, "C"))
}

func TestSerialAllocator_ReseedTargetTaken(t *testing.T) {
	f := newAllocatorFixture(t)
	f.seedCounter(t, 30)
	f.seedCounter(t, 49)

	f.requestReseed(t, 30)

	// 30 is already assigned: the forced insert conflicts and the
	// allocation falls back to the natural next id.
	assert.Equal(t, int64(50), f.allocateFor(t, "A"))
	assert.False(t, f.reseedPending(t))
}

func TestSerialAllocator_InvalidReseedStartCleared(t *testing.T) {
	f := newAllocatorFixture(t)
	f.requestReseed(t, 0)

	assert.Equal(t, int64(1), f.allocateFor(t, "A"))
	assert.False(t, f.reseedPending(t))
}
