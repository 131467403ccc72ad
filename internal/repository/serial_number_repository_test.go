package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/repository"
	"github.com/donorflow/donation-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialNumberRepository_AllocateSequential(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		donation := testutil.CreateTestDonation(t, db, "Donor")
		id, err := repo.Allocate(ctx, donation.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}
}

func TestSerialNumberRepository_AllocateForced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	donation := testutil.CreateTestDonation(t, db, "Donor")
	id, err := repo.Allocate(ctx, donation.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), id)

	// Natural allocation resumes after the forced id
	next := testutil.CreateTestDonation(t, db, "Donor")
	id, err = repo.Allocate(ctx, next.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(101), id)
}

func TestSerialNumberRepository_AllocateForcedConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	first := testutil.CreateTestDonation(t, db, "Donor")
	_, err := repo.Allocate(ctx, first.ID, 0)
	require.NoError(t, err)

	second := testutil.CreateTestDonation(t, db, "Donor")
	_, err = repo.Allocate(ctx, second.ID, 1)
	assert.ErrorIs(t, err, domain.ErrSerialConflict)
}

func TestSerialNumberRepository_AllocateDuplicateDonation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	donation := testutil.CreateTestDonation(t, db, "Donor")
	_, err := repo.Allocate(ctx, donation.ID, 0)
	require.NoError(t, err)

	_, err = repo.Allocate(ctx, donation.ID, 0)
	assert.ErrorIs(t, err, domain.ErrSerialConflict)
}

func TestSerialNumberRepository_Watermark(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	watermark, err := repo.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), watermark, "empty store starts at 1")

	donation := testutil.CreateTestDonation(t, db, "Donor")
	_, err = repo.Allocate(ctx, donation.ID, 5)
	require.NoError(t, err)

	watermark, err = repo.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), watermark)
}

func TestSerialNumberRepository_WatermarkNeverLowers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	high := testutil.CreateTestDonation(t, db, "Donor")
	_, err := repo.Allocate(ctx, high.ID, 50)
	require.NoError(t, err)

	// A forced id below the high-water mark does not pull it down
	low := testutil.CreateTestDonation(t, db, "Donor")
	_, err = repo.Allocate(ctx, low.ID, 10)
	require.NoError(t, err)

	watermark, err := repo.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(51), watermark)

	// Neither does deleting the highest record
	removed, err := repo.DeleteByDonationID(ctx, high.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	watermark, err = repo.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(51), watermark)
}

func TestSerialNumberRepository_Lookups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	donation := testutil.CreateTestDonation(t, db, "Donor")
	id, err := repo.Allocate(ctx, donation.ID, 7)
	require.NoError(t, err)

	got, err := repo.SequentialIDByDonation(ctx, donation.ID)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	owner, err := repo.DonationIDBySequential(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, donation.ID, owner)

	_, err = repo.SequentialIDByDonation(ctx, 99999)
	assert.ErrorIs(t, err, domain.ErrSerialNotFound)

	_, err = repo.DonationIDBySequential(ctx, 99999)
	assert.ErrorIs(t, err, domain.ErrSerialNotFound)
}

func TestSerialNumberRepository_DeleteByDonationID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	donation := testutil.CreateTestDonation(t, db, "Donor")
	_, err := repo.Allocate(ctx, donation.ID, 0)
	require.NoError(t, err)

	removed, err := repo.DeleteByDonationID(ctx, donation.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = repo.SequentialIDByDonation(ctx, donation.ID)
	assert.ErrorIs(t, err, domain.ErrSerialNotFound)

	// Absence is not an error
	removed, err = repo.DeleteByDonationID(ctx, donation.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSerialNumberRepository_MaxSequentialID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	max, err := repo.MaxSequentialID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)

	a := testutil.CreateTestDonation(t, db, "Donor")
	b := testutil.CreateTestDonation(t, db, "Donor")
	_, err = repo.Allocate(ctx, a.ID, 0)
	require.NoError(t, err)
	_, err = repo.Allocate(ctx, b.ID, 40)
	require.NoError(t, err)

	max, err = repo.MaxSequentialID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(40), max)

	// Max follows deletions, unlike the watermark
	_, err = repo.DeleteByDonationID(ctx, b.ID)
	require.NoError(t, err)

	max, err = repo.MaxSequentialID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), max)
}

func TestSerialNumberRepository_DeleteOrphans(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	kept := testutil.CreateTestDonation(t, db, "Donor")
	gone := testutil.CreateTestDonation(t, db, "Donor")
	_, err := repo.Allocate(ctx, kept.ID, 0)
	require.NoError(t, err)
	_, err = repo.Allocate(ctx, gone.ID, 0)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&domain.Donation{}, gone.ID).Error)

	removed, err := repo.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.SequentialIDByDonation(ctx, kept.ID)
	assert.NoError(t, err)
	_, err = repo.SequentialIDByDonation(ctx, gone.ID)
	assert.ErrorIs(t, err, domain.ErrSerialNotFound)
}

func TestSerialNumberRepository_ConcurrentAllocations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSerialNumberRepository(db)
	ctx := context.Background()

	const workers = 20

	donations := make([]int64, workers)
	for i := range donations {
		donations[i] = testutil.CreateTestDonation(t, db, "Donor").ID
	}

	var wg sync.WaitGroup
	results := make([]int64, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.Allocate(ctx, donations[i], 0)
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[results[i]], "sequential id %d assigned twice", results[i])
		seen[results[i]] = true
	}

	watermark, err := repo.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers+1), watermark)
}
