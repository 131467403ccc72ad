// Package testutil provides shared helpers for repository and service tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/donorflow/donation-api/internal/database"
	"github.com/donorflow/donation-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// SetupTestDB opens a fresh in-memory SQLite database with the full schema
// migrated. Each call gets its own database; shared cache keeps it alive
// across the pooled connections, and a single open connection serializes
// writers the way the row lock does on postgres.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db), "Failed to migrate test database")

	return db
}

// CreateTestDonation inserts a donation with sensible defaults and returns it.
func CreateTestDonation(t *testing.T, db *gorm.DB, name string) *domain.Donation {
	t.Helper()

	donation := &domain.Donation{
		DonorName:  name,
		DonorEmail: "test@example.com",
		Amount:     2500,
		Currency:   "USD",
		Status:     domain.DonationStatusPending,
	}
	require.NoError(t, db.Create(donation).Error)
	return donation
}
