package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/donorflow/donation-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository handles database operations for admin-configurable
// key/value settings. Typed getters are permissive: a missing key or an
// unparseable stored value yields the caller's default, since a broken
// option must never block donation processing.
type SettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new SettingRepository
func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction.
func (r *SettingRepository) WithTx(tx *gorm.DB) *SettingRepository {
	return &SettingRepository{db: tx}
}

// Get returns the raw stored value for a key, domain.ErrSettingNotFound
// when absent.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var setting domain.Setting
	err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return setting.Value, nil
}

// Set stores a value for a key, creating or overwriting it.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	setting := domain.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&domain.Setting{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// GetString returns the stored value or def when the key is absent.
func (r *SettingRepository) GetString(ctx context.Context, key, def string) (string, error) {
	value, err := r.Get(ctx, key)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return value, nil
}

// GetBool returns the stored value parsed as a bool, def when absent or
// unparseable.
func (r *SettingRepository) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	value, err := r.Get(ctx, key)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	parsed, parseErr := strconv.ParseBool(value)
	if parseErr != nil {
		return def, nil
	}
	return parsed, nil
}

// GetInt64 returns the stored value parsed as an int64, def when absent or
// unparseable.
func (r *SettingRepository) GetInt64(ctx context.Context, key string, def int64) (int64, error) {
	value, err := r.Get(ctx, key)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	parsed, parseErr := strconv.ParseInt(value, 10, 64)
	if parseErr != nil {
		return def, nil
	}
	return parsed, nil
}

// SetBool stores a bool value for a key.
func (r *SettingRepository) SetBool(ctx context.Context, key string, value bool) error {
	return r.Set(ctx, key, strconv.FormatBool(value))
}

// SetInt64 stores an int64 value for a key.
func (r *SettingRepository) SetInt64(ctx context.Context, key string, value int64) error {
	return r.Set(ctx, key, strconv.FormatInt(value, 10))
}
