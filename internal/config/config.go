package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/donorflow/donation-api/internal/secrets"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Sequential SequentialConfig
	Logging    LoggingConfig
	Ops        OpsConfig
	Jobs       JobsConfig
	Secrets    SecretsConfig
}

type AppConfig struct {
	Name        string `validate:"required"`
	Environment string `validate:"required"`
}

type DatabaseConfig struct {
	Host            string `validate:"required"`
	Port            int    `validate:"gt=0"`
	Name            string `validate:"required"`
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	// MigrationsDir is where the goose runner looks for SQL migrations.
	MigrationsDir string
}

// SequentialConfig holds the bootstrap defaults for sequential donation
// numbering. The enabled flag, padding, prefix and suffix can be overridden
// at runtime through the settings store; TitlePrefix cannot, since changing
// it would orphan every stored serial-coded title.
type SequentialConfig struct {
	Enabled bool
	// Padding is the minimum digit width of the serial number, zero-filled.
	// Zero means no padding.
	Padding int
	Prefix  string
	Suffix  string
	// TitlePrefix is the storage-internal marker prepended to serial-coded
	// donation titles. Distinct from the display Prefix.
	TitlePrefix string `validate:"required"`
}

type LoggingConfig struct {
	Level  string
	Format string
}

// OpsConfig configures the operational HTTP listener (health, metrics).
type OpsConfig struct {
	Port int `validate:"gt=0"`
}

// JobsConfig configures background maintenance jobs.
type JobsConfig struct {
	// SerialAuditEnabled turns on the periodic serial audit job that prunes
	// orphaned serial records and re-mirrors the next-number setting.
	SerialAuditEnabled bool
	// SerialAuditCron is the schedule in robfig/cron syntax.
	SerialAuditCron string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// Defaults returns the SequentialConfig as resolved domain defaults.
func (s *SequentialConfig) Defaults() (enabled bool, padding int, prefix, suffix, titlePrefix string) {
	return s.Enabled, s.Padding, s.Prefix, s.Suffix, s.TitlePrefix
}

// Load loads configuration from file and environment variables.
// Use LoadWithSecrets for full secret resolution.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A malformed padding must not block startup: the serial code is
	// best-effort decoration, so fall back to "no padding".
	if cfg.Sequential.Padding < 0 {
		cfg.Sequential.Padding = 0
	}

	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves database credentials from
// the configured secret source. In development (or when secrets.source =
// "environment") credentials come from env vars; in staging/production with
// USE_AZURE_KEY_VAULT=true they come from Azure Key Vault.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault || !isValidEnv {
		logger.Info("using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
			zap.Bool("use_key_vault", useKeyVault),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if host, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-HOST", "DATABASE_HOST"); err == nil && host != "" {
		cfg.Database.Host = host
	}
	if user, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-USER", "DATABASE_USER"); err == nil && user != "" {
		cfg.Database.User = user
	}
	if password, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD"); err == nil && password != "" {
		cfg.Database.Password = password
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	logger.Info("secrets loaded from vault successfully")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Donorflow Donation API")
	v.SetDefault("app.environment", "development")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "donations")
	v.SetDefault("database.user", "donation_user")
	v.SetDefault("database.password", "donation_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.migrationsDir", "./migrations")

	// Sequential ordering defaults
	v.SetDefault("sequential.enabled", true)
	v.SetDefault("sequential.padding", 0)
	v.SetDefault("sequential.prefix", "")
	v.SetDefault("sequential.suffix", "")
	v.SetDefault("sequential.titlePrefix", "donation-")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Ops listener defaults
	v.SetDefault("ops.port", 9090)

	// Jobs defaults
	v.SetDefault("jobs.serialAuditEnabled", false)
	v.SetDefault("jobs.serialAuditCron", "@hourly")

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300) // 5 minutes
}
