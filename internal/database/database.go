package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"userhook/internal/config"
	"userhook/internal/models"
)

// Open connects to the configured database variant. Driver errors are
// translated by GORM so the repositories can match on sentinel errors
// (gorm.ErrDuplicatedKey, gorm.ErrRecordNotFound) instead of sniffing
// driver-specific message strings.
func Open(cfg config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}

	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.SQLitePath, err)
		}
		return db, nil

	case config.DriverPostgres:
		dsn, err := cfg.PostgresDSN()
		if err != nil {
			return nil, err
		}
		db, err := gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access underlying connection pool: %w", err)
		}
		// Recycle pooled connections and verify them up front, so a
		// stale connection from a provider-side idle timeout is not
		// handed to the first request.
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (expected %q or %q)",
			cfg.DBDriver, config.DriverSQLite, config.DriverPostgres)
	}
}

// Migrate creates the users table and its secondary indexes. The
// postgres variant additionally maintains a GIN index over the
// user_data document column, which AutoMigrate cannot express.
// Callers abort startup on error.
func Migrate(db *gorm.DB, driver string) error {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	if driver == config.DriverPostgres {
		gin := "CREATE INDEX IF NOT EXISTS idx_users_data_gin ON users USING GIN(user_data)"
		if err := db.Exec(gin).Error; err != nil {
			return fmt.Errorf("failed to create user_data GIN index: %w", err)
		}
	}
	return nil
}

// Version probes connectivity with a trivial query and returns the
// store's reported version string.
func Version(db *gorm.DB, driver string) (string, error) {
	var version string
	probe := "SELECT version()"
	if driver == config.DriverSQLite {
		probe = "SELECT sqlite_version()"
	}
	if err := db.Raw(probe).Scan(&version).Error; err != nil {
		return "", err
	}
	return version, nil
}

// Provider returns the human-readable store label used by the health
// endpoint.
func Provider(driver string) string {
	if driver == config.DriverPostgres {
		return "PostgreSQL"
	}
	return "SQLite"
}
