package database

import (
	"fmt"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	projectDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/project"
	sopDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/sop"
	taskDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/task"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&userDatamodel.DeviceToken{},
		&groupDatamodel.Group{},
		&groupDatamodel.Membership{},
		&groupDatamodel.Permission{},
		&groupDatamodel.GroupPermission{},
		&projectDatamodel.Project{},
		&projectDatamodel.Todo{},
		&projectDatamodel.Assignment{},
		&taskDatamodel.Task{},
		&sopDatamodel.SOP{},
		&sopDatamodel.Agreement{},
	}
}

// Open connects gorm to the configured driver and applies the pool settings.
func Open(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DriverPostgres:
		dialector = postgres.Open(cfg.Source)
	case internal.DriverSQLite:
		dialector = sqlite.Open(cfg.Source)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == internal.DriverSQLite {
		// sqlite serialises writers; a single connection also keeps
		// in-memory databases from splitting across connections.
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(cfg.MaxIdleConns, maxOpen))
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// SQLX shares gorm's connection pool with sqlx for hand-written read queries.
func SQLX(db *gorm.DB, driver string) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	driverName := "pgx"
	if driver == internal.DriverSQLite {
		driverName = "sqlite3"
	}
	return sqlx.NewDb(sqlDB, driverName), nil
}

// AutoMigrate creates the schema through gorm. Postgres deployments use the
// goose migrations under db/migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// OpenInMemory returns a migrated sqlite database that lives as long as the
// returned handle, for tests and local experiments.
func OpenInMemory() (*gorm.DB, *sqlx.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		return nil, nil, err
	}

	sx, err := SQLX(db, internal.DriverSQLite)
	if err != nil {
		return nil, nil, err
	}
	return db, sx, nil
}
