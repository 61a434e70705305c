package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/hkpodravka/klub/internal/config"
	"github.com/hkpodravka/klub/internal/models"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations
var migrationFS embed.FS

// Connect opens the configured store, retrying a few times for postgres
// which may still be starting.
func Connect(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	if cfg.IsSQLite() {
		log.WithField("path", cfg.Path).Info("opening sqlite store")
		db, err := gorm.Open(sqlite.Open(cfg.SQLiteDSN()), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite allows a single writer at a time.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil
	}

	var db *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", i+1).Warn("postgres not ready, retrying")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return db, nil
}

// Migrate brings the schema up to date. With useSQL the embedded versioned
// SQL migrations are applied; otherwise AutoMigrate adds missing tables and
// columns. Neither path drops anything.
func Migrate(db *gorm.DB, useSQL bool) error {
	if useSQL {
		if err := runSQLMigrations(db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range []string{"club_info", "members", "competitions", "results"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// runSQLMigrations applies migrations/<dialect>/*.sql through golang-migrate,
// reusing the already open connection.
func runSQLMigrations(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	dialect := db.Dialector.Name()

	var driver database.Driver
	switch dialect {
	case "sqlite":
		driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	case "postgres":
		driver, err = migratepg.WithInstance(sqlDB, &migratepg.Config{})
	default:
		return fmt.Errorf("no sql migrations for dialect %q", dialect)
	}
	if err != nil {
		return err
	}

	sub, err := fs.Sub(migrationFS, "migrations/"+dialect)
	if err != nil {
		return err
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	// m.Close would also close the shared *sql.DB, so only the source is released.
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
