package database

import (
	"cnpjapi/cmd/internal/domain/entity"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	PingTimeout = 2 * time.Second
)

type Config struct {
	// DSN is a postgres connection string. When empty a local SQLite file
	// at SQLitePath is used instead.
	DSN        string
	SQLitePath string
	Production bool

	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration

	// Migrations runs the embedded SQL migrations instead of AutoMigrate.
	// Only honoured for postgres.
	Migrations bool
	Debug      bool
}

// Models lists every table managed by AutoMigrate.
var Models = []any{
	&entity.Company{},
	&entity.LookupCacheEntry{},
}

// Init opens the database. Postgres being unreachable is not fatal: the
// returned Schema is left pending and sets the tables up once a later
// Ensure reaches the server.
func Init(cfg Config) (*gorm.DB, *Schema, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	ctx := context.Background()

	if cfg.DSN == "" {
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(".", "database.db")
		}
		db, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite at %s: %w", path, err)
		}
		log.Warnf("DATABASE_URL not set, using local sqlite database at %s", path)

		schema := newSchema(autoMigrate(db))
		if err = schema.Ensure(ctx); err != nil {
			return nil, nil, err
		}
		configurePoolFor(db, cfg)
		return db, schema, nil
	}

	dsn := NormalizeDSN(cfg.DSN, cfg.Production, cfg.ConnectTimeout)
	// The pool connects lazily, an unreachable server is reported by
	// the caller instead of aborting startup
	gormCfg.DisableAutomaticPing = true
	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	configurePoolFor(db, cfg)

	apply := autoMigrate(db)
	if cfg.Migrations {
		apply = func(context.Context) error {
			if err := RunMigrations(dsn); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			return nil
		}
	}
	schema := newSchema(apply)

	if err = Ping(ctx, db); err != nil {
		log.Warnf("postgres at %s is unreachable, deferring schema setup: %v", MaskDSN(dsn), err)
		return db, schema, nil
	}
	log.Infof("connected to postgres at %s", MaskDSN(dsn))

	if err = schema.Ensure(ctx); err != nil {
		return nil, nil, err
	}
	return db, schema, nil
}

func autoMigrate(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.WithContext(ctx).AutoMigrate(Models...); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		return nil
	}
}

func configurePoolFor(db *gorm.DB, cfg Config) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warnf("unable to configure connection pool: %v", err)
		return
	}
	configurePool(sqlDB, db.Dialector.Name(), cfg)
}

func configurePool(sqlDB *sql.DB, driver string, cfg Config) {
	// SQLite allows a single writer
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
		return
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// Ping runs a trivial query, bounded by PingTimeout.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	var now string
	return db.WithContext(ctx).Raw("SELECT CURRENT_TIMESTAMP").Scan(&now).Error
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Pinger adapts a *gorm.DB to a Ping(ctx) error method. When Schema is
// set, a successful ping also finishes a schema setup deferred at startup.
type Pinger struct {
	DB     *gorm.DB
	Schema *Schema
}

func (p Pinger) Ping(ctx context.Context) error {
	if err := Ping(ctx, p.DB); err != nil {
		return err
	}
	if p.Schema != nil {
		return p.Schema.Ensure(ctx)
	}
	return nil
}
