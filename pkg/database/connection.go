package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DB struct {
	*gorm.DB
	Driver string
}

type ConnectionConfig struct {
	Driver          string
	DSN             string
	IsDevelopment   bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func NewConnection(driver, dsn string, isDevelopment bool) (*DB, error) {
	config := ConnectionConfig{
		Driver:          driver,
		DSN:             dsn,
		IsDevelopment:   isDevelopment,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
	}
	return NewConnectionWithConfig(config)
}

func NewConnectionWithConfig(config ConnectionConfig) (*DB, error) {
	driver := strings.ToLower(config.Driver)

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "sqlite3":
		driver = DriverSQLite
		dialector = sqlite.Open(config.DSN)
		// every :memory: connection is its own database
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	case DriverPostgres, "postgresql":
		driver = DriverPostgres
		dialector = postgres.Open(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	logLevel := logger.Error
	if config.IsDevelopment {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt:            driver == DriverPostgres,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"driver":         driver,
		"max_open_conns": config.MaxOpenConns,
	}).Info("Database connection established successfully")

	return &DB{DB: db, Driver: driver}, nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
