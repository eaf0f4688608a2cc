package database

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	logging "github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/logging"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// DB is the session archive, nil when archiving is disabled or unavailable.
var DB *gorm.DB

// Init opens the configured archive, migrates it and stores it in DB.
func Init(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg, log)
	if err != nil {
		return nil, err
	}
	if db == nil {
		log.Info("Session archive disabled")
		return nil, nil
	}
	if err := RunMigrations(db, log); err != nil {
		return nil, err
	}
	DB = db
	return db, nil
}

// Dialector picks the gorm driver for cfg.Driver. "none" yields nil.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, sslmode)
		return postgres.Open(dsn), nil
	case "sqlite", "":
		path := cfg.SQLitePath
		if path == "" {
			path = ":memory:"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("could not create database directory: %w", err)
			}
		}
		return sqlite.Open(path), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects without migrating.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil || dialector == nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormZapLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialector.Name() == "sqlite" && (cfg.SQLitePath == "" || cfg.SQLitePath == ":memory:") {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Database connection established successfully.", zap.String("driver", dialector.Name()))
	return db, nil
}

// RunMigrations creates the archive tables and the custom indexes
// AutoMigrate does not.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.SessionRecord{},
		&models.BiasEventRecord{},
		&models.EventMarkerRecord{},
		&models.SessionMetricRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_bias_events_session ON bias_event_records (session_id, sequence);`,
		`CREATE INDEX IF NOT EXISTS idx_event_markers_session ON event_marker_records (session_id, sequence);`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create custom index: %w", err)
		}
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
