package database

import (
	"fmt"
	"time"

	"github.com/soundtrace/engine/internal/logger"
	"github.com/soundtrace/engine/internal/metrics"
	"github.com/soundtrace/engine/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Initialize opens a pooled connection to the relational store and returns
// it. The caller is responsible for holding the handle (via the container)
// and calling Close at shutdown.
func Initialize(databaseURL, environment string) (*gorm.DB, error) {
	gormLogger := gormlogger.Default
	if environment == "development" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	registerMetricsHooks(db)

	logger.Log.Info("database connected")
	return db, nil
}

// Migrate auto-migrates the tracks table. Schema migrations beyond this are
// an external (non-goal) concern.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Track{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tracks_title_lower ON tracks (LOWER(title))")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tracks_artist_lower ON tracks (LOWER(artist))")
	return nil
}

// Close closes the connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health runs a trivial query to verify connectivity, per the startup check.
func Health(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func registerMetricsHooks(db *gorm.DB) {
	record := func(op, table string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			start, ok := db.InstanceGet("metrics:start_time")
			if !ok {
				return
			}
			duration := time.Since(start.(time.Time)).Seconds()
			metrics.Get().DatabaseQueryDuration.WithLabelValues(op, table).Observe(duration)
			status := "success"
			if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
				status = "error"
			}
			metrics.Get().DatabaseQueriesTotal.WithLabelValues(op, table, status).Inc()
		}
	}
	markStart := func(db *gorm.DB) { db.InstanceSet("metrics:start_time", time.Now()) }

	db.Callback().Create().Before("gorm:before_create").Register("metrics:before_create", markStart)
	db.Callback().Create().After("gorm:after_create").Register("metrics:after_create", record("create", "tracks"))
	db.Callback().Query().Before("gorm:before_query").Register("metrics:before_query", markStart)
	db.Callback().Query().After("gorm:after_query").Register("metrics:after_query", record("query", "tracks"))
	db.Callback().Update().Before("gorm:before_update").Register("metrics:before_update", markStart)
	db.Callback().Update().After("gorm:after_update").Register("metrics:after_update", record("update", "tracks"))
	db.Callback().Delete().Before("gorm:before_delete").Register("metrics:before_delete", markStart)
	db.Callback().Delete().After("gorm:after_delete").Register("metrics:after_delete", record("delete", "tracks"))
}
