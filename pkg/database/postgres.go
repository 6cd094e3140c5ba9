// Package database opens the gorm connection to PostgreSQL.
package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rohitbhanushali/uber-clone-source-code/pkg/config"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Connect opens a pooled connection and waits until the server answers a ping.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if dbErr = sqlDB.Ping(); dbErr == nil {
					sqlDB.SetMaxOpenConns(20)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(30 * time.Minute)
					log.Info("connected to database",
						zap.String("host", cfg.Host),
						zap.String("db", cfg.DBName),
					)
					return db, nil
				}
			}
			err = dbErr
		}
		lastErr = err
		log.Warn("database not ready",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		time.Sleep(connectBackoff)
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}
