package database

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pyrooka/mail2mp3/config"
	"github.com/pyrooka/mail2mp3/internal/models"
)

// InitLedgerDatabase opens the processed-message ledger database and runs
// its migration. Callers must only invoke it when the ledger is enabled.
func InitLedgerDatabase(cfg *config.LedgerDatabaseConfig) (*gorm.DB, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	portInt, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port number: %w", err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, portInt, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.ProcessedMessage{}); err != nil {
		return nil, fmt.Errorf("ledger migration failed: %w", err)
	}

	return db, nil
}

func validateConfig(cfg *config.LedgerDatabaseConfig) error {
	switch {
	case cfg == nil:
		return fmt.Errorf("ledger database config is nil")
	case cfg.Host == "":
		return fmt.Errorf("ledger database host is empty")
	case cfg.Port == "":
		return fmt.Errorf("ledger database port is empty")
	case cfg.User == "":
		return fmt.Errorf("ledger database user is empty")
	case cfg.Password == "":
		return fmt.Errorf("ledger database password is empty")
	case cfg.DBName == "":
		return fmt.Errorf("ledger database name is empty")
	case cfg.SSLMode == "":
		return fmt.Errorf("ledger database sslmode is empty")
	}
	return nil
}
