package database

import (
	"fmt"
	"strings"
	"time"

	"polly-backend/config"
	"polly-backend/logging"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. SQLite connections always run
// with foreign keys enabled so option and vote cascades fire.
func Open(cfg config.DatabaseConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	log := logging.Module("database")
	log.WithField("driver", dialector.Name()).Info("connecting to database")

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if dialector.Name() == "sqlite" {
		// SQLite serializes writers anyway; one connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// SQLiteDSN appends the foreign key pragma to a SQLite file path or DSN
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=1"
	}
	return path + "?_foreign_keys=1"
}

// Ping checks the connection is alive
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) {
	log := logging.Module("database")

	sqlDB, err := db.DB()
	if err != nil {
		log.Errorf("failed to get database connection: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Errorf("failed to close database connection: %v", err)
		return
	}

	log.Info("database connection closed")
}

func newLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		logging.Module("gorm"),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
