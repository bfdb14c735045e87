package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// pure-Go sqlite driver registered as "sqlite"
	_ "modernc.org/sqlite"

	"github.com/wishlist-service/internal/config"
	"github.com/wishlist-service/internal/models"
)

// Open connects to the configured database, retrying with exponential
// backoff while the server is still coming up.
func Open(ctx context.Context, cfg config.DatabaseConfig, mode string, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger:         newGormLogger(log, mode),
		TranslateError: true,
	}

	backoff := cfg.ConnectBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var db *gorm.DB
	attempt := 0
	err = retry.Do(ctx, retry.WithMaxRetries(cfg.ConnectRetries, retry.NewExponential(backoff)), func(ctx context.Context) error {
		attempt++
		conn, err := gorm.Open(dialector, gormConfig)
		if err != nil {
			log.Warn("database connect failed", zap.String("driver", cfg.Driver), zap.Int("attempt", attempt), zap.Error(err))
			return retry.RetryableError(err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Warn("database ping failed", zap.String("driver", cfg.Driver), zap.Int("attempt", attempt), zap.Error(err))
			_ = sqlDB.Close()
			return retry.RetryableError(err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Driver, "attempts", attempt).Wrap(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == config.DriverSQLite {
		// one writer at a time; the in-memory database lives on that connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info("database connected", zap.String("driver", cfg.Driver), zap.Int("attempts", attempt))
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return gormsqlite.Dialector{DriverName: "sqlite", DSN: cfg.Path}, nil
	default:
		return nil, oops.Code("DB_UNSUPPORTED_DRIVER").Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Wishlist{}, &itemRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func newGormLogger(log *zap.Logger, mode string) logger.Interface {
	level := logger.Info
	if mode == "release" {
		level = logger.Warn
	}
	return logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
