package db

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appcfg "userapi/internal/app/config"
	appdsn "userapi/internal/app/dsn"
)

// Connect opens the gorm engine described by cfg.DB.
// DB.URL picks the driver; without it a postgres DSN is built from the DB.* fields.
func Connect(cfg appcfg.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	kind := appdsn.KindPostgres
	if cfg.DB.URL != "" {
		k, dsn, err := appdsn.Detect(cfg.DB.URL)
		if err != nil {
			return nil, err
		}
		kind = k
		switch kind {
		case appdsn.KindSQLite:
			dialector = sqlite.Open(dsn)
		default:
			dialector = postgres.Open(dsn)
		}
	} else {
		d := appdsn.Postgres{Host: cfg.DB.Host, Port: cfg.DB.Port, User: cfg.DB.User, Password: cfg.DB.Pass, DBName: cfg.DB.Name, SSLMode: cfg.DB.SSLMode}
		dialector = postgres.Open(d.String())
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger(),
		TranslateError: true,
		NowFunc:        Now,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", kind, err)
	}
	logrus.Infof("connected to DB (%s)", kind)
	return gormDB, nil
}

// Now is the clock behind every timestamp the service writes: UTC, so
// created_at and updated_at of one row always share an offset.
func Now() time.Time { return time.Now().UTC() }

// EnsureSchema creates the tables and indexes for models when they are missing.
// Running it against an already migrated database changes nothing.
func EnsureSchema(ctx context.Context, gormDB *gorm.DB, models ...interface{}) error {
	if len(models) == 0 {
		return nil
	}
	if err := gormDB.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	logrus.Infof("schema ready (%d tables)", len(models))
	return nil
}

// Close releases the connection pool behind gormDB.
func Close(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("db unwrap: %w", err)
	}
	return sqlDB.Close()
}

func newLogger() logger.Interface {
	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
