package db

import (
	"fmt"
	"strings"
	"time"

	"readlater/internal/config"
	"readlater/internal/content"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// Connect opens the store named by dsn. A "sqlite://<path>" dsn opens an
// embedded database; anything else is handed to the postgres driver.
func Connect(dsn string, pool config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 newGormLogger(log),
	}

	if path, ok := strings.CutPrefix(dsn, sqliteScheme); ok {
		gdb, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gcfg)
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer.
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
		if err := configurePool(gdb, pool); err != nil {
			return nil, err
		}
		return gdb, nil
	}

	gdb, err := gorm.Open(postgres.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}
	if err := configurePool(gdb, pool); err != nil {
		return nil, err
	}
	return gdb, nil
}

// sqliteDSN attaches the connection pragmas to path. They run on every new
// connection, so foreign keys stay on when the pool recycles one.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func configurePool(gdb *gorm.DB, pool config.DBConfig) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return nil
}

func newGormLogger(log *zap.Logger) gormlogger.Interface {
	if log == nil {
		return gormlogger.Discard
	}
	return gormlogger.New(
		zap.NewStdLog(log.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)
}

// AutoMigrateAndIndexes creates the tables with their foreign keys and the
// composite indexes used by the list query.
func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(content.Models()...); err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_content_items_user_added on content_items(user_id, date_added desc, id desc);`,
		`create index if not exists idx_content_items_user_status on content_items(user_id, status);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
