// Package infra は外部サービスとの接続を提供する。
package infra

import (
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"jwks-server/config"
)

const sqlitePrefix = "sqlite://"

// NewDB はgormによるデータベース接続を初期化する。
// "sqlite://" で始まるURLはSQLite、それ以外はMySQLのDSNとして扱う。
func NewDB(dsn string, cfg *config.Config) (*gorm.DB, error) {
	path, isSQLite := strings.CutPrefix(dsn, sqlitePrefix)
	dialector := mysql.Open(dsn)
	if isSQLite {
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if cfg != nil && cfg.OtelEnabled {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 接続プール設定
	// SQLiteは書き込みが1接続に限られ、:memory: は接続ごとに別DBになる
	if isSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}
