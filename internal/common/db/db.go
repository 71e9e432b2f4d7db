package db

import (
	"fmt"
	"time"

	"github.com/CabPortal/CabPortal/internal/common/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	pingRetries  = 10
	pingInterval = 3 * time.Second
)

// Open 按配置的 driver 打开数据库连接（mysql / sqlite）。
// TranslateError 开启后，唯一索引冲突统一表现为 gorm.ErrDuplicatedKey。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQL(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.MaxIdle, cfg.MaxOpen)
	case "sqlite", "":
		return NewSQLite(cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// NewMySQL 创建 MySQL 连接并配置连接池；启动期容器内 DB 可能未就绪，做有限次 ping 重试。
func NewMySQL(host string, port int, user, password, database string, maxIdle, maxOpen int) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, database)

	var (
		gdb *gorm.DB
		err error
	)
	for i := 0; i < pingRetries; i++ {
		gdb, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			sqlDB, dbErr := gdb.DB()
			if dbErr == nil {
				if pingErr := sqlDB.Ping(); pingErr == nil {
					sqlDB.SetMaxIdleConns(maxIdle)
					sqlDB.SetMaxOpenConns(maxOpen)
					sqlDB.SetConnMaxLifetime(time.Hour)
					return gdb, nil
				}
			}
		}
		time.Sleep(pingInterval)
	}
	return nil, fmt.Errorf("failed to connect mysql %s:%d/%s: %w", host, port, database, err)
}

// NewSQLite 创建 SQLite 连接（纯 Go 驱动）；path 为 ":memory:" 时用于测试。
func NewSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "cab_booking.db"
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	return gdb, nil
}
