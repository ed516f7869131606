package database

import (
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/nsxzhou1114/notify-api/internal/config"
	"github.com/nsxzhou1114/notify-api/internal/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitMySQL 初始化MySQL数据库连接，连接失败时按配置重试
func InitMySQL(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	err := retry.Do(
		func() error {
			var err error
			db, err = gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
		retry.Attempts(attempts(cfg.ConnectRetry)),
		retry.Delay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("重试连接MySQL",
				zap.Uint("attempt", n+1),
				zap.String("error", err.Error()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接池失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	// 默认连接最大生命周期为一小时
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("MySQL数据库连接成功", zap.String("database", cfg.Database))
	return db, nil
}

func attempts(n uint) uint {
	if n == 0 {
		return 1
	}
	return n
}
