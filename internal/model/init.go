package model

import (
	"fmt"

	"gorm.io/gorm"
)

// 通知服务自己拥有的表，users/posts 由内容服务维护
var models = []interface{}{
	&Notification{},
}

// InitTables 初始化数据库表
func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("自动迁移数据库表失败: %w", err)
	}
	return nil
}
