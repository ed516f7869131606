package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nsxzhou1114/notify-api/internal/logger"
	"github.com/nsxzhou1114/notify-api/internal/repository"
	"github.com/nsxzhou1114/notify-api/internal/service"
	"github.com/spf13/cobra"
)

var cleanupDays int

// cleanupCmd 清理已读通知命令
// 示例：./notify-api cleanup --days 30
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "清理已读通知",
	Long:  `删除已读时间早于指定天数的通知，未读通知不会被删除`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCleanup()
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "保留天数，默认使用配置中的retention_days")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup() error {
	cfg, db, err := initializeSystem()
	if err != nil {
		return err
	}
	defer logger.Sync()

	days := cleanupDays
	if days <= 0 {
		days = cfg.Notification.RetentionDays
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	svc := service.NewCleanupService(repository.NewNotificationRepository(db), days, logger.GetSugaredLogger())
	deleted, err := svc.CleanupReadNotifications(ctx, days)
	if err != nil {
		return err
	}
	fmt.Printf("✅ 已删除 %d 条 %d 天前已读的通知\n", deleted, days)
	return nil
}
