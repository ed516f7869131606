package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nsxzhou1114/notify-api/internal/logger"
	"github.com/nsxzhou1114/notify-api/internal/repository"
	"github.com/spf13/cobra"
)

// statsCmd 统计命令
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "通知统计信息",
	Long:  `显示通知总数、未读数和各类型的数量`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStats()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// showStats 显示通知统计信息
func showStats() error {
	_, db, err := initializeSystem()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := repository.NewNotificationRepository(db).Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Println("📊 通知统计")
	fmt.Printf("总数: %d\n", summary.Total)
	fmt.Printf("未读: %d\n", summary.Unread)
	for typ, count := range summary.ByType {
		fmt.Printf("  %s: %d\n", typ, count)
	}
	return nil
}
