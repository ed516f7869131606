package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

var (
	// 这些变量在编译时通过 -ldflags 设置
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// versionCmd 版本信息命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("实时通知服务 %s\n", Version)
		fmt.Printf("Git提交: %s\n", GitCommit)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Printf("Go版本: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Printf("当前时间: %s\n", time.Now().Format(time.DateTime))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
