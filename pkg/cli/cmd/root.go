package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "crawl-engine",
	Short: "Crawl Engine CLI - 依赖感知任务调度器命令行工具",
	Long: `Crawl Engine CLI 是一个用于管理抓取任务调度器的命令行工具。

支持的功能：
  - 管理任务（注册、列出、查看、取消）
  - 查询执行历史与调度指标
  - 查看资源使用与并发限流状态
  - 启动HTTP API服务

使用示例：
  # 列出所有任务
  crawl-engine task list

  # 注册任务
  crawl-engine task schedule --func scrape --param url=https://example.com

  # 查看调度指标
  crawl-engine metrics

  # 启动HTTP服务
  crawl-engine server start --port 8080`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Crawl Engine服务器地址")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "以JSON格式输出")

	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}
