package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/crawl-engine/pkg/cli/crawlengine"
	"github.com/LENAX/crawl-engine/pkg/cli/output"
	"github.com/LENAX/crawl-engine/pkg/core/scheduler"
)

// metricsCmd 查看调度指标
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "查看调度器运行指标",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := crawlengine.New(serverURL)
		m, err := client.Metrics()
		if err != nil {
			output.Error("获取指标失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(m)
		}

		fmt.Printf("调度策略:   %s\n", m.Strategy)
		fmt.Printf("队列长度:   %d\n", m.QueueLength)
		fmt.Printf("最大并发:   %d\n", m.MaxConcurrency)
		fmt.Printf("运行中:     %d\n", m.RunningTasks)
		fmt.Printf("负载因子:   %.2f\n", m.LoadFactor)
		fmt.Printf("累计执行:   %d\n", m.TotalExecutions)
		if m.TotalExecutions > 0 {
			fmt.Printf("耗时(ms):   min=%d avg=%.1f max=%d\n", m.MinExecTimeMs, m.AvgExecTimeMs, m.MaxExecTimeMs)
		}
		if m.TasksAbandoned > 0 {
			output.Warning("已放弃任务体: %d（超时后未响应取消）", m.TasksAbandoned)
		}
		if len(m.StatusCounts) > 0 {
			fmt.Println("\n状态统计:")
			table := output.NewTable([]string{"状态", "数量"})
			for _, st := range []scheduler.TaskStatus{
				scheduler.TaskStatusPending,
				scheduler.TaskStatusRunning,
				scheduler.TaskStatusCompleted,
				scheduler.TaskStatusFailed,
				scheduler.TaskStatusCancelled,
			} {
				if n, ok := m.StatusCounts[st]; ok {
					table.AddRow(formatStatus(string(st)), fmt.Sprintf("%d", n))
				}
			}
			table.Render()
		}
		return nil
	},
}

// resourcesCmd 查看资源使用
var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "查看资源使用与并发限流状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := crawlengine.New(serverURL)
		data, err := client.Resources()
		if err != nil {
			output.Error("获取资源状态失败: %v", err)
			return err
		}
		// 资源快照结构随分类数变化，统一按JSON输出
		return output.PrintJSON(data)
	},
}
