package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/LENAX/crawl-engine/pkg/api/dto"
	"github.com/LENAX/crawl-engine/pkg/cli/crawlengine"
	"github.com/LENAX/crawl-engine/pkg/cli/output"
)

var (
	taskName     string
	taskCategory string
	taskFunc     string
	taskPriority string
	taskDeps     []string
	taskParams   []string
	taskTimeout  string
	taskBlocking bool

	historyStatus string
	historyLimit  int
)

// taskCmd task命令组
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "管理任务",
	Long:  "注册、列出、查看、取消任务，并查询历史执行记录",
}

// taskListCmd 列出任务
var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := crawlengine.New(serverURL)
		tasks, err := client.ListTasks()
		if err != nil {
			output.Error("获取任务列表失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(tasks)
		}

		if len(tasks) == 0 {
			output.Info("暂无任务")
			return nil
		}

		table := output.NewTable([]string{"ID", "名称", "分类", "状态", "优先级", "依赖数"})
		for _, t := range tasks {
			table.AddRow(t.ID, t.Name, t.Category,
				formatStatus(string(t.Status)), t.Priority,
				fmt.Sprintf("%d", len(t.Dependencies)))
		}
		table.Render()
		fmt.Printf("\n共 %d 个任务\n", len(tasks))
		return nil
	},
}

// taskGetCmd 查看任务详情
var taskGetCmd = &cobra.Command{
	Use:   "get <task-id>",
	Short: "查看任务详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := crawlengine.New(serverURL)
		task, err := client.GetTask(args[0])
		if err != nil {
			output.Error("获取任务失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(task)
		}

		fmt.Printf("任务ID:   %s\n", task.ID)
		fmt.Printf("名称:     %s\n", task.Name)
		fmt.Printf("分类:     %s\n", task.Category)
		fmt.Printf("状态:     %s\n", formatStatus(string(task.Status)))
		fmt.Printf("优先级:   %s\n", task.Priority)
		if len(task.Dependencies) > 0 {
			fmt.Printf("依赖:     %s\n", strings.Join(task.Dependencies, ", "))
		}
		fmt.Printf("创建时间: %s\n", task.CreateTime.Format("2006-01-02 15:04:05"))
		if task.StartTime != nil {
			fmt.Printf("开始时间: %s\n", task.StartTime.Format("2006-01-02 15:04:05"))
		}
		if task.EndTime != nil {
			fmt.Printf("结束时间: %s\n", task.EndTime.Format("2006-01-02 15:04:05"))
		}
		if task.Error != "" {
			fmt.Printf("错误:     %s\n", color.RedString(task.Error))
		}
		return nil
	},
}

// taskScheduleCmd 注册任务
var taskScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "注册任务",
	Long: `注册任务到调度器，任务体必须是服务端已注册的函数名。

示例：
  crawl-engine task schedule --func scrape --name 抓取首页 --param url=https://example.com
  crawl-engine task schedule --func extract --deps fetch-1 --priority high --timeout 30s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := make(map[string]interface{})
		for _, kv := range taskParams {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("参数格式错误（应为 key=value）: %s", kv)
			}
			params[parts[0]] = parts[1]
		}

		req := dto.ScheduleTaskRequest{
			Name:         taskName,
			Category:     taskCategory,
			Func:         taskFunc,
			Params:       params,
			Priority:     taskPriority,
			Dependencies: taskDeps,
			Timeout:      taskTimeout,
			Blocking:     taskBlocking,
		}

		client := crawlengine.New(serverURL)
		taskID, err := client.ScheduleTask(req)
		if err != nil {
			output.Error("注册任务失败: %v", err)
			return err
		}

		output.Success("任务注册成功")
		fmt.Printf("任务ID: %s\n", taskID)
		return nil
	},
}

// taskCancelCmd 取消任务
var taskCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "取消任务",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := crawlengine.New(serverURL)
		if err := client.CancelTask(args[0]); err != nil {
			output.Error("取消任务失败: %v", err)
			return err
		}
		output.Success("任务已取消: %s", args[0])
		return nil
	},
}

// taskHistoryCmd 查询历史执行记录
var taskHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "查询历史执行记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := crawlengine.New(serverURL)
		items, err := client.History(historyStatus, historyLimit)
		if err != nil {
			output.Error("查询历史失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(items)
		}

		if len(items) == 0 {
			output.Info("暂无历史记录")
			return nil
		}

		table := output.NewTable([]string{"ID", "名称", "状态", "开始时间", "耗时(ms)"})
		for _, it := range items {
			start := "-"
			if it.StartTime != nil {
				start = it.StartTime.Format("2006-01-02 15:04:05")
			}
			table.AddRow(it.ID, it.Name, formatStatus(it.Status),
				start, fmt.Sprintf("%d", it.DurationMs))
		}
		table.Render()
		return nil
	},
}

// taskFuncsCmd 列出已注册任务体
var taskFuncsCmd = &cobra.Command{
	Use:   "funcs",
	Short: "列出服务端已注册的任务体函数",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := crawlengine.New(serverURL)
		names, err := client.Funcs()
		if err != nil {
			output.Error("获取任务体列表失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(names)
		}

		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

// formatStatus 给状态上色
func formatStatus(status string) string {
	switch status {
	case "COMPLETED":
		return color.GreenString(status)
	case "RUNNING":
		return color.CyanString(status)
	case "PENDING":
		return color.YellowString(status)
	case "FAILED":
		return color.RedString(status)
	case "CANCELLED":
		return color.HiBlackString(status)
	default:
		return status
	}
}

func init() {
	taskScheduleCmd.Flags().StringVar(&taskName, "name", "", "任务名称（默认使用函数名）")
	taskScheduleCmd.Flags().StringVar(&taskCategory, "category", "default", "资源分类")
	taskScheduleCmd.Flags().StringVar(&taskFunc, "func", "", "任务体函数名（必填）")
	taskScheduleCmd.Flags().StringVar(&taskPriority, "priority", "normal", "优先级（low/normal/high/critical）")
	taskScheduleCmd.Flags().StringSliceVar(&taskDeps, "deps", nil, "依赖的任务ID列表")
	taskScheduleCmd.Flags().StringSliceVar(&taskParams, "param", nil, "任务参数（key=value，可重复）")
	taskScheduleCmd.Flags().StringVar(&taskTimeout, "timeout", "", "执行超时（如 30s、5m）")
	taskScheduleCmd.Flags().BoolVar(&taskBlocking, "blocking", false, "是否为阻塞型任务（在工作池执行）")
	_ = taskScheduleCmd.MarkFlagRequired("func")

	taskHistoryCmd.Flags().StringVar(&historyStatus, "status", "", "按状态过滤")
	taskHistoryCmd.Flags().IntVar(&historyLimit, "limit", 50, "返回条数上限")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskGetCmd)
	taskCmd.AddCommand(taskScheduleCmd)
	taskCmd.AddCommand(taskCancelCmd)
	taskCmd.AddCommand(taskHistoryCmd)
	taskCmd.AddCommand(taskFuncsCmd)
}
