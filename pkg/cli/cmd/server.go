package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/crawl-engine/internal/app"
	"github.com/LENAX/crawl-engine/pkg/config"
)

var (
	configPath string
	serverPort int
)

// serverCmd server命令组
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "管理HTTP API服务",
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动Crawl Engine HTTP API服务。

配置文件查找顺序：--config指定路径 > ./config.yaml > 内置默认值`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	path := configPath
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if serverPort > 0 {
		cfg.HTTPPort = serverPort
	}

	application, err := app.New(cfg, Version)
	if err != nil {
		return err
	}

	errCh, err := application.Start()
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("ℹ️ [服务] 收到信号 %v，开始优雅关闭", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Shutdown(ctx)
	return nil
}

func init() {
	serverStartCmd.Flags().StringVarP(&configPath, "config", "c", "", "配置文件路径")
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "HTTP端口（覆盖配置文件）")
	serverCmd.AddCommand(serverStartCmd)
}
