package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LENAX/crawl-engine/internal/app"
	"github.com/LENAX/crawl-engine/pkg/config"
)

var (
	Version   = "0.3.1"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./config.yaml", "配置文件路径")
	port := flag.Int("port", 0, "HTTP端口（覆盖配置文件）")
	flag.Parse()

	log.Printf("Crawl Engine Server v%s", Version)
	log.Printf("配置文件: %s", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *port > 0 {
		cfg.HTTPPort = *port
	}

	application, err := app.New(cfg, Version)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	errCh, err := application.Start()
	if err != nil {
		log.Fatalf("启动失败: %v", err)
	}

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("收到信号 %v，正在关闭服务...", sig)
	case err := <-errCh:
		if err != nil {
			log.Fatalf("HTTP服务异常退出: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Shutdown(shutdownCtx)
}
