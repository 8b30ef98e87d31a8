package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
)

// Sampler 系统资源采样器接口（对外导出）
// 测试中可注入合成采样器，生产使用 gopsutil 实现
type Sampler interface {
	// Sample 采集一次当前系统资源使用情况
	Sample(ctx context.Context) (*ResourceSample, error)
}

// systemSampler 基于gopsutil的采样器实现（小写，不导出）
type systemSampler struct {
	diskPath string // 磁盘使用率的观测挂载点
}

// NewSystemSampler 创建系统采样器（对外导出的工厂方法）
func NewSystemSampler() Sampler {
	return &systemSampler{diskPath: "/"}
}

// Sample 采集一次系统资源
// CPU使用率采用与上次调用之间的区间值（interval=0），首次调用可能返回0
func (s *systemSampler) Sample(ctx context.Context) (*ResourceSample, error) {
	sample := &ResourceSample{Timestamp: time.Now()}

	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("采集CPU使用率失败: %w", err)
	}
	if len(cpuPercents) > 0 {
		sample.CPUPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("采集内存使用率失败: %w", err)
	}
	sample.MemoryPercent = vm.UsedPercent

	usage, err := disk.UsageWithContext(ctx, s.diskPath)
	if err != nil {
		return nil, fmt.Errorf("采集磁盘使用率失败: %w", err)
	}
	sample.DiskPercent = usage.UsedPercent

	// 网络与磁盘IO为累计计数器，速率由调用方基于相邻样本差值计算
	netCounters, err := gopsnet.IOCountersWithContext(ctx, false)
	if err == nil && len(netCounters) > 0 {
		sample.NetSentBytes = netCounters[0].BytesSent
		sample.NetRecvBytes = netCounters[0].BytesRecv
	}
	ioCounters, err := disk.IOCountersWithContext(ctx)
	if err == nil {
		for _, c := range ioCounters {
			sample.DiskReadOps += c.ReadCount
			sample.DiskWriteOps += c.WriteCount
		}
	}

	return sample, nil
}
