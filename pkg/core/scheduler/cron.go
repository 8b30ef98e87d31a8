package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// CronScheduler 周期任务调度器（对外导出）
// 每次触发都向任务调度器提交一个新的任务实例（ID自动生成，历史实例互不干扰）
type CronScheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	scheduler *TaskScheduler
	entries   map[string]cron.EntryID // 周期任务名称 -> cron条目
	parser    cron.Parser
}

// NewCronScheduler 创建周期任务调度器（对外导出的工厂方法）
// cron表达式支持秒级精度（6字段）与@every等描述符
func NewCronScheduler(s *TaskScheduler) *CronScheduler {
	parser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	return &CronScheduler{
		cron:      cron.New(cron.WithParser(parser)),
		scheduler: s,
		entries:   make(map[string]cron.EntryID),
		parser:    parser,
	}
}

// RegisterRecurring 注册周期任务（对外导出）
// spec.ID 会被忽略，每次触发生成独立实例ID「名称-uuid」
func (c *CronScheduler) RegisterRecurring(name, cronExpr string, spec TaskSpec) error {
	if name == "" {
		return fmt.Errorf("周期任务名称不能为空")
	}
	if spec.Func == nil {
		return ErrNilJobFunc
	}
	if _, err := c.parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("无效的cron表达式 %q: %w", cronExpr, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[name]; exists {
		return fmt.Errorf("周期任务 %s 已注册", name)
	}

	entryID, err := c.cron.AddFunc(cronExpr, func() {
		instance := spec
		instance.ID = fmt.Sprintf("%s-%s", name, uuid.NewString())
		if instance.Name == "" {
			instance.Name = name
		}
		// 每个实例持有独立的参数副本，任务体改写参数不会影响并发的兄弟实例
		instance.Params = cloneParams(spec.Params)
		instance.Metadata = cloneParams(spec.Metadata)
		if _, err := c.scheduler.Schedule(instance); err != nil {
			log.Printf("❌ [周期调度] 提交任务实例失败: Name=%s, Error=%v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("注册周期任务失败: %w", err)
	}
	c.entries[name] = entryID
	log.Printf("✅ [周期调度] 已注册周期任务: Name=%s, Cron=%s", name, cronExpr)
	return nil
}

// cloneParams 浅拷贝参数表（内部辅助函数）
func cloneParams(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// UnregisterRecurring 注销周期任务（对外导出）
func (c *CronScheduler) UnregisterRecurring(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entryID, exists := c.entries[name]
	if !exists {
		return fmt.Errorf("周期任务 %s 不存在", name)
	}
	c.cron.Remove(entryID)
	delete(c.entries, name)
	log.Printf("✅ [周期调度] 已注销周期任务: Name=%s", name)
	return nil
}

// ScheduleCleanup 注册终态任务的定期清理（对外导出）
func (c *CronScheduler) ScheduleCleanup(retention, interval time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries["__cleanup__"]; exists {
		return fmt.Errorf("清理任务已注册")
	}
	entryID, err := c.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		c.scheduler.Cleanup(retention)
	})
	if err != nil {
		return fmt.Errorf("注册清理任务失败: %w", err)
	}
	c.entries["__cleanup__"] = entryID
	log.Printf("✅ [周期调度] 已注册任务清理: 保留期=%v, 间隔=%v", retention, interval)
	return nil
}

// Names 返回已注册的周期任务名称
func (c *CronScheduler) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		if name != "__cleanup__" {
			names = append(names, name)
		}
	}
	return names
}

// Start 启动周期调度（对外导出）
func (c *CronScheduler) Start() {
	c.cron.Start()
	log.Println("🚀 [周期调度] 已启动")
}

// Stop 停止周期调度并等待在执行的触发返回（对外导出）
func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	log.Println("✅ [周期调度] 已停止")
}
