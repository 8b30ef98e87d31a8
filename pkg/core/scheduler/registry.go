package scheduler

import (
	"fmt"
	"sort"
	"sync"
)

// JobRegistry 任务体注册表（对外导出）
// API和CLI按名称提交任务时，通过注册表解析出真正的JobFunc
type JobRegistry struct {
	mu    sync.RWMutex
	funcs map[string]JobFunc
}

// NewJobRegistry 创建任务体注册表
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{funcs: make(map[string]JobFunc)}
}

// Register 注册任务体（对外导出）
func (r *JobRegistry) Register(name string, fn JobFunc) error {
	if name == "" {
		return fmt.Errorf("任务体名称不能为空")
	}
	if fn == nil {
		return ErrNilJobFunc
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("任务体 %s 已注册", name)
	}
	r.funcs[name] = fn
	return nil
}

// Get 按名称查找任务体（对外导出）
func (r *JobRegistry) Get(name string) (JobFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names 返回已注册的任务体名称（字典序）
func (r *JobRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
