// Package scheduler 提供依赖感知的任务调度器
// 调度循环每个tick做三件事：从依赖图收集就绪任务入队、在并发上限内按策略派发、
// 兜底清扫超时任务；自适应循环根据资源负载因子收缩/恢复全局并发上限
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/crawl-engine/pkg/core/depgraph"
	"github.com/LENAX/crawl-engine/pkg/core/events"
	"github.com/LENAX/crawl-engine/pkg/core/resource"
)

// abandonGrace ctx取消后等待任务体返回的宽限期，超过即放弃该协程
const abandonGrace = 100 * time.Millisecond

// Options 调度器配置（对外导出）
type Options struct {
	MaxConcurrentTasks   int           // 全局并发上限（基准值，自适应调节的起点）
	Strategy             Strategy      // 调度策略
	CheckInterval        time.Duration // 调度循环tick间隔
	TimeoutCheckInterval time.Duration // 超时兜底清扫间隔
	RequeueDelay         time.Duration // 派发前校验未通过时的重新入队延迟
	WorkerPoolSize       int           // 阻塞型任务体的工作池大小
	FairWindow           int           // FAIR策略的提交窗口大小

	LoadBalancingEnabled   bool          // 是否启用负载自适应并发调节
	LoadBalancingThreshold float64       // 负载因子低于该值时维持基准并发
	LoadBalancingInterval  time.Duration // 自适应调节间隔
}

// DefaultOptions 默认配置（对外导出）
func DefaultOptions() Options {
	return Options{
		MaxConcurrentTasks:     10,
		Strategy:               StrategyPriority,
		CheckInterval:          100 * time.Millisecond,
		TimeoutCheckInterval:   time.Second,
		RequeueDelay:           200 * time.Millisecond,
		WorkerPoolSize:         8,
		FairWindow:             16,
		LoadBalancingEnabled:   false,
		LoadBalancingThreshold: 0.5,
		LoadBalancingInterval:  5 * time.Second,
	}
}

func normalizeOptions(opts Options) Options {
	def := DefaultOptions()
	if opts.MaxConcurrentTasks < 1 {
		opts.MaxConcurrentTasks = def.MaxConcurrentTasks
	}
	if opts.Strategy == "" {
		opts.Strategy = def.Strategy
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = def.CheckInterval
	}
	if opts.TimeoutCheckInterval <= 0 {
		opts.TimeoutCheckInterval = def.TimeoutCheckInterval
	}
	if opts.RequeueDelay <= 0 {
		opts.RequeueDelay = def.RequeueDelay
	}
	if opts.WorkerPoolSize < 1 {
		opts.WorkerPoolSize = def.WorkerPoolSize
	}
	if opts.FairWindow < 1 {
		opts.FairWindow = def.FairWindow
	}
	if opts.LoadBalancingThreshold <= 0 || opts.LoadBalancingThreshold >= 0.8 {
		opts.LoadBalancingThreshold = def.LoadBalancingThreshold
	}
	if opts.LoadBalancingInterval <= 0 {
		opts.LoadBalancingInterval = def.LoadBalancingInterval
	}
	return opts
}

// TaskScheduler 任务调度器核心结构体（对外导出）
type TaskScheduler struct {
	mu    sync.Mutex
	opts  Options
	graph *depgraph.DependencyGraph
	rm    *resource.ResourceManager // 可为nil（不启用资源限流）
	bus   *events.Bus               // 可为nil（不发布状态事件）

	queue        *taskQueue
	tasks        map[string]*TaskRecord
	nextSeq      uint64
	ceiling      int // 当前全局并发上限
	runningCount int

	pool  *workerPool
	stats execStats

	running bool
	stopped bool // Stop之后拒绝新任务
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTaskScheduler 创建任务调度器（对外导出的工厂方法）
// graph为nil时内部创建；rm、bus均为可选协作方
func NewTaskScheduler(opts Options, graph *depgraph.DependencyGraph, rm *resource.ResourceManager, bus *events.Bus) *TaskScheduler {
	opts = normalizeOptions(opts)
	if graph == nil {
		graph = depgraph.NewDependencyGraph()
	}
	return &TaskScheduler{
		opts:    opts,
		graph:   graph,
		rm:      rm,
		bus:     bus,
		queue:   newTaskQueue(opts.Strategy, opts.FairWindow),
		tasks:   make(map[string]*TaskRecord),
		ceiling: opts.MaxConcurrentTasks,
	}
}

// Schedule 注册任务（对外导出）
// 立即返回任务ID，从不阻塞等待执行；依赖的未知任务ID会自动创建占位节点，
// 真实任务以同名ID注册时认领占位节点并补挂依赖边
func (s *TaskScheduler) Schedule(spec TaskSpec) (string, error) {
	if spec.Func == nil {
		return "", ErrNilJobFunc
	}
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	if spec.Name == "" {
		spec.Name = id
	}
	if spec.Category == "" {
		spec.Category = "default"
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return "", ErrSchedulerStopped
	}
	if _, exists := s.tasks[id]; exists {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrDuplicateTask, id)
	}

	// 未知依赖先创建占位节点，允许任意注册顺序
	for _, dep := range spec.Dependencies {
		if !s.graph.HasNode(dep) {
			if err := s.graph.AddNode(dep, dep, nil); err != nil {
				s.mu.Unlock()
				return "", fmt.Errorf("创建占位节点失败: %w", err)
			}
		}
	}

	if s.graph.HasNode(id) {
		// 占位节点被真实任务认领：补挂依赖边，失败时回滚已挂的边
		var added []string
		for _, dep := range spec.Dependencies {
			if err := s.graph.AddDependency(id, dep); err != nil {
				for _, d := range added {
					_ = s.graph.RemoveDependency(id, d)
				}
				s.mu.Unlock()
				return "", err
			}
			added = append(added, dep)
		}
	} else {
		if err := s.graph.AddNode(id, spec.Name, spec.Dependencies); err != nil {
			s.mu.Unlock()
			return "", err
		}
	}

	rec := &TaskRecord{
		ID:           id,
		Name:         spec.Name,
		Category:     spec.Category,
		Func:         spec.Func,
		Params:       spec.Params,
		Priority:     spec.Priority,
		Dependencies: append([]string(nil), spec.Dependencies...),
		Timeout:      spec.Timeout,
		Metadata:     spec.Metadata,
		Blocking:     spec.Blocking,
		Status:       TaskStatusPending,
		CreateTime:   time.Now(),
		seq:          s.nextSeq,
	}
	s.nextSeq++
	s.tasks[id] = rec

	// 上游失败的级联通过节点回调送达
	if _, err := s.graph.AddCallback(id, s.onNodeStatus); err != nil {
		delete(s.tasks, id)
		s.mu.Unlock()
		return "", fmt.Errorf("注册状态回调失败: %w", err)
	}

	// 注册时上游已是失败态：级联不会再触发本任务的回调，必须当场落定失败
	// 否则任务会永远停留在PENDING（级联只在状态迁移瞬间传播）
	if origin := s.failedDepLocked(rec); origin != "" {
		rec.Status = TaskStatusFailed
		rec.Err = &CascadeError{TaskID: id, Origin: origin}
		now := time.Now()
		rec.EndTime = &now
		event := s.buildEventLocked(rec, events.EventTaskFailed)
		s.mu.Unlock()

		// 本任务的节点置为失败，让它自己的下游继续级联；根因随failed_by继续传递
		_ = s.graph.SetData(id, depgraph.DataKeyFailedBy, origin)
		_ = s.graph.SetStatus(id, depgraph.StatusFailed)
		s.publishEvent(event)
		log.Printf("❌ [调度器] 任务注册时上游已失败: TaskID=%s, Origin=%s", id, origin)
		return id, nil
	}

	// 依赖已全部满足（或无依赖）的任务直接入队，不等下一个tick
	if s.depsSatisfiedLocked(rec) {
		s.enqueueLocked(rec)
	}
	event := s.buildEventLocked(rec, events.EventTaskScheduled)
	s.mu.Unlock()

	s.publishEvent(event)
	log.Printf("🚀 [调度器] 任务已注册: TaskID=%s, Name=%s, Priority=%s, Deps=%d",
		id, spec.Name, spec.Priority, len(spec.Dependencies))
	return id, nil
}

// Cancel 取消任务（对外导出）
// 待执行任务直接转为CANCELLED并级联失败其下游；
// 运行中任务通过ctx协作取消，状态在任务体响应后落定
func (s *TaskScheduler) Cancel(id string) error {
	s.mu.Lock()
	rec, exists := s.tasks[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	switch rec.Status {
	case TaskStatusPending:
		now := time.Now()
		rec.Status = TaskStatusCancelled
		rec.Err = &CancelledError{TaskID: id}
		rec.EndTime = &now
		rec.cancelRequested = true
		event := s.buildEventLocked(rec, events.EventTaskCancelled)
		s.mu.Unlock()

		// 取消的任务永远不会满足下游依赖
		_ = s.graph.SetStatus(id, depgraph.StatusFailed)
		s.publishEvent(event)
		log.Printf("⚠️ [调度器] 待执行任务已取消: TaskID=%s", id)
		return nil

	case TaskStatusRunning:
		rec.cancelRequested = true
		cancel := rec.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		log.Printf("⚠️ [调度器] 已向运行中任务发送取消信号: TaskID=%s", id)
		return nil

	default:
		status := rec.Status
		s.mu.Unlock()
		return fmt.Errorf("任务 %s 已结束（%s），无法取消", id, status)
	}
}

// Start 启动调度循环（对外导出，幂等）
func (s *TaskScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopped = false
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.ceiling = s.opts.MaxConcurrentTasks
	s.pool = newWorkerPool(s.opts.WorkerPoolSize, s.opts.WorkerPoolSize*4)
	s.mu.Unlock()

	s.wg.Add(2)
	go s.mainLoop()
	go s.timeoutLoop()
	if s.opts.LoadBalancingEnabled && s.rm != nil {
		s.wg.Add(1)
		go s.adaptLoop()
	}
	log.Printf("🚀 [调度器] 已启动: Strategy=%s, MaxConcurrency=%d, CheckInterval=%v",
		s.opts.Strategy, s.opts.MaxConcurrentTasks, s.opts.CheckInterval)
}

// Stop 停止调度器（对外导出，幂等）
// 运行中任务收到取消信号并等待落定；所有待执行任务转为CANCELLED
func (s *TaskScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true

	now := time.Now()
	var cancels []context.CancelFunc
	var cancelled []string
	var pending []*events.TaskStatusEvent
	s.queue.Drain()
	for id, rec := range s.tasks {
		switch rec.Status {
		case TaskStatusRunning:
			rec.cancelRequested = true
			if rec.cancel != nil {
				cancels = append(cancels, rec.cancel)
			}
		case TaskStatusPending:
			rec.Status = TaskStatusCancelled
			rec.Err = &CancelledError{TaskID: id}
			rec.EndTime = &now
			rec.enqueued = false
			cancelled = append(cancelled, id)
			pending = append(pending, s.buildEventLocked(rec, events.EventTaskCancelled))
		}
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.cancel()
	s.wg.Wait()
	s.pool.Stop()

	for _, id := range cancelled {
		_ = s.graph.SetStatus(id, depgraph.StatusFailed)
	}
	for _, event := range pending {
		s.publishEvent(event)
	}
	log.Printf("✅ [调度器] 已停止: 取消待执行任务 %d 个", len(cancelled))
}

// mainLoop 调度主循环（内部方法）
func (s *TaskScheduler) mainLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.ctx.Done():
			return
		}
	}
}

// tick 单轮调度：就绪任务入队 + 并发上限内派发（内部方法）
func (s *TaskScheduler) tick() {
	ready := s.graph.GetReadyNodes()

	s.mu.Lock()
	for _, id := range ready {
		rec, exists := s.tasks[id]
		if exists && rec.Status == TaskStatusPending && !rec.enqueued {
			s.enqueueLocked(rec)
		}
	}
	// ADAPTIVE策略的等待分随时间变化，派发前重建堆序
	if s.opts.Strategy == StrategyAdaptive {
		s.queue.Reorder()
	}
	started := s.dispatchLocked()
	startedEvents := make([]*events.TaskStatusEvent, 0, len(started))
	for _, rec := range started {
		startedEvents = append(startedEvents, s.buildEventLocked(rec, events.EventTaskStarted))
	}
	s.mu.Unlock()

	for _, event := range startedEvents {
		s.publishEvent(event)
	}
}

// enqueueLocked 任务入队（内部方法，需持锁调用）
func (s *TaskScheduler) enqueueLocked(rec *TaskRecord) {
	rec.enqueued = true
	rec.enqueueTime = time.Now()
	s.queue.PushTask(rec)
}

// dispatchLocked 按策略派发队首任务直到并发上限（内部方法，需持锁调用）
func (s *TaskScheduler) dispatchLocked() []*TaskRecord {
	var started []*TaskRecord
	for s.runningCount < s.ceiling {
		rec := s.queue.PopTask()
		if rec == nil {
			break
		}
		if rec.Status != TaskStatusPending {
			// 入队后被取消或级联失败，直接丢弃
			rec.enqueued = false
			continue
		}
		// 派发前二次校验：入队与派发之间上游可能已失败
		if !s.depsSatisfiedLocked(rec) {
			rec.enqueued = false
			s.requeueLater(rec)
			continue
		}

		now := time.Now()
		rec.Status = TaskStatusRunning
		rec.StartTime = &now
		rec.enqueued = false

		var taskCtx context.Context
		var cancel context.CancelFunc
		if rec.Timeout > 0 {
			taskCtx, cancel = context.WithTimeout(s.ctx, rec.Timeout)
		} else {
			taskCtx, cancel = context.WithCancel(s.ctx)
		}
		rec.cancel = cancel
		s.runningCount++

		s.wg.Add(1)
		go s.execute(rec, taskCtx)
		started = append(started, rec)
	}
	return started
}

// failedDepLocked 检查前置任务中是否已有失败者，返回失败根因的任务ID（内部方法，需持锁调用）
// 前置自身也是被级联失败的话，沿failed_by追溯到最初的失败源头
func (s *TaskScheduler) failedDepLocked(rec *TaskRecord) string {
	for _, dep := range rec.Dependencies {
		status, err := s.graph.GetStatus(dep)
		if err != nil || status != depgraph.StatusFailed {
			continue
		}
		if node, ok := s.graph.GetNode(dep); ok {
			if origin, ok := node.Data[depgraph.DataKeyFailedBy].(string); ok && origin != "" {
				return origin
			}
		}
		return dep
	}
	return ""
}

// depsSatisfiedLocked 全部前置任务是否已满足（内部方法，需持锁调用）
func (s *TaskScheduler) depsSatisfiedLocked(rec *TaskRecord) bool {
	for _, dep := range rec.Dependencies {
		status, err := s.graph.GetStatus(dep)
		if err != nil || status != depgraph.StatusSatisfied {
			return false
		}
	}
	return true
}

// requeueLater 延迟重新入队（内部方法）
// 上游失败的任务很快会被级联回调标记为失败，重入队后在派发时被丢弃
func (s *TaskScheduler) requeueLater(rec *TaskRecord) {
	time.AfterFunc(s.opts.RequeueDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.running && rec.Status == TaskStatusPending && !rec.enqueued {
			s.enqueueLocked(rec)
		}
	})
}

// execute 执行单个任务（内部方法，独立协程）
func (s *TaskScheduler) execute(rec *TaskRecord, ctx context.Context) {
	defer s.wg.Done()

	// 类别并发许可（资源管理器按负载收缩许可门容量）
	if s.rm != nil {
		if err := s.rm.Acquire(ctx, rec.Category, rec.ID); err != nil {
			s.finalizeFromCtx(rec, ctx, false, err)
			return
		}
	}

	type bodyResult struct {
		result interface{}
		err    error
	}
	resultCh := make(chan bodyResult, 1)
	body := func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- bodyResult{err: fmt.Errorf("任务体panic: %v", r)}
			}
		}()
		result, err := rec.Func(ctx, rec.Params)
		resultCh <- bodyResult{result: result, err: err}
	}

	if rec.Blocking {
		if err := s.pool.Submit(ctx, body); err != nil {
			s.finalizeFromCtx(rec, ctx, true, err)
			return
		}
	} else {
		go body()
	}

	select {
	case r := <-resultCh:
		s.finalizeFromResult(rec, r.result, r.err)

	case <-ctx.Done():
		// 给任务体一个宽限期响应取消；仍不返回则放弃该协程
		select {
		case r := <-resultCh:
			s.finalizeFromResult(rec, r.result, r.err)
		case <-time.After(abandonGrace):
			s.stats.recordAbandoned()
			log.Printf("⚠️ [调度器] 任务体未响应取消，放弃协程: TaskID=%s", rec.ID)
			s.finalizeFromCtx(rec, ctx, true, ctx.Err())
		}
	}
}

// finalizeFromResult 按任务体返回值落定状态（内部方法）
func (s *TaskScheduler) finalizeFromResult(rec *TaskRecord, result interface{}, err error) {
	switch {
	case err == nil:
		s.finalize(rec, TaskStatusCompleted, result, nil, true)
	case errors.Is(err, context.DeadlineExceeded):
		s.finalize(rec, TaskStatusFailed, nil, &TimeoutError{TaskID: rec.ID, Timeout: rec.Timeout}, true)
	case errors.Is(err, context.Canceled):
		s.finalize(rec, TaskStatusCancelled, nil, &CancelledError{TaskID: rec.ID}, true)
	default:
		s.finalize(rec, TaskStatusFailed, nil, &ExecutionError{TaskID: rec.ID, Cause: err}, true)
	}
}

// finalizeFromCtx 按ctx错误落定状态（内部方法）
func (s *TaskScheduler) finalizeFromCtx(rec *TaskRecord, ctx context.Context, release bool, cause error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.finalize(rec, TaskStatusFailed, nil, &TimeoutError{TaskID: rec.ID, Timeout: rec.Timeout}, release)
		return
	}
	if errors.Is(cause, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		s.finalize(rec, TaskStatusCancelled, nil, &CancelledError{TaskID: rec.ID}, release)
		return
	}
	s.finalize(rec, TaskStatusFailed, nil, &ExecutionError{TaskID: rec.ID, Cause: cause}, release)
}

// finalize 任务落定：写终态、归还许可、推进依赖图、发布事件（内部方法）
func (s *TaskScheduler) finalize(rec *TaskRecord, status TaskStatus, result interface{}, taskErr error, release bool) {
	s.mu.Lock()
	now := time.Now()
	wasRunning := rec.Status == TaskStatusRunning
	rec.Status = status
	rec.Result = result
	rec.Err = taskErr
	rec.EndTime = &now
	if wasRunning {
		s.runningCount--
	}
	if rec.cancel != nil {
		rec.cancel()
		rec.cancel = nil
	}
	var duration time.Duration
	if rec.StartTime != nil {
		duration = now.Sub(*rec.StartTime)
	}
	eventType := eventTypeFor(status, taskErr)
	event := s.buildEventLocked(rec, eventType)
	s.mu.Unlock()

	if release && s.rm != nil {
		s.rm.Release(rec.Category, rec.ID)
	}
	if status == TaskStatusCompleted {
		s.stats.record(duration)
	}

	// 依赖图推进必须在锁外：级联回调会重入本调度器的锁
	nodeStatus := depgraph.StatusFailed
	if status == TaskStatusCompleted {
		nodeStatus = depgraph.StatusSatisfied
	}
	_ = s.graph.SetStatus(rec.ID, nodeStatus)
	s.publishEvent(event)

	switch status {
	case TaskStatusCompleted:
		log.Printf("✅ [调度器] 任务完成: TaskID=%s, 耗时=%v", rec.ID, duration)
	case TaskStatusCancelled:
		log.Printf("⚠️ [调度器] 任务已取消: TaskID=%s", rec.ID)
	default:
		if eventType == events.EventTaskTimeout {
			log.Printf("⏱️ [调度器] 任务超时: TaskID=%s, 限制=%v", rec.ID, rec.Timeout)
		} else {
			log.Printf("❌ [调度器] 任务失败: TaskID=%s, Error=%v", rec.ID, taskErr)
		}
	}
}

// onNodeStatus 依赖图节点状态回调（内部方法）
// 上游失败级联到本任务时，将待执行任务直接标记为失败并记录失败源头
func (s *TaskScheduler) onNodeStatus(nodeID string, status depgraph.NodeStatus) {
	if status != depgraph.StatusFailed {
		return
	}

	s.mu.Lock()
	rec, exists := s.tasks[nodeID]
	if !exists || rec.Status != TaskStatusPending {
		s.mu.Unlock()
		return
	}

	origin := ""
	if node, ok := s.graph.GetNode(nodeID); ok {
		if v, ok := node.Data[depgraph.DataKeyFailedBy].(string); ok {
			origin = v
		}
	}
	now := time.Now()
	rec.Status = TaskStatusFailed
	rec.Err = &CascadeError{TaskID: nodeID, Origin: origin}
	rec.EndTime = &now
	event := s.buildEventLocked(rec, events.EventTaskFailed)
	s.mu.Unlock()

	s.publishEvent(event)
	log.Printf("❌ [调度器] 任务因上游失败被跳过: TaskID=%s, Origin=%s", nodeID, origin)
}

// timeoutLoop 超时兜底清扫（内部方法）
// 任务ctx本身带截止时间，这里兜底处理ctx未生效的异常情况
func (s *TaskScheduler) timeoutLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.TimeoutCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepTimeouts()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *TaskScheduler) sweepTimeouts() {
	now := time.Now()

	s.mu.Lock()
	var expired []context.CancelFunc
	var ids []string
	for id, rec := range s.tasks {
		if rec.Status == TaskStatusRunning && rec.Timeout > 0 && rec.StartTime != nil &&
			now.Sub(*rec.StartTime) > rec.Timeout && rec.cancel != nil {
			expired = append(expired, rec.cancel)
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	for i, cancel := range expired {
		log.Printf("⏱️ [调度器] 兜底清扫发现超时任务: TaskID=%s", ids[i])
		cancel()
	}
}

// adaptLoop 负载自适应并发调节（内部方法）
func (s *TaskScheduler) adaptLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.LoadBalancingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.adjustCeiling()
		case <-s.ctx.Done():
			return
		}
	}
}

// adjustCeiling 根据负载因子重算全局并发上限（内部方法）
// 负载低于阈值维持基准；0.8以下收缩到0.75倍；0.8及以上收缩到0.5倍，下限为1
func (s *TaskScheduler) adjustCeiling() {
	lf := s.rm.LoadFactor()

	s.mu.Lock()
	base := s.opts.MaxConcurrentTasks
	var target int
	switch {
	case lf < s.opts.LoadBalancingThreshold:
		target = base
	case lf < 0.8:
		target = int(float64(base) * 0.75)
	default:
		target = int(float64(base) * 0.5)
	}
	if target < 1 {
		target = 1
	}
	if target != s.ceiling {
		log.Printf("🔧 [调度器] 调整全局并发上限: %d -> %d (负载因子=%.2f)", s.ceiling, target, lf)
		s.ceiling = target
	}
	if s.opts.Strategy == StrategyAdaptive {
		s.queue.SetLoadFactor(lf)
	}
	s.mu.Unlock()
}

// GetStatus 查询任务状态（对外导出）
func (s *TaskScheduler) GetStatus(id string) (TaskStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.tasks[id]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return rec.Status, nil
}

// GetResult 查询任务结果（对外导出）
// 已完成返回结果；失败/取消返回对应错误；未结束返回ErrTaskNotFinished
func (s *TaskScheduler) GetResult(id string) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.tasks[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	switch rec.Status {
	case TaskStatusCompleted:
		return rec.Result, nil
	case TaskStatusFailed, TaskStatusCancelled:
		return nil, rec.Err
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrTaskNotFinished, id, rec.Status)
	}
}

// GetError 查询任务的执行错误（对外导出）
// 成功完成返回nil；未结束返回ErrTaskNotFinished
func (s *TaskScheduler) GetError(id string) (error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.tasks[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if !rec.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrTaskNotFinished, id, rec.Status)
	}
	return rec.Err, nil
}

// GetTask 查询任务信息快照（对外导出）
func (s *TaskScheduler) GetTask(id string) (*TaskInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.tasks[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return rec.snapshot(), nil
}

// ListTasks 列出全部任务信息快照（按提交顺序，对外导出）
func (s *TaskScheduler) ListTasks() []*TaskInfo {
	s.mu.Lock()
	records := make([]*TaskRecord, 0, len(s.tasks))
	for _, rec := range s.tasks {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })
	infos := make([]*TaskInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, rec.snapshot())
	}
	s.mu.Unlock()
	return infos
}

// GetMetrics 获取调度器运行指标快照（对外导出）
func (s *TaskScheduler) GetMetrics() SchedulerMetrics {
	s.mu.Lock()
	metrics := SchedulerMetrics{
		Strategy:       string(s.opts.Strategy),
		QueueLength:    s.queue.Len(),
		MaxConcurrency: s.ceiling,
		RunningTasks:   s.runningCount,
		StatusCounts:   make(map[TaskStatus]int),
	}
	for _, rec := range s.tasks {
		metrics.StatusCounts[rec.Status]++
	}
	s.mu.Unlock()

	if s.rm != nil {
		metrics.LoadFactor = s.rm.LoadFactor()
	}
	s.stats.fill(&metrics)
	return metrics
}

// WaitForTask 阻塞等待任务结束并返回终态（对外导出）
func (s *TaskScheduler) WaitForTask(ctx context.Context, id string) (TaskStatus, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		status, err := s.GetStatus(id)
		if err != nil {
			return "", err
		}
		if status.IsTerminal() {
			return status, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return status, ctx.Err()
		}
	}
}

// Cleanup 清理超过保留期的终态任务（对外导出）
// 返回清理数量；对应的依赖图节点一并移除
func (s *TaskScheduler) Cleanup(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	var removed []string
	for id, rec := range s.tasks {
		if rec.Status.IsTerminal() && rec.EndTime != nil && rec.EndTime.Before(cutoff) {
			delete(s.tasks, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	for _, id := range removed {
		_ = s.graph.RemoveNode(id)
	}
	if len(removed) > 0 {
		log.Printf("🧹 [调度器] 已清理终态任务 %d 个（保留期 %v）", len(removed), retention)
	}
	return len(removed)
}

// Graph 暴露依赖图（只读用途，对外导出）
func (s *TaskScheduler) Graph() *depgraph.DependencyGraph {
	return s.graph
}

// buildEventLocked 构造任务状态事件（内部方法，需持锁调用）
func (s *TaskScheduler) buildEventLocked(rec *TaskRecord, typ events.EventType) *events.TaskStatusEvent {
	event := &events.TaskStatusEvent{
		Type:      typ,
		TaskID:    rec.ID,
		Name:      rec.Name,
		Category:  rec.Category,
		Status:    string(rec.Status),
		Priority:  rec.Priority.String(),
		Metadata:  rec.Metadata,
		Timestamp: time.Now(),
	}
	if rec.Err != nil {
		event.Error = rec.Err.Error()
	}
	if rec.Status == TaskStatusCompleted {
		event.Result = rec.Result
	}
	if rec.StartTime != nil && rec.EndTime != nil {
		event.DurationMs = rec.EndTime.Sub(*rec.StartTime).Milliseconds()
	}
	return event
}

// eventTypeFor 终态到事件类型的映射（内部辅助函数）
func eventTypeFor(status TaskStatus, err error) events.EventType {
	switch status {
	case TaskStatusCompleted:
		return events.EventTaskCompleted
	case TaskStatusCancelled:
		return events.EventTaskCancelled
	default:
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			return events.EventTaskTimeout
		}
		return events.EventTaskFailed
	}
}

func (s *TaskScheduler) publishEvent(event *events.TaskStatusEvent) {
	if s.bus != nil && event != nil {
		s.bus.Publish(event)
	}
}
