// Package depgraph 提供调度核心使用的内存依赖图（DAG + 三态状态机）
// 边结构委托给 go-dag 库维护（与其对称性保证、循环检测复用），
// 状态机、级联失败与回调通知在本包实现
package depgraph

import (
	"fmt"
	"log"
	"sync"
	"time"

	dag "github.com/begmaroman/go-dag"
)

// DependencyGraph 依赖图核心结构体（对外导出）
type DependencyGraph struct {
	mu        sync.RWMutex
	dag       *dag.DAG[*Node]                   // 边结构（dependencies/dependents由库对称维护）
	nodes     map[string]*Node                  // 节点ID -> 节点（状态与元数据）
	callbacks map[string]map[CallbackID]StatusCallback // 节点ID -> 回调句柄 -> 回调
	nextCbID  CallbackID
}

// NewDependencyGraph 创建依赖图实例（对外导出的工厂方法）
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		dag:       dag.NewDAG[*Node](),
		nodes:     make(map[string]*Node),
		callbacks: make(map[string]map[CallbackID]StatusCallback),
	}
}

// AddNode 添加节点（对外导出）
// dependencies 中的每个ID必须已存在（调度器负责预创建占位节点）
// 会形成循环的依赖在此处直接拒绝
func (g *DependencyGraph) AddNode(id, name string, dependencies []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	for _, depID := range dependencies {
		if _, exists := g.nodes[depID]; !exists {
			return fmt.Errorf("%w: 依赖节点 %s", ErrNodeNotFound, depID)
		}
	}

	now := time.Now()
	node := &Node{
		NodeID:     id,
		Name:       name,
		Status:     StatusPending,
		Data:       make(map[string]interface{}),
		CreateTime: now,
		UpdateTime: now,
	}
	if err := g.dag.AddVertexByID(id, node); err != nil {
		return fmt.Errorf("添加节点失败: %w", err)
	}

	// 添加边：depID -> id（前置节点 -> 后置节点）
	for _, depID := range dependencies {
		if err := g.dag.AddEdge(depID, id); err != nil {
			// 回滚已添加的节点，保持图的一致性
			_ = g.dag.DeleteVertex(id)
			return fmt.Errorf("%w: %s -> %s", ErrCycleDetected, depID, id)
		}
	}

	g.nodes[id] = node
	return nil
}

// RemoveNode 移除节点（对外导出）
// 同时移除所有入边/出边与该节点注册的回调
func (g *DependencyGraph) RemoveNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if err := g.dag.DeleteVertex(id); err != nil {
		return fmt.Errorf("移除节点失败: %w", err)
	}
	delete(g.nodes, id)
	delete(g.callbacks, id)
	return nil
}

// AddDependency 添加依赖边（对外导出）
// id 依赖 depID；两侧节点必须存在，形成循环时拒绝
func (g *DependencyGraph) AddDependency(id, depID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if _, exists := g.nodes[depID]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, depID)
	}
	if err := g.dag.AddEdge(depID, id); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrCycleDetected, depID, id)
	}
	return nil
}

// RemoveDependency 移除依赖边（对外导出）
func (g *DependencyGraph) RemoveDependency(id, depID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if _, exists := g.nodes[depID]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, depID)
	}
	if err := g.dag.DeleteEdge(depID, id); err != nil {
		return fmt.Errorf("移除依赖失败: %s -> %s, Error=%w", depID, id, err)
	}
	return nil
}

// SetStatus 设置节点状态（对外导出）
// 转为 SATISFIED 时通知该节点的回调；
// 转为 FAILED 时递归标记所有传递下游为 FAILED 并逐个通知（失败是无条件传染的）
func (g *DependencyGraph) SetStatus(id string, status NodeStatus) error {
	g.mu.Lock()

	node, exists := g.nodes[id]
	if !exists {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if node.Status == status {
		// 状态未变化，不触发回调
		g.mu.Unlock()
		return nil
	}

	// 收集待触发的回调，锁外执行，避免回调内再次操作图导致死锁
	type notification struct {
		id     string
		status NodeStatus
		cbs    []StatusCallback
	}
	var pending []notification

	applyStatus := func(n *Node, s NodeStatus) {
		n.Status = s
		n.UpdateTime = time.Now()
		cbs := make([]StatusCallback, 0, len(g.callbacks[n.NodeID]))
		for _, cb := range g.callbacks[n.NodeID] {
			cbs = append(cbs, cb)
		}
		pending = append(pending, notification{id: n.NodeID, status: s, cbs: cbs})
	}

	switch status {
	case StatusPending, StatusSatisfied:
		applyStatus(node, status)
	case StatusFailed:
		applyStatus(node, StatusFailed)
		// 级联：BFS标记所有传递下游为失败，并记录失败根因
		queue := []string{id}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			children, err := g.dag.GetChildren(cur)
			if err != nil {
				continue
			}
			for childID := range children {
				child, ok := g.nodes[childID]
				if !ok || child.Status == StatusFailed {
					continue
				}
				child.Data[DataKeyFailedBy] = id
				applyStatus(child, StatusFailed)
				queue = append(queue, childID)
			}
		}
	default:
		g.mu.Unlock()
		return fmt.Errorf("未知的节点状态: %s", status)
	}

	g.mu.Unlock()

	for _, n := range pending {
		for _, cb := range n.cbs {
			g.safeInvoke(cb, n.id, n.status)
		}
	}
	return nil
}

// safeInvoke 执行回调并捕获panic（内部方法）
// 回调的异常不允许破坏图的核心保证，只记录日志
func (g *DependencyGraph) safeInvoke(cb StatusCallback, id string, status NodeStatus) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ [依赖图] 状态回调panic: NodeID=%s, Status=%s, Error=%v", id, status, r)
		}
	}()
	cb(id, status)
}

// GetReadyNodes 获取所有就绪节点ID（对外导出）
// 就绪 = 自身PENDING 且 所有前置节点均SATISFIED
// O(节点数 × 平均依赖数)，每个调度tick调用一次
func (g *DependencyGraph) GetReadyNodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ready := make([]string, 0)
	for id, node := range g.nodes {
		if node.Status != StatusPending {
			continue
		}
		parents, err := g.dag.GetParents(id)
		if err != nil {
			continue
		}
		allSatisfied := true
		for parentID := range parents {
			parent, ok := g.nodes[parentID]
			if !ok || parent.Status != StatusSatisfied {
				allSatisfied = false
				break
			}
		}
		if allSatisfied {
			ready = append(ready, id)
		}
	}
	return ready
}

// AddCallback 注册节点状态回调（对外导出）
// 返回用于注销的句柄
func (g *DependencyGraph) AddCallback(id string, cb StatusCallback) (CallbackID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	g.nextCbID++
	cbID := g.nextCbID
	if g.callbacks[id] == nil {
		g.callbacks[id] = make(map[CallbackID]StatusCallback)
	}
	g.callbacks[id][cbID] = cb
	return cbID, nil
}

// RemoveCallback 注销节点状态回调（对外导出）
func (g *DependencyGraph) RemoveCallback(id string, cbID CallbackID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cbs, exists := g.callbacks[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrCallbackNotFound, id)
	}
	if _, exists := cbs[cbID]; !exists {
		return fmt.Errorf("%w: %s/%d", ErrCallbackNotFound, id, cbID)
	}
	delete(cbs, cbID)
	return nil
}

// GetStatus 获取节点状态（对外导出）
func (g *DependencyGraph) GetStatus(id string) (NodeStatus, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return node.Status, nil
}

// GetNode 获取节点副本（对外导出）
// 返回副本避免调用方绕过锁修改内部状态
func (g *DependencyGraph) GetNode(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil, false
	}
	copied := *node
	copied.Data = make(map[string]interface{}, len(node.Data))
	for k, v := range node.Data {
		copied.Data[k] = v
	}
	return &copied, true
}

// HasNode 节点是否存在（对外导出）
func (g *DependencyGraph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, exists := g.nodes[id]
	return exists
}

// Dependencies 获取节点的前置节点ID列表（对外导出）
func (g *DependencyGraph) Dependencies(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[id]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	parents, err := g.dag.GetParents(id)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(parents))
	for parentID := range parents {
		result = append(result, parentID)
	}
	return result, nil
}

// Dependents 获取节点的直接下游节点ID列表（对外导出）
func (g *DependencyGraph) Dependents(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[id]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	children, err := g.dag.GetChildren(id)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(children))
	for childID := range children {
		result = append(result, childID)
	}
	return result, nil
}

// NodeCount 获取节点总数（对外导出）
func (g *DependencyGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// SetData 设置节点元数据（对外导出）
func (g *DependencyGraph) SetData(id, key string, value interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, exists := g.nodes[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	node.Data[key] = value
	return nil
}
