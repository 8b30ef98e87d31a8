package depgraph

import "time"

// NodeStatus 依赖节点状态（对外导出）
// 封闭枚举：所有状态迁移点都通过 switch 穷举处理
type NodeStatus string

const (
	// StatusPending 等待中（初始状态）
	StatusPending NodeStatus = "PENDING"
	// StatusSatisfied 已满足（对应Task执行成功）
	StatusSatisfied NodeStatus = "SATISFIED"
	// StatusFailed 已失败（自身失败或上游级联失败）
	StatusFailed NodeStatus = "FAILED"
)

// IsTerminal 是否为终态
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case StatusSatisfied, StatusFailed:
		return true
	case StatusPending:
		return false
	default:
		return false
	}
}

// DataKeyFailedBy 级联失败来源节点ID的Data键（对外导出）
// 级联标记失败时写入，调度层据此还原失败根因
const DataKeyFailedBy = "failed_by"

// Node 依赖图节点结构（对外导出）
// 边结构（dependencies/dependents）由内部的go-dag实例维护，Node只承载状态与元数据
type Node struct {
	NodeID     string                 // 节点唯一ID（Task ID）
	Name       string                 // 节点名称（人类可读）
	Status     NodeStatus             // 当前状态
	Data       map[string]interface{} // 自由键值元数据
	CreateTime time.Time              // 创建时间
	UpdateTime time.Time              // 最近一次状态变更时间
}

// ID 实现 go-dag 的 Identifiable 接口
func (n *Node) ID() string {
	return n.NodeID
}

// StatusCallback 节点状态变更回调（对外导出）
// 回调内的panic会被捕获并记录日志，不会破坏图的核心保证
type StatusCallback func(nodeID string, status NodeStatus)

// CallbackID 回调注册句柄（对外导出）
// Go中函数值不可比较，注销回调通过注册时返回的句柄完成
type CallbackID int64
