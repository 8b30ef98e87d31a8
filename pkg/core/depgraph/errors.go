package depgraph

import "errors"

var (
	// ErrDuplicateNode 节点ID已存在（对外导出）
	ErrDuplicateNode = errors.New("节点已存在")
	// ErrNodeNotFound 节点不存在（对外导出）
	ErrNodeNotFound = errors.New("节点不存在")
	// ErrCycleDetected 添加依赖会形成循环（对外导出）
	// 循环依赖在添加边时即被拒绝：静默卡死的任务比被拒绝的注册更难排查
	ErrCycleDetected = errors.New("检测到循环依赖")
	// ErrCallbackNotFound 回调句柄不存在（对外导出）
	ErrCallbackNotFound = errors.New("回调不存在")
)
