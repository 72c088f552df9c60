package chainsync

import "errors"

// 同步错误定义
var (
	// ErrNoPeers 没有可用于同步的节点
	ErrNoPeers = errors.New("chainsync: no connected peers")

	// ErrPeerUnavailable 对端没有给出结果（连接级失败）
	ErrPeerUnavailable = errors.New("chainsync: peer returned no result")

	// ErrNoCommonBlock 与对端没有公共区块
	ErrNoCommonBlock = errors.New("chainsync: no common block")

	// ErrTooManyMilestones 对端单轮返回的里程碑过多
	ErrTooManyMilestones = errors.New("chainsync: too many milestone block ids")

	// ErrRoundsExhausted 协商轮数耗尽
	ErrRoundsExhausted = errors.New("chainsync: negotiation rounds exhausted")

	// ErrForkTooDeep 分叉点超过允许的回滚深度
	ErrForkTooDeep = errors.New("chainsync: fork too deep")

	// ErrAlreadyStarted 后台循环已启动
	ErrAlreadyStarted = errors.New("chainsync: already started")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("chainsync: invalid config")
)
