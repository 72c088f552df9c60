package types

import "errors"

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 解析错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidAddress 无效的节点地址
	ErrInvalidAddress = errors.New("invalid peer address")

	// ErrInvalidVersion 无效的版本字符串
	ErrInvalidVersion = errors.New("invalid version")

	// ────────────────────────────────────────────────────────────────────────
	// 黑名单豁免错误
	//
	// 这些错误在正常的链重组或启动预热期间会例行出现，
	// 不应降低对端信誉。外部协作者（区块处理、存储）应使用 %w 包装它们。
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotCurrentlyValid 数据尚未生效（功能未启用等）
	ErrNotCurrentlyValid = errors.New("not currently valid")

	// ErrBlockOutOfOrder 收到的区块顺序错乱
	ErrBlockOutOfOrder = errors.New("block out of order")

	// ErrStorageBusy 存储层繁忙或超时
	ErrStorageBusy = errors.New("storage busy")

	// ────────────────────────────────────────────────────────────────────────
	// 协议错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrPeerError 对端在响应中返回了应用层错误
	ErrPeerError = errors.New("peer error")

	// ErrInvalidBlock 区块未通过校验
	ErrInvalidBlock = errors.New("invalid block")

	// ErrInvalidTransaction 交易未通过校验
	ErrInvalidTransaction = errors.New("invalid transaction")
)
