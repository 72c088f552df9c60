package handler

import "errors"

// 请求处理错误定义
var (
	// ErrBlacklisted 调用方处于黑名单中
	ErrBlacklisted = errors.New("handler: peer is blacklisted")

	// ErrUnknownBlock 请求引用的区块不在本地链上
	ErrUnknownBlock = errors.New("handler: unknown block")

	// ErrUnknownMilestone 里程碑区块不在本地链上
	ErrUnknownMilestone = errors.New("handler: milestone block not found")

	// ErrOldProtocol 请求既没有 lastBlockId 也没有 lastMilestoneBlockId
	ErrOldProtocol = errors.New("handler: old getMilestoneBlockIds protocol not supported, please upgrade")

	// ErrMissingParameter 缺少必需参数
	ErrMissingParameter = errors.New("handler: missing parameter")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("handler: invalid config")
)
