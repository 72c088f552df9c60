package chain

import "errors"

// 链模块错误定义
var (
	// ErrUnknownBlock 区块不在链上
	ErrUnknownBlock = errors.New("chain: unknown block")

	// ErrGenesisRequired 缺少创世块
	ErrGenesisRequired = errors.New("chain: genesis block required")
)
