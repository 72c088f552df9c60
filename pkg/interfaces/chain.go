// Package interfaces 定义 go-brs 公共接口
//
// 本文件定义链相关的外部协作者接口。
package interfaces

import (
	"math/big"

	"github.com/dep2p/go-brs/pkg/types"
)

// Blockchain 本地链的只读视图
type Blockchain interface {
	// LastBlock 链尖区块
	LastBlock() *types.Block

	// Height 链高
	Height() int32

	// CumulativeDifficulty 链尖累计难度
	CumulativeDifficulty() *big.Int

	// GetBlock 按 ID 查找区块
	GetBlock(id uint64) (*types.Block, bool)

	// HasBlock 是否包含区块
	HasBlock(id uint64) bool

	// BlockIDAtHeight 指定高度的区块 ID
	BlockIDAtHeight(height int32) (uint64, bool)

	// BlocksAfter 返回 id 之后最多 limit 个区块
	BlocksAfter(id uint64, limit int) ([]*types.Block, error)

	// BlockIDsAfter 返回 id 之后最多 limit 个区块 ID
	BlockIDsAfter(id uint64, limit int) ([]uint64, error)
}

// BlockProcessor 区块处理（校验与上链）
//
// 返回的错误应使用 types 中的哨兵错误包装，
// 以便调用方区分黑名单豁免的情形。
type BlockProcessor interface {
	// ProcessPeerBlock 处理对端推送的区块
	ProcessPeerBlock(block *types.Block, from Peer) error
}

// TransactionProcessor 未确认交易池
type TransactionProcessor interface {
	// UnconfirmedTransactions 当前未确认交易
	UnconfirmedTransactions() []*types.Transaction

	// ProcessPeerTransactions 处理对端推送的交易
	ProcessPeerTransactions(txs []*types.Transaction, from Peer) error
}

// DownloadCache 下载缓存
//
// 用于计算同步请求参数。
type DownloadCache interface {
	// LastBlockID 缓存（或链）中最后一个区块的 ID
	LastBlockID() uint64

	// GetBlock 查找缓存或链中的区块
	GetBlock(id uint64) (*types.Block, bool)
}
