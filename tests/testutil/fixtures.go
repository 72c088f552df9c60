// Package testutil 提供测试辅助工具
package testutil

import (
	"github.com/dep2p/go-brs/pkg/types"
)

// 测试数据固件
const (
	// GenesisBlockID 测试链的创世块 ID
	GenesisBlockID uint64 = 1000

	// TestBaseTarget 测试区块使用的 baseTarget
	TestBaseTarget uint64 = 18325193796
)

// BlockID 测试链上指定高度的区块 ID
func BlockID(height int32) uint64 {
	return GenesisBlockID + uint64(height)
}

// NewBlock 创建测试链上指定高度的区块
func NewBlock(height int32) *types.Block {
	b := &types.Block{
		ID:                  BlockID(height),
		Version:             3,
		Timestamp:           height * 240,
		Height:              height,
		TotalAmountNQT:      int64(height) * 100,
		TotalFeeNQT:         int64(height),
		PayloadHash:         []byte{0x01, byte(height)},
		GeneratorPublicKey:  []byte{0xaa, 0xbb},
		GenerationSignature: []byte{0x02, byte(height)},
		BlockSignature:      []byte{0x03, byte(height)},
		Nonce:               uint64(height) * 7,
		BaseTarget:          TestBaseTarget,
	}
	if height > 0 {
		b.PreviousBlockID = BlockID(height - 1)
		b.PreviousBlockHash = []byte{0x04, byte(height - 1)}
	}
	return b
}

// NewChain 创建高度 0..tip 的测试链
func NewChain(tip int32) []*types.Block {
	out := make([]*types.Block, 0, tip+1)
	for h := int32(0); h <= tip; h++ {
		out = append(out, NewBlock(h))
	}
	return out
}

// NewTransaction 创建测试交易
func NewTransaction(id uint64) *types.Transaction {
	return &types.Transaction{
		ID:              id,
		Type:            0,
		Subtype:         0,
		Version:         1,
		Timestamp:       int32(id),
		Deadline:        1440,
		SenderPublicKey: []byte{0x0a, byte(id)},
		RecipientID:     id + 1,
		AmountNQT:       int64(id) * 10,
		FeeNQT:          100000000,
		Signature:       []byte{0x0b, byte(id)},
	}
}
