package brs

import (
	sha256 "github.com/minio/sha256-simd"

	"github.com/dep2p/go-brs/pkg/types"
)

// 主网创世块参数
const (
	// GenesisBlockID 创世块 ID
	GenesisBlockID uint64 = 3444294670862540038

	// InitialBaseTarget 创世 baseTarget
	InitialBaseTarget uint64 = 18325193796
)

// DefaultGenesis 返回主网创世块
//
// 同步层只依赖 ID、高度与 baseTarget，签名字段为全零占位。
func DefaultGenesis() *types.Block {
	payload := sha256.Sum256(nil)
	return &types.Block{
		ID:                  GenesisBlockID,
		Version:             -1,
		PayloadHash:         payload[:],
		GeneratorPublicKey:  make([]byte, 32),
		GenerationSignature: make([]byte, 32),
		BlockSignature:      make([]byte, 64),
		BaseTarget:          InitialBaseTarget,
	}
}
