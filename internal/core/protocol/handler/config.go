package handler

import (
	"fmt"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/pkg/types"
)

// Config 请求处理配置
type Config struct {
	// MaxBlocksPerRequest getNextBlocks / getNextBlockIds 单次返回上限
	MaxBlocksPerRequest int

	// NewPeerAPIMinVersion 低于此版本的调用方只收到 host:port 形式的 HTTP 地址
	NewPeerAPIMinVersion types.Version

	// GetMorePeers 是否接受对端推送的地址
	GetMorePeers bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxBlocksPerRequest:  100,
		NewPeerAPIMinVersion: types.MustParseVersion("v3.0.0"),
		GetMorePeers:         true,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.MaxBlocksPerRequest <= 0 {
		return fmt.Errorf("%w: max blocks per request must be positive", ErrInvalidConfig)
	}
	if c.NewPeerAPIMinVersion.IsEmpty() {
		return fmt.Errorf("%w: new peer api min version must be set", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return DefaultConfig(), nil
	}
	v, err := types.ParseVersion(cfg.Peer.NewPeerAPIMinVersion)
	if err != nil {
		return Config{}, err
	}
	out := Config{
		MaxBlocksPerRequest:  cfg.Server.MaxBlocksPerRequest,
		NewPeerAPIMinVersion: v,
		GetMorePeers:         cfg.Peer.GetMorePeers,
	}
	return out, out.Validate()
}
