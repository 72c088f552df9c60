package chainsync

import (
	"fmt"
	"time"

	"github.com/dep2p/go-brs/config"
)

// Config 同步配置
type Config struct {
	// Enabled 是否运行后台循环
	Enabled bool

	// Interval 后台循环周期
	Interval time.Duration

	// MaxMilestoneRounds 单次协商最多轮数
	MaxMilestoneRounds int

	// MaxRollback 最多回滚的区块数
	MaxRollback int

	// SendToPeersLimit 并发请求/推送的节点数上限
	SendToPeersLimit int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Interval:           10 * time.Second,
		MaxMilestoneRounds: 50,
		MaxRollback:        720,
		SendToPeersLimit:   10,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.MaxMilestoneRounds <= 0 {
		return fmt.Errorf("%w: max milestone rounds must be positive", ErrInvalidConfig)
	}
	if c.MaxRollback < 0 {
		return fmt.Errorf("%w: max rollback cannot be negative", ErrInvalidConfig)
	}
	if c.SendToPeersLimit <= 0 {
		return fmt.Errorf("%w: send to peers limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:            cfg.Sync.Enabled,
		Interval:           cfg.Sync.Interval.Duration(),
		MaxMilestoneRounds: cfg.Sync.MaxMilestoneRounds,
		MaxRollback:        cfg.Sync.MaxRollback,
		SendToPeersLimit:   cfg.Peer.SendToPeersLimit,
	}
}
