package config

import (
	"fmt"
	"time"
)

// SyncConfig 链同步配置
type SyncConfig struct {
	// Enabled 是否运行后台同步循环
	// 默认值: true
	Enabled bool `json:"enabled"`

	// Interval 同步周期
	// 默认值: 10s
	Interval Duration `json:"interval"`

	// MaxMilestoneRounds 单次协商最多的 getMilestoneBlockIds 轮数
	// 默认值: 50
	MaxMilestoneRounds int `json:"max_milestone_rounds"`

	// MaxRollback 切换分叉时最多回滚的区块数
	// 默认值: 720
	MaxRollback int `json:"max_rollback"`

	// DownloadCacheCapacity 下载缓存容量（区块数）
	// 默认值: 1440
	DownloadCacheCapacity int `json:"download_cache_capacity"`
}

// DefaultSyncConfig 返回默认的链同步配置
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Enabled:               true,
		Interval:              Duration(10 * time.Second),
		MaxMilestoneRounds:    50,
		MaxRollback:           720,
		DownloadCacheCapacity: 1440,
	}
}

// Validate 验证链同步配置
func (c *SyncConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("sync: interval must be positive")
	}
	if c.MaxMilestoneRounds <= 0 {
		return fmt.Errorf("sync: max_milestone_rounds must be positive")
	}
	if c.MaxRollback < 0 {
		return fmt.Errorf("sync: max_rollback cannot be negative")
	}
	if c.DownloadCacheCapacity <= 0 {
		return fmt.Errorf("sync: download_cache_capacity must be positive")
	}
	return nil
}
