package storage

import (
	"time"

	"github.com/dep2p/go-brs/config"
)

const (
	defaultDBPath       = "./data/brs.db"
	defaultGCInterval   = 10 * time.Minute
	minGCInterval       = time.Minute
	defaultDiscardRatio = 0.5
)

// Config 数据库选项
type Config struct {
	// Path 数据库目录，InMemory 时忽略
	Path     string
	InMemory bool

	SyncWrites bool

	// GCInterval 值日志回收周期，0 表示不回收
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// DefaultConfig 落盘配置
func DefaultConfig() Config {
	return Config{
		Path:           defaultDBPath,
		GCInterval:     defaultGCInterval,
		GCDiscardRatio: defaultDiscardRatio,
	}
}

// InMemoryConfig 不落盘的配置，测试使用
func InMemoryConfig() Config {
	return Config{InMemory: true, GCDiscardRatio: defaultDiscardRatio}
}

// ConfigFromUnified 由节点配置的 storage 段得到数据库选项
func ConfigFromUnified(cfg *config.Config) Config {
	switch {
	case cfg == nil:
		return DefaultConfig()
	case cfg.Storage.InMemory:
		return InMemoryConfig()
	}
	out := DefaultConfig()
	if cfg.Storage.DataDir != "" {
		out.Path = cfg.Storage.DBPath()
	}
	return out
}

// Validate 检查路径并把越界的回收参数拉回合法范围
func (c *Config) Validate() error {
	if c.Path == "" && !c.InMemory {
		return ErrInvalidConfig
	}
	if c.GCInterval > 0 && c.GCInterval < minGCInterval {
		c.GCInterval = minGCInterval
	}
	if !(c.GCDiscardRatio > 0 && c.GCDiscardRatio < 1) {
		c.GCDiscardRatio = defaultDiscardRatio
	}
	return nil
}
