package httpserver

import (
	"fmt"
	"net"

	"github.com/dep2p/go-brs/config"
)

// Config HTTP 服务端配置
type Config struct {
	// Enabled 是否启用
	Enabled bool

	// Listen 监听地址
	Listen string

	// GzipThreshold 响应压缩阈值（字节），0 表示总是压缩
	GzipThreshold int

	// RateLimit 每个主机每秒请求数，0 表示不限流
	RateLimit float64

	// RateBurst 每个主机突发请求数
	RateBurst int

	// ExposeMetrics 是否暴露 /metrics
	ExposeMetrics bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Listen:        ":8123",
		GzipThreshold: 1024,
		RateLimit:     50,
		RateBurst:     100,
		ExposeMetrics: true,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("%w: listen %q: %v", ErrInvalidConfig, c.Listen, err)
	}
	if c.GzipThreshold < 0 || c.RateLimit < 0 {
		return fmt.Errorf("%w: negative threshold or rate", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:       cfg.Server.EnableHTTP,
		Listen:        cfg.Server.HTTPListen,
		GzipThreshold: cfg.Server.GzipThreshold,
		RateLimit:     cfg.Server.RateLimit,
		RateBurst:     cfg.Server.RateBurst,
		ExposeMetrics: cfg.Server.ExposeMetrics && cfg.Metrics.Enabled,
	}
}
