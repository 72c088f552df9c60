package config

import (
	"fmt"
	"net"
)

// ServerConfig 入站服务配置
//
// HTTP 服务在 /burst 上接受文本协议请求，gRPC 服务提供 brs.peer.v1.PeerService。
type ServerConfig struct {
	// EnableHTTP 是否启用 HTTP 服务
	// 默认值: true
	EnableHTTP bool `json:"enable_http"`

	// HTTPListen HTTP 监听地址
	// 默认值: ":8123"
	HTTPListen string `json:"http_listen"`

	// EnableGRPC 是否启用 gRPC 服务
	// 默认值: true
	EnableGRPC bool `json:"enable_grpc"`

	// GRPCListen gRPC 监听地址
	// 默认值: ":8121"
	GRPCListen string `json:"grpc_listen"`

	// RateLimit 每个远程主机每秒允许的请求数（0 表示不限）
	// 默认值: 50
	RateLimit float64 `json:"rate_limit"`

	// RateBurst 限流突发量
	// 默认值: 100
	RateBurst int `json:"rate_burst"`

	// GzipThreshold 响应体超过此字节数且客户端接受时启用 gzip
	// 默认值: 1024
	GzipThreshold int `json:"gzip_threshold"`

	// MaxBlocksPerRequest 单次 getNextBlocks / getNextBlockIds 返回的上限
	// 默认值: 100
	MaxBlocksPerRequest int `json:"max_blocks_per_request"`

	// ExposeMetrics 是否在 HTTP 服务上暴露 /metrics
	// 默认值: true
	ExposeMetrics bool `json:"expose_metrics"`
}

// DefaultServerConfig 返回默认的入站服务配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		EnableHTTP:          true,
		HTTPListen:          ":8123",
		EnableGRPC:          true,
		GRPCListen:          ":8121",
		RateLimit:           50,
		RateBurst:           100,
		GzipThreshold:       1024,
		MaxBlocksPerRequest: 100,
		ExposeMetrics:       true,
	}
}

// Validate 验证入站服务配置
func (c *ServerConfig) Validate() error {
	if c.EnableHTTP {
		if _, _, err := net.SplitHostPort(c.HTTPListen); err != nil {
			return fmt.Errorf("server: invalid http_listen %q: %w", c.HTTPListen, err)
		}
	}
	if c.EnableGRPC {
		if _, _, err := net.SplitHostPort(c.GRPCListen); err != nil {
			return fmt.Errorf("server: invalid grpc_listen %q: %w", c.GRPCListen, err)
		}
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("server: rate_limit cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("server: rate_burst must be positive when rate_limit is set")
	}
	if c.GzipThreshold < 0 {
		return fmt.Errorf("server: gzip_threshold cannot be negative")
	}
	if c.MaxBlocksPerRequest <= 0 {
		return fmt.Errorf("server: max_blocks_per_request must be positive")
	}
	return nil
}
