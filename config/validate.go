package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateAll 验证整个配置的有效性
//
// 在 Config.Validate() 之外，还检查子配置之间的一致性。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return ValidateCompatibility(c)
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 两种入站服务都被禁用 -> 启用 HTTP
//   - 读取超时小于连接超时 -> 与连接超时相同
//   - 地址列表中的空白条目 -> 移除
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	if !c.Server.EnableHTTP && !c.Server.EnableGRPC {
		c.Server.EnableHTTP = true
	}
	if c.Peer.ReadTimeout < c.Peer.ConnectTimeout {
		c.Peer.ReadTimeout = c.Peer.ConnectTimeout
	}
	c.Peer.WellKnownPeers = compact(c.Peer.WellKnownPeers)
	c.Peer.RebroadcastPeers = compact(c.Peer.RebroadcastPeers)
	c.Peer.BlacklistedPeers = compact(c.Peer.BlacklistedPeers)

	if err := ValidateAll(c); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}

// ValidateCompatibility 验证配置之间的兼容性
func ValidateCompatibility(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.EnableHTTP && c.Server.EnableGRPC && c.Server.HTTPListen == c.Server.GRPCListen {
		return fmt.Errorf("server: http_listen and grpc_listen must differ (%s)", c.Server.HTTPListen)
	}

	// 永久黑名单中的节点不能同时是知名节点
	blocked := make(map[string]struct{}, len(c.Peer.BlacklistedPeers))
	for _, p := range c.Peer.BlacklistedPeers {
		blocked[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	for _, p := range c.Peer.WellKnownPeers {
		if _, ok := blocked[strings.ToLower(strings.TrimSpace(p))]; ok {
			return fmt.Errorf("peer: %q is both well-known and blacklisted", p)
		}
	}
	return nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
