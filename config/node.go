package config

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
)

// NodeConfig 本节点身份配置
//
// 这些字段组成握手载荷（PeerInfo），在 getInfo / ExchangeInfo 中发送给对端。
type NodeConfig struct {
	// Application 应用标识
	// 只有应用标识相同的对端才会进行最低版本检查
	// 默认值: "BRS"
	Application string `json:"application"`

	// Version 本节点版本（语义化版本）
	// 默认值: "v3.0.0"
	Version string `json:"version"`

	// Platform 平台描述
	// 默认值: "<GOOS>-<GOARCH>"
	Platform string `json:"platform"`

	// MyAddress 对外公告的地址（为空表示不公告）
	MyAddress string `json:"my_address,omitempty"`

	// MyGRPCAddress gRPC 传输对外公告的地址（为空表示不公告）
	MyGRPCAddress string `json:"my_grpc_address,omitempty"`

	// ShareAddress 是否允许对端分享本节点地址
	// 默认值: true
	ShareAddress bool `json:"share_address"`
}

// DefaultNodeConfig 返回默认的节点身份配置
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Application:  "BRS",
		Version:      "v3.0.0",
		Platform:     runtime.GOOS + "-" + runtime.GOARCH,
		ShareAddress: true,
	}
}

// Validate 验证节点身份配置
func (c *NodeConfig) Validate() error {
	if strings.TrimSpace(c.Application) == "" {
		return fmt.Errorf("node: application cannot be empty")
	}
	if !validVersion(c.Version) {
		return fmt.Errorf("node: invalid version %q", c.Version)
	}
	return nil
}

// validVersion 检查语义化版本（允许省略前缀 v）
func validVersion(v string) bool {
	if v == "" {
		return false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v)
}
