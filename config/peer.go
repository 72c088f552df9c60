package config

import (
	"fmt"
	"time"
)

// PeerConfig 对端交互配置
type PeerConfig struct {
	// ConnectTimeout 建立连接超时
	// 默认值: 4s
	ConnectTimeout Duration `json:"connect_timeout"`

	// ReadTimeout 读取响应超时
	// 默认值: 8s
	ReadTimeout Duration `json:"read_timeout"`

	// BlacklistingPeriod 黑名单持续时间，到期后自动移出
	// 默认值: 10m
	BlacklistingPeriod Duration `json:"blacklisting_period"`

	// MaxReceivedBlocks 单次 getNextBlocks / getNextBlockIds 接收的上限
	// 默认值: 720
	MaxReceivedBlocks int `json:"max_received_blocks"`

	// MinVersion 可接受的最低对端版本
	// 默认值: "v2.5.0"
	MinVersion string `json:"min_version"`

	// NewPeerAPIMinVersion 支持完整地址格式的最低对端版本
	// 默认值: "v3.0.0"
	NewPeerAPIMinVersion string `json:"new_peer_api_min_version"`

	// WellKnownPeers 知名节点（启动时连接）
	WellKnownPeers []string `json:"well_known_peers,omitempty"`

	// RebroadcastPeers 交易重播目标
	RebroadcastPeers []string `json:"rebroadcast_peers,omitempty"`

	// BlacklistedPeers 永久黑名单
	BlacklistedPeers []string `json:"blacklisted_peers,omitempty"`

	// MaxConnectedPeers 维护循环保持的最大连接数
	// 默认值: 20
	MaxConnectedPeers int `json:"max_connected_peers"`

	// MaintenanceInterval 维护循环周期
	// 默认值: 5s
	MaintenanceInterval Duration `json:"maintenance_interval"`

	// SendToPeersLimit 广播区块/交易时的并发上限
	// 默认值: 10
	SendToPeersLimit int `json:"send_to_peers_limit"`

	// GetMorePeers 是否通过 getPeers/addPeers 交换地址
	// 默认值: true
	GetMorePeers bool `json:"get_more_peers"`

	// SavePeers 是否持久化已知节点地址
	// 默认值: true
	SavePeers bool `json:"save_peers"`
}

// DefaultPeerConfig 返回默认的对端交互配置
func DefaultPeerConfig() PeerConfig {
	return PeerConfig{
		ConnectTimeout:       Duration(4 * time.Second),
		ReadTimeout:          Duration(8 * time.Second),
		BlacklistingPeriod:   Duration(10 * time.Minute),
		MaxReceivedBlocks:    720,
		MinVersion:           "v2.5.0",
		NewPeerAPIMinVersion: "v3.0.0",
		MaxConnectedPeers:    20,
		MaintenanceInterval:  Duration(5 * time.Second),
		SendToPeersLimit:     10,
		GetMorePeers:         true,
		SavePeers:            true,
	}
}

// Validate 验证对端交互配置
func (c *PeerConfig) Validate() error {
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("peer: connect_timeout must be positive")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("peer: read_timeout must be positive")
	}
	if c.BlacklistingPeriod <= 0 {
		return fmt.Errorf("peer: blacklisting_period must be positive")
	}
	if c.MaxReceivedBlocks <= 0 {
		return fmt.Errorf("peer: max_received_blocks must be positive")
	}
	if !validVersion(c.MinVersion) {
		return fmt.Errorf("peer: invalid min_version %q", c.MinVersion)
	}
	if !validVersion(c.NewPeerAPIMinVersion) {
		return fmt.Errorf("peer: invalid new_peer_api_min_version %q", c.NewPeerAPIMinVersion)
	}
	if c.MaxConnectedPeers < 0 {
		return fmt.Errorf("peer: max_connected_peers cannot be negative")
	}
	if c.MaintenanceInterval <= 0 {
		return fmt.Errorf("peer: maintenance_interval must be positive")
	}
	if c.SendToPeersLimit <= 0 {
		return fmt.Errorf("peer: send_to_peers_limit must be positive")
	}
	return nil
}
