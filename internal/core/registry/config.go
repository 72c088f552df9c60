package registry

import (
	"fmt"
	"time"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/internal/core/peer"
	"github.com/dep2p/go-brs/pkg/types"
)

// Config 注册表配置
type Config struct {
	// Peer 节点行为配置
	Peer peer.Config

	// Platform 本节点平台描述
	Platform string

	// ShareAddress 是否允许对端分享本节点地址
	ShareAddress bool

	// MyAddress HTTP 传输公告地址（零值表示不公告）
	MyAddress types.PeerAddress

	// MyGRPCAddress gRPC 传输公告地址（零值表示不公告）
	MyGRPCAddress types.PeerAddress

	// WellKnownPeers 知名节点
	WellKnownPeers types.AddressSet

	// RebroadcastPeers 交易重播目标
	RebroadcastPeers types.AddressSet

	// BlacklistedPeers 永久黑名单
	BlacklistedPeers types.AddressSet

	// ConnectTimeout 建立连接超时
	ConnectTimeout time.Duration

	// ReadTimeout 读取响应超时
	ReadTimeout time.Duration

	// BlacklistingPeriod 黑名单持续时间
	BlacklistingPeriod time.Duration

	// MaxConnectedPeers 维护循环保持的最大活跃节点数
	MaxConnectedPeers int

	// MaintenanceInterval 维护循环周期
	MaintenanceInterval time.Duration

	// GetMorePeers 是否交换地址
	GetMorePeers bool

	// SavePeers 是否持久化已知节点
	SavePeers bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Peer:                peer.DefaultConfig(),
		ShareAddress:        true,
		ConnectTimeout:      4 * time.Second,
		ReadTimeout:         8 * time.Second,
		BlacklistingPeriod:  10 * time.Minute,
		MaxConnectedPeers:   20,
		MaintenanceInterval: 5 * time.Second,
		GetMorePeers:        true,
		SavePeers:           true,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if err := c.Peer.Validate(); err != nil {
		return err
	}
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.BlacklistingPeriod <= 0 {
		return fmt.Errorf("%w: blacklisting period must be positive", ErrInvalidConfig)
	}
	if c.MaxConnectedPeers < 0 {
		return fmt.Errorf("%w: negative max connected peers", ErrInvalidConfig)
	}
	if c.MaintenanceInterval <= 0 {
		return fmt.Errorf("%w: maintenance interval must be positive", ErrInvalidConfig)
	}
	if !c.MyAddress.IsZero() && c.MyAddress.Protocol != types.ProtocolHTTP {
		return fmt.Errorf("%w: my address must use http", ErrInvalidConfig)
	}
	if !c.MyGRPCAddress.IsZero() && c.MyGRPCAddress.Protocol != types.ProtocolGRPC {
		return fmt.Errorf("%w: my grpc address must use grpc", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建
//
// 地址列表中无法解析的条目被丢弃并记录警告。
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return DefaultConfig(), nil
	}
	peerCfg, err := peer.ConfigFromUnified(cfg)
	if err != nil {
		return Config{}, err
	}

	out := Config{
		Peer:                peerCfg,
		Platform:            cfg.Node.Platform,
		ShareAddress:        cfg.Node.ShareAddress,
		WellKnownPeers:      parseSet("well_known_peers", cfg.Peer.WellKnownPeers),
		RebroadcastPeers:    parseSet("rebroadcast_peers", cfg.Peer.RebroadcastPeers),
		BlacklistedPeers:    parseSet("blacklisted_peers", cfg.Peer.BlacklistedPeers),
		ConnectTimeout:      cfg.Peer.ConnectTimeout.Duration(),
		ReadTimeout:         cfg.Peer.ReadTimeout.Duration(),
		BlacklistingPeriod:  cfg.Peer.BlacklistingPeriod.Duration(),
		MaxConnectedPeers:   cfg.Peer.MaxConnectedPeers,
		MaintenanceInterval: cfg.Peer.MaintenanceInterval.Duration(),
		GetMorePeers:        cfg.Peer.GetMorePeers,
		SavePeers:           cfg.Peer.SavePeers,
	}
	if cfg.Node.MyAddress != "" {
		if out.MyAddress, err = types.ParsePeerAddress(cfg.Node.MyAddress, types.ProtocolHTTP); err != nil {
			return Config{}, err
		}
	}
	if cfg.Node.MyGRPCAddress != "" {
		if out.MyGRPCAddress, err = types.ParsePeerAddress(cfg.Node.MyGRPCAddress, types.ProtocolGRPC); err != nil {
			return Config{}, err
		}
	}
	return out, out.Validate()
}

func parseSet(field string, raw []string) types.AddressSet {
	set, invalid := types.ParseAddressSet(raw, types.ProtocolHTTP)
	for _, s := range invalid {
		logger.Warn("忽略无效的节点地址", "field", field, "address", s)
	}
	return set
}
