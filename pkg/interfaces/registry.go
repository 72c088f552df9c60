// Package interfaces 定义 go-brs 公共接口
//
// 本文件定义节点注册表接口。
package interfaces

import (
	"time"

	"github.com/dep2p/go-brs/pkg/types"
)

// Registry 节点注册表的窄接口
//
// Peer 在构造时接收 Registry，用于读取配置集合、上报生命周期通知，
// 而不依赖全局单例。
type Registry interface {
	// NotifyListeners 派发节点事件
	NotifyListeners(p Peer, event types.PeerEvent)

	// UpdateAddress 节点公告地址变化后重新索引
	UpdateAddress(p Peer)

	// RemovePeer 移除节点
	RemovePeer(p Peer)

	// WellKnownPeers 知名节点集合
	WellKnownPeers() types.AddressSet

	// RebroadcastPeers 交易重播目标集合
	RebroadcastPeers() types.AddressSet

	// KnownBlacklistedAddresses 配置的永久黑名单
	KnownBlacklistedAddresses() types.AddressSet

	// BlacklistingPeriod 黑名单持续时间
	BlacklistingPeriod() time.Duration

	// ConnectTimeout 建立连接超时
	ConnectTimeout() time.Duration

	// ReadTimeout 读取响应超时
	ReadTimeout() time.Duration

	// MyPeerInfo 本节点在指定传输上的握手载荷
	MyPeerInfo(protocol types.Protocol) types.PeerInfo
}

// PeerListener 节点事件回调
//
// 回调在触发事件的 goroutine 上同步执行，且不持有任何节点锁。
type PeerListener func(p Peer, event types.PeerEvent)

// PeerManager 完整的节点注册表
type PeerManager interface {
	Registry

	// GetPeer 按规范地址或原始连接字符串查找节点
	GetPeer(address string) (Peer, bool)

	// AllPeers 返回全部节点
	AllPeers() []Peer

	// ActivePeers 返回状态非 NOT_CONNECTED 的节点
	ActivePeers() []Peer

	// AddPeer 按地址字符串注册节点（已存在时返回已有实例）
	AddPeer(address string) (Peer, error)

	// AddListener 注册事件回调
	AddListener(event types.PeerEvent, listener PeerListener)
}
