// Package interfaces 定义 go-brs 公共接口
//
// 本文件定义 Peer 接口：远程节点的连接状态、信誉与同步协议操作。
package interfaces

import (
	"context"
	"time"

	"github.com/dep2p/go-brs/pkg/types"
)

// Peer 远程节点契约
//
// 由 HTTP（文本）与 gRPC（类型化 RPC）两种传输分别实现，
// 两者暴露完全相同的操作集。所有方法可被多个 goroutine 并发调用。
//
// 网络操作是同步阻塞的往返调用，超时由注册表的 connect/read 超时约束；
// 任何失败都以"缺席结果"（ok == false）返回，不向调用方抛出错误。
type Peer interface {
	PeerState
	PeerReputation
	PeerProtocol

	// Close 释放传输资源（例如缓存的 RPC 通道）
	Close() error
}

// PeerState 节点身份与连接状态
type PeerState interface {
	// RemoteAddress 发现节点时使用的原始连接字符串
	RemoteAddress() string

	// Address 公告地址；未公告时为解析后的远程地址
	Address() types.PeerAddress

	// Protocol 节点实例使用的传输协议
	Protocol() types.Protocol

	// State 当前连接状态
	State() types.PeerState

	// Version 最近一次握手上报的版本
	Version() types.Version

	// Application 最近一次握手上报的应用标识
	Application() string

	// Platform 最近一次握手上报的平台描述
	Platform() string

	// ShareAddress 对端是否允许分享其地址
	ShareAddress() bool

	// DownloadedVolume 累计下载字节数
	DownloadedVolume() int64

	// UploadedVolume 累计上传字节数
	UploadedVolume() int64

	// LastUpdated 最近一次成功握手的时间（epoch 秒）
	LastUpdated() int64

	// IsWellKnown 是否为配置的知名节点
	IsWellKnown() bool

	// IsRebroadcastTarget 是否为交易重播目标
	IsRebroadcastTarget() bool

	// IsAtLeastMyVersion 对端版本是否不低于本节点
	IsAtLeastMyVersion() bool

	// IsHigherOrEqualVersionThan 对端版本是否不低于 v
	IsHigherOrEqualVersionThan(v types.Version) bool

	// UpdateDownloadedVolume 累加下载字节数并发出通知
	UpdateDownloadedVolume(n int64)

	// UpdateUploadedVolume 累加上传字节数并发出通知
	UpdateUploadedVolume(n int64)

	// UpdateInfo 采纳握手载荷（应用、版本、平台、分享标志、公告地址）
	UpdateInfo(info types.PeerInfo)

	// UpdateAddress 更新公告地址
	//
	// 协议不匹配的地址被静默忽略；成功更新会把状态置为 NOT_CONNECTED 以触发重新验证。
	UpdateAddress(addr types.PeerAddress)

	// Remove 请求注册表移除本节点
	Remove()
}

// PeerReputation 黑名单与信誉
type PeerReputation interface {
	// IsBlacklisted blacklistingTime > 0 || 版本过旧 || 地址在已知黑名单中
	IsBlacklisted() bool

	// BlacklistingTime 加入黑名单的时间（epoch 毫秒，0 表示未加入）
	BlacklistingTime() int64

	// Blacklist 加入黑名单（刷新时间戳）
	Blacklist()

	// BlacklistWithDescription 加入黑名单，仅在状态转变时记录原因
	BlacklistWithDescription(description string)

	// BlacklistWithCause 按失败原因分类决定是否加入黑名单
	BlacklistWithCause(cause error, description string)

	// UnBlacklist 移出黑名单并置为 NOT_CONNECTED
	UnBlacklist()

	// UpdateBlacklistedStatus 黑名单到期后自动移出
	UpdateBlacklistedStatus(now time.Time)
}

// PeerProtocol 同步协议操作
type PeerProtocol interface {
	// Connect 握手；成功时状态置为 CONNECTED
	Connect(ctx context.Context) bool

	// ExchangeInfo 交换握手载荷
	ExchangeInfo(ctx context.Context) (types.PeerInfo, bool)

	// GetCumulativeDifficulty 查询对端累计难度与链高
	GetCumulativeDifficulty(ctx context.Context) (types.CumulativeDifficulty, bool)

	// GetUnconfirmedTransactions 拉取对端未确认交易
	GetUnconfirmedTransactions(ctx context.Context) ([]*types.Transaction, bool)

	// GetMilestoneBlockIDs 以本地下载缓存的最后块 ID 开始里程碑协商
	GetMilestoneBlockIDs(ctx context.Context) (types.MilestoneBlockIDs, bool)

	// GetMilestoneBlockIDsFrom 以上一轮最后的里程碑 ID 继续协商
	GetMilestoneBlockIDsFrom(ctx context.Context, lastMilestoneBlockID uint64) (types.MilestoneBlockIDs, bool)

	// GetNextBlocks 拉取 lastBlockID 之后的区块（截断到上限）
	GetNextBlocks(ctx context.Context, lastBlockID uint64) ([]*types.Block, bool)

	// GetNextBlockIDs 拉取 lastBlockID 之后的区块 ID（截断到上限）
	GetNextBlockIDs(ctx context.Context, lastBlockID uint64) ([]uint64, bool)

	// SendUnconfirmedTransactions 尽力推送未确认交易
	SendUnconfirmedTransactions(ctx context.Context, txs []*types.Transaction)

	// SendBlock 推送区块，返回对端是否接受
	SendBlock(ctx context.Context, block *types.Block) bool

	// AddPeers 向对端推送节点地址
	AddPeers(ctx context.Context, addrs []types.PeerAddress)

	// GetPeers 获取对端已知节点地址
	GetPeers(ctx context.Context) ([]types.PeerAddress, bool)
}
