package peer

import (
	"context"
	"fmt"
	"sync"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("core/peer")

// ============================================================================
//                              core - 传输无关的节点状态
// ============================================================================

// core 节点的共享状态与行为
//
// 由 HTTPPeer 与 GRPCPeer 内嵌。可变字段由 mu 保护，
// 流量计数由 volumeMu 单独保护；通知总是在释放锁之后派发。
type core struct {
	env      Env
	self     interfaces.Peer
	protocol types.Protocol

	remoteAddress string
	parsedRemote  types.PeerAddress

	mu               sync.RWMutex
	announced        types.PeerAddress
	state            types.PeerState
	application      string
	version          types.Version
	platform         string
	shareAddress     bool
	oldVersion       bool
	blacklistingTime int64 // epoch 毫秒
	lastUpdated      int64 // epoch 秒

	volumeMu   sync.Mutex
	downloaded int64
	uploaded   int64

	// onFailure 调用失败后的传输相关处理
	onFailure func()

	// onAddressChange 公告地址变化后的传输相关处理
	onAddressChange func()
}

// newCore 创建共享状态
//
// announced 为零值表示未知；非零时其协议必须与 protocol 相同。
func newCore(env Env, protocol types.Protocol, remoteAddress string, announced types.PeerAddress) (*core, error) {
	if !announced.IsZero() && announced.Protocol != protocol {
		return nil, fmt.Errorf("%w: %s address %s", ErrProtocolMismatch, protocol, announced)
	}

	parsed, err := types.ParsePeerAddress(remoteAddress, protocol)
	if err != nil {
		if announced.IsZero() {
			return nil, fmt.Errorf("%w: %v", ErrNoAddress, err)
		}
		parsed = types.PeerAddress{}
	}

	return &core{
		env:           env,
		protocol:      protocol,
		remoteAddress: remoteAddress,
		parsedRemote:  parsed,
		announced:     announced,
		state:         types.PeerStateNotConnected,
		shareAddress:  true,
	}, nil
}

// ==================== 身份 ====================

// RemoteAddress 发现节点时使用的原始连接字符串
func (c *core) RemoteAddress() string {
	return c.remoteAddress
}

// Address 公告地址；未公告时为解析后的远程地址
func (c *core) Address() types.PeerAddress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.announced.IsZero() {
		return c.announced
	}
	return c.parsedRemote
}

// Protocol 传输协议
func (c *core) Protocol() types.Protocol {
	return c.protocol
}

// ==================== 握手字段 ====================

// State 当前连接状态
func (c *core) State() types.PeerState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Version 对端版本
func (c *core) Version() types.Version {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Application 对端应用标识
func (c *core) Application() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.application
}

// Platform 对端平台
func (c *core) Platform() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.platform
}

// ShareAddress 对端是否允许分享地址
func (c *core) ShareAddress() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shareAddress
}

// LastUpdated 最近一次成功握手的时间（epoch 秒）
func (c *core) LastUpdated() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}

// IsWellKnown 是否为知名节点
func (c *core) IsWellKnown() bool {
	return c.env.Registry.WellKnownPeers().Contains(c.Address())
}

// IsRebroadcastTarget 是否为交易重播目标
func (c *core) IsRebroadcastTarget() bool {
	return c.env.Registry.RebroadcastPeers().Contains(c.Address())
}

// IsAtLeastMyVersion 对端版本是否不低于本节点
func (c *core) IsAtLeastMyVersion() bool {
	return c.IsHigherOrEqualVersionThan(c.env.Config.Version)
}

// IsHigherOrEqualVersionThan 对端版本是否不低于 v
func (c *core) IsHigherOrEqualVersionThan(v types.Version) bool {
	return c.Version().IsGreaterThanOrEqual(v)
}

// UpdateInfo 采纳握手载荷
//
// 应用标识先于版本赋值，版本兼容性依赖它。
// 非空且与当前不同的公告地址通过 UpdateAddress 生效。
func (c *core) UpdateInfo(info types.PeerInfo) {
	c.mu.Lock()
	c.application = info.Application
	c.setVersionLocked(info.Version)
	c.platform = info.Platform
	c.shareAddress = info.ShareAddress
	current := c.announced
	c.mu.Unlock()

	if info.AnnouncedAddress == "" {
		return
	}
	addr, err := types.ParsePeerAddress(info.AnnouncedAddress, c.protocol)
	if err != nil {
		logger.Debug("忽略无法解析的公告地址",
			"peer", c.remoteAddress, "announced", info.AnnouncedAddress, "err", err)
		return
	}
	if addr != current {
		c.UpdateAddress(addr)
	}
}

// setVersionLocked 赋值版本并重新计算 oldVersion
//
// 每次赋值都先复位；只有对端应用标识与本节点相同时才比较最低版本，
// 此时版本无法解析视为过旧。调用方必须持有 mu。
func (c *core) setVersionLocked(raw string) {
	c.version = types.EmptyVersion
	c.oldVersion = false

	v, err := types.ParseVersion(raw)
	if c.application != c.env.Config.Application {
		if err == nil {
			c.version = v
		}
		return
	}
	if err != nil {
		c.oldVersion = true
		return
	}
	c.version = v
	c.oldVersion = c.env.Config.MinVersion.IsGreaterThan(v)
}

// UpdateAddress 更新公告地址并强制重新验证
func (c *core) UpdateAddress(addr types.PeerAddress) {
	if addr.Protocol != c.protocol {
		return
	}

	c.mu.Lock()
	c.announced = addr
	c.mu.Unlock()

	c.setState(types.PeerStateNotConnected)
	c.env.Registry.UpdateAddress(c.self)
	if c.onAddressChange != nil {
		c.onAddressChange()
	}
}

// Remove 请求注册表移除本节点
func (c *core) Remove() {
	c.env.Registry.RemovePeer(c.self)
}

// ==================== 状态机 ====================

// setState 设置状态并派发转换通知
func (c *core) setState(s types.PeerState) {
	c.mu.Lock()
	old := c.state
	c.state = s
	c.mu.Unlock()

	c.notifyTransition(old, s)
}

// downgrade CONNECTED -> DISCONNECTED（其他状态不变）
func (c *core) downgrade() {
	c.mu.Lock()
	old := c.state
	if old == types.PeerStateConnected {
		c.state = types.PeerStateDisconnected
	}
	s := c.state
	c.mu.Unlock()

	c.notifyTransition(old, s)
}

func (c *core) notifyTransition(old, s types.PeerState) {
	if ev, ok := transitionEvent(old, s); ok {
		logger.Debug("节点状态变更", "peer", c.remoteAddress, "from", old, "to", s)
		c.notify(ev)
	}
}

// transitionEvent 状态转换对应的事件
//
// 进入或离开 NOT_CONNECTED 为 EventActivated，两个活跃状态之间为 EventChanged。
func transitionEvent(old, s types.PeerState) (types.PeerEvent, bool) {
	if old == s {
		return 0, false
	}
	if old == types.PeerStateNotConnected || s == types.PeerStateNotConnected {
		return types.EventActivated, true
	}
	return types.EventChanged, true
}

func (c *core) notify(ev types.PeerEvent) {
	c.env.Registry.NotifyListeners(c.self, ev)
}

// connect 握手流程
//
// 失败时不改变状态；成功时采纳载荷、补齐公告地址、置为 CONNECTED 并记录时间。
func (c *core) connect(ctx context.Context, exchange func(context.Context) (types.PeerInfo, bool)) bool {
	info, ok := exchange(ctx)
	if !ok {
		return false
	}
	c.UpdateInfo(info)

	c.mu.Lock()
	if c.announced.IsZero() {
		c.announced = c.parsedRemote
	}
	c.lastUpdated = c.env.Clock.Now().Unix()
	c.mu.Unlock()

	c.setState(types.PeerStateConnected)
	return true
}

// ==================== 流量计数 ====================

// DownloadedVolume 累计下载字节数
func (c *core) DownloadedVolume() int64 {
	c.volumeMu.Lock()
	defer c.volumeMu.Unlock()
	return c.downloaded
}

// UploadedVolume 累计上传字节数
func (c *core) UploadedVolume() int64 {
	c.volumeMu.Lock()
	defer c.volumeMu.Unlock()
	return c.uploaded
}

// UpdateDownloadedVolume 累加下载字节数
func (c *core) UpdateDownloadedVolume(n int64) {
	if n < 0 {
		return
	}
	c.volumeMu.Lock()
	c.downloaded += n
	c.volumeMu.Unlock()

	c.notify(types.EventDownloadedVolume)
}

// UpdateUploadedVolume 累加上传字节数
func (c *core) UpdateUploadedVolume(n int64) {
	if n < 0 {
		return
	}
	c.volumeMu.Lock()
	c.uploaded += n
	c.volumeMu.Unlock()

	c.notify(types.EventUploadedVolume)
}
