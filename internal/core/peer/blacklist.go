package peer

import (
	"fmt"
	"time"

	"github.com/dep2p/go-brs/pkg/types"
)

// ============================================================================
//                              黑名单
// ============================================================================

// IsBlacklisted 是否处于黑名单
//
// blacklistingTime > 0 || 版本过旧 || 地址在注册表的已知黑名单中
func (c *core) IsBlacklisted() bool {
	c.mu.RLock()
	listed := c.blacklistingTime > 0 || c.oldVersion
	c.mu.RUnlock()

	return listed || c.env.Registry.KnownBlacklistedAddresses().Contains(c.Address())
}

// BlacklistingTime 加入黑名单的时间（epoch 毫秒）
func (c *core) BlacklistingTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blacklistingTime
}

// Blacklist 加入黑名单
//
// 重复调用会刷新时间戳。
func (c *core) Blacklist() {
	now := c.env.Clock.Now().UnixMilli()

	c.mu.Lock()
	c.blacklistingTime = now
	old := c.state
	c.state = types.PeerStateNotConnected
	c.mu.Unlock()

	c.notifyTransition(old, types.PeerStateNotConnected)
	c.notify(types.EventBlacklist)
}

// BlacklistWithDescription 加入黑名单，仅在状态转变时记录原因
func (c *core) BlacklistWithDescription(description string) {
	if !c.IsBlacklisted() {
		logger.Info("节点加入黑名单",
			"peer", c.remoteAddress, "version", c.Version().String(), "reason", description)
	}
	c.Blacklist()
}

// BlacklistWithCause 按失败原因决定是否加入黑名单
//
//   - 豁免错误：不做任何事
//   - 连接级错误：静默加入黑名单
//   - 其他：记录错误后加入黑名单，首次加入时额外输出 Debug 详情
func (c *core) BlacklistWithCause(cause error, description string) {
	if cause == nil {
		c.BlacklistWithDescription(description)
		return
	}
	if IsBlacklistExempt(cause) {
		return
	}
	if IsConnectionError(cause) {
		c.Blacklist()
		return
	}

	already := c.IsBlacklisted()
	logger.Error("节点加入黑名单的原因", "peer", c.remoteAddress, "err", cause)
	c.BlacklistWithDescription(description)
	if !already {
		logger.Debug("黑名单原因详情", "peer", c.remoteAddress, "cause", fmt.Sprintf("%+v", cause))
	}
}

// UnBlacklist 移出黑名单
func (c *core) UnBlacklist() {
	c.mu.Lock()
	old := c.state
	c.state = types.PeerStateNotConnected
	c.blacklistingTime = 0
	c.mu.Unlock()

	c.notifyTransition(old, types.PeerStateNotConnected)
	c.notify(types.EventUnblacklist)
}

// UpdateBlacklistedStatus 黑名单到期后自动移出
func (c *core) UpdateBlacklistedStatus(now time.Time) {
	c.mu.RLock()
	since := c.blacklistingTime
	c.mu.RUnlock()

	if since > 0 && since+c.env.Registry.BlacklistingPeriod().Milliseconds() <= now.UnixMilli() {
		c.UnBlacklist()
	}
}
