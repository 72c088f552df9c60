package peer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dep2p/go-brs/pkg/types"
)

// call 执行一次网络交换
//
// 截止时间为 ConnectTimeout + ReadTimeout。失败时执行传输相关处理，
// 按错误分类记录日志并返回缺席结果。
func call[T any](ctx context.Context, c *core, op string, fn func(context.Context) (T, error)) (T, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.env.Registry.ConnectTimeout()+c.env.Registry.ReadTimeout())
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		if c.onFailure != nil {
			c.onFailure()
		}
		c.logFailure(op, err)
		var zero T
		return zero, false
	}
	return v, true
}

// logFailure 连接级错误只记录 Debug，其余记录 Warn
func (c *core) logFailure(op string, err error) {
	if IsConnectionError(err) {
		logger.Debug("节点调用失败", "op", op, "peer", c.remoteAddress, "err", err)
		return
	}
	logger.Warn("节点调用失败", "op", op, "peer", c.remoteAddress, "err", err)
}

// nextBlockHeight getNextBlocks 结果中第一个区块的高度
func (c *core) nextBlockHeight(lastBlockID uint64) (int32, error) {
	b, ok := c.env.Cache.GetBlock(lastBlockID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrBlockNotCached, types.FormatID(lastBlockID))
	}
	return b.Height + 1, nil
}

// gossipAddresses 按本节点看到的对端版本格式化地址
func (c *core) gossipAddresses(addrs []types.PeerAddress) []string {
	return FormatGossipAddresses(c.Version(), c.env.Config.NewPeerAPIMinVersion, addrs)
}

// truncate 截断到上限
func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// nonZero 过滤 0 ID
func nonZero(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}

// ============================================================================
//                              地址传播格式
// ============================================================================

// FormatGossipAddresses 格式化要发送给目标节点的地址
//
// 目标版本低于 newAPIMin 时使用 host:port，否则使用完整规范形式。
func FormatGossipAddresses(target, newAPIMin types.Version, addrs []types.PeerAddress) []string {
	full := target.IsGreaterThanOrEqual(newAPIMin)
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if full {
			out = append(out, a.String())
		} else {
			out = append(out, a.HostPort())
		}
	}
	return out
}

// ParseGossipAddresses 解析对端提供的地址列表
//
// 空白与无法解析的条目被丢弃；缺少 scheme 的条目按 HTTP 解析。
func ParseGossipAddresses(raw []string) []types.PeerAddress {
	out := make([]types.PeerAddress, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		addr, err := types.ParsePeerAddress(s, types.ProtocolHTTP)
		if err != nil {
			continue
		}
		out = append(out, addr)
	}
	return out
}
