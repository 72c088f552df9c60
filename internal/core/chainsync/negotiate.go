package chainsync

import (
	"context"
	"fmt"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// maxMilestoneIDs 单轮可接受的里程碑数（服务端每轮至多 10 个外加创世块）
const maxMilestoneIDs = 20

// KnownFunc 判断区块是否在本地
type KnownFunc func(id uint64) bool

// FindCommonMilestone 找到本地与对端都有的里程碑区块
//
// 第一轮以下载缓存的最后一个区块发起，之后以上一轮最后一个 ID 继续。
// 返回每轮中第一个本地已知的 ID；对端声明 last 仍未找到时返回 ErrNoCommonBlock。
// 对端没有结果时返回 ErrPeerUnavailable。
func FindCommonMilestone(ctx context.Context, p interfaces.Peer, known KnownFunc, maxRounds int) (uint64, error) {
	var lastMilestone uint64
	for round := 0; round < maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var (
			m  types.MilestoneBlockIDs
			ok bool
		)
		if lastMilestone == 0 {
			m, ok = p.GetMilestoneBlockIDs(ctx)
		} else {
			m, ok = p.GetMilestoneBlockIDsFrom(ctx, lastMilestone)
		}
		if !ok {
			return 0, ErrPeerUnavailable
		}
		if len(m.IDs) == 0 {
			return 0, ErrNoCommonBlock
		}
		if len(m.IDs) > maxMilestoneIDs {
			return 0, fmt.Errorf("%w: %d", ErrTooManyMilestones, len(m.IDs))
		}

		for _, id := range m.IDs {
			if known(id) {
				return id, nil
			}
			lastMilestone = id
		}
		if m.Last {
			return 0, ErrNoCommonBlock
		}
	}
	return 0, ErrRoundsExhausted
}

// FindCommonBlock 从公共里程碑出发找到最后一个公共区块
//
// 依次请求 getNextBlockIds，遇到第一个本地未知的 ID 时停止；
// 对端没有更多 ID 时返回当前的公共区块。
func FindCommonBlock(ctx context.Context, p interfaces.Peer, known KnownFunc, milestoneID uint64, maxRounds int) (uint64, error) {
	common := milestoneID
	for round := 0; round < maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		ids, ok := p.GetNextBlockIDs(ctx, common)
		if !ok {
			return 0, ErrPeerUnavailable
		}
		if len(ids) == 0 {
			return common, nil
		}
		for _, id := range ids {
			if !known(id) {
				return common, nil
			}
			common = id
		}
	}
	return 0, ErrRoundsExhausted
}
