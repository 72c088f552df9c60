package handler

import (
	"fmt"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// 里程碑回溯参数
const (
	// MilestoneLimit 每轮最多返回的 ID 数（不含追加的创世块）
	MilestoneLimit = 10

	// InitialMilestoneJump 从链尖开始回溯时的步长
	InitialMilestoneJump = 10

	// MaxMilestoneJump 回溯步长上限
	MaxMilestoneJump = 1440
)

// GetMilestoneBlockIDs 里程碑回溯
//
//   - lastBlockID 在本地链上：返回 [lastBlockID]，当它就是链尖时 last = true
//   - 给出 lastMilestoneBlockID：从其高度减去步长开始回溯，
//     步长 = clamp(链高 - 里程碑高度, 1, 1440)
//   - 只给出未知的 lastBlockID：从链尖开始，步长 10
//
// 每轮至多 10 个 ID；回溯越过高度 0 时追加创世块并置 last = true，
// 因此以上一轮最后一个 ID 继续调用必然在有限轮内结束。
// 两个参数都缺失属于旧协议，调用方被拉黑。
func (h *Handler) GetMilestoneBlockIDs(from interfaces.Peer, lastBlockID, lastMilestoneBlockID uint64) (types.MilestoneBlockIDs, error) {
	if lastBlockID != 0 {
		tip := h.chain.LastBlock().ID
		if lastBlockID == tip || h.chain.HasBlock(lastBlockID) {
			return types.MilestoneBlockIDs{IDs: []uint64{lastBlockID}, Last: lastBlockID == tip}, nil
		}
	}

	myHeight := h.chain.Height()
	var height, jump int32
	switch {
	case lastMilestoneBlockID != 0:
		b, ok := h.chain.GetBlock(lastMilestoneBlockID)
		if !ok {
			return types.MilestoneBlockIDs{}, fmt.Errorf("%w: %s", ErrUnknownMilestone, types.FormatID(lastMilestoneBlockID))
		}
		jump = min(max(myHeight-b.Height, 1), MaxMilestoneJump)
		height = b.Height - jump
	case lastBlockID != 0:
		height = myHeight
		jump = InitialMilestoneJump
	default:
		if from != nil {
			from.BlacklistWithDescription("old getMilestoneBlockIds protocol")
		}
		return types.MilestoneBlockIDs{}, ErrOldProtocol
	}

	ids := make([]uint64, 0, MilestoneLimit+1)
	for height > 0 && len(ids) < MilestoneLimit {
		id, ok := h.chain.BlockIDAtHeight(height)
		if !ok {
			break
		}
		ids = append(ids, id)
		height -= jump
	}

	last := false
	if height <= 0 {
		if genesis, ok := h.chain.BlockIDAtHeight(0); ok {
			ids = append(ids, genesis)
		}
		last = true
	}
	return types.MilestoneBlockIDs{IDs: ids, Last: last}, nil
}
