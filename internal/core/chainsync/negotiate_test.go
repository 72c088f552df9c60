package chainsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/mocks"
)

// knownSet 本地已知的区块 ID
func knownSet(ids ...uint64) KnownFunc {
	set := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(id uint64) bool { return set[id] }
}

func TestFindCommonMilestone(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstRound", func(t *testing.T) {
		p := mocks.NewMockPeer("1.2.3.4")
		p.GetMilestoneBlockIDsFunc = func(context.Context) (types.MilestoneBlockIDs, bool) {
			return types.MilestoneBlockIDs{IDs: []uint64{30, 20, 10}}, true
		}
		id, err := FindCommonMilestone(ctx, p, knownSet(20, 10), 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(20), id)
	})

	t.Run("ContinuesFromLastID", func(t *testing.T) {
		var from []uint64
		p := mocks.NewMockPeer("1.2.3.4")
		p.GetMilestoneBlockIDsFunc = func(context.Context) (types.MilestoneBlockIDs, bool) {
			return types.MilestoneBlockIDs{IDs: []uint64{90, 80}}, true
		}
		p.GetMilestoneBlockIDsFromFunc = func(_ context.Context, last uint64) (types.MilestoneBlockIDs, bool) {
			from = append(from, last)
			if last == 80 {
				return types.MilestoneBlockIDs{IDs: []uint64{70, 60}}, true
			}
			return types.MilestoneBlockIDs{IDs: []uint64{50, 1}, Last: true}, true
		}

		id, err := FindCommonMilestone(ctx, p, knownSet(1), 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id)
		assert.Equal(t, []uint64{80, 60}, from)
	})

	t.Run("LastWithoutCommon", func(t *testing.T) {
		p := mocks.NewMockPeer("1.2.3.4")
		p.GetMilestoneBlockIDsFunc = func(context.Context) (types.MilestoneBlockIDs, bool) {
			return types.MilestoneBlockIDs{IDs: []uint64{3, 2}, Last: true}, true
		}
		_, err := FindCommonMilestone(ctx, p, knownSet(), 5)
		assert.ErrorIs(t, err, ErrNoCommonBlock)
	})

	t.Run("Empty", func(t *testing.T) {
		p := mocks.NewMockPeer("1.2.3.4")
		p.GetMilestoneBlockIDsFunc = func(context.Context) (types.MilestoneBlockIDs, bool) {
			return types.MilestoneBlockIDs{}, true
		}
		_, err := FindCommonMilestone(ctx, p, knownSet(), 5)
		assert.ErrorIs(t, err, ErrNoCommonBlock)
	})

	t.Run("TooMany", func(t *testing.T) {
		p := mocks.NewMockPeer("1.2.3.4")
		p.GetMilestoneBlockIDsFunc = func(context.Context) (types.MilestoneBlockIDs, bool) {
			return types.MilestoneBlockIDs{IDs: make([]uint64, maxMilestoneIDs+1)}, true
		}
		_, err := FindCommonMilestone(ctx, p, knownSet(), 5)
		assert.ErrorIs(t, err, ErrTooManyMilestones)
	})

	t.Run("RoundsExhausted", func(t *testing.T) {
		p := mocks.NewMockPeer("1.2.3.4")
		p.GetMilestoneBlockIDsFunc = func(context.Context) (types.MilestoneBlockIDs, bool) {
			return types.MilestoneBlockIDs{IDs: []uint64{100}}, true
		}
		p.GetMilestoneBlockIDsFromFunc = func(_ context.Context, last uint64) (types.MilestoneBlockIDs, bool) {
			return types.MilestoneBlockIDs{IDs: []uint64{last - 1}}, true
		}
		_, err := FindCommonMilestone(ctx, p, knownSet(), 3)
		assert.ErrorIs(t, err, ErrRoundsExhausted)
	})

	t.Run("Absent", func(t *testing.T) {
		p := mocks.NewMockPeer("1.2.3.4")
		_, err := FindCommonMilestone(ctx, p, knownSet(), 3)
		assert.ErrorIs(t, err, ErrPeerUnavailable)
	})
}

func TestFindCommonBlock(t *testing.T) {
	ctx := context.Background()

	t.Run("StopsAtFirstUnknown", func(t *testing.T) {
		p := mocks.NewMockPeer("1.2.3.4")
		p.GetNextBlockIDsFunc = func(_ context.Context, last uint64) ([]uint64, bool) {
			return []uint64{last + 1, last + 2, 999}, true
		}
		id, err := FindCommonBlock(ctx, p, knownSet(11, 12), 10, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(12), id)
	})

	t.Run("AcrossRounds", func(t *testing.T) {
		var calls []uint64
		p := mocks.NewMockPeer("1.2.3.4")
		p.GetNextBlockIDsFunc = func(_ context.Context, last uint64) ([]uint64, bool) {
			calls = append(calls, last)
			if last >= 14 {
				return nil, true
			}
			return []uint64{last + 1, last + 2}, true
		}
		id, err := FindCommonBlock(ctx, p, knownSet(11, 12, 13, 14), 10, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(14), id)
		assert.Equal(t, []uint64{10, 12, 14}, calls)
	})

	t.Run("Absent", func(t *testing.T) {
		p := mocks.NewMockPeer("1.2.3.4")
		_, err := FindCommonBlock(ctx, p, knownSet(), 10, 5)
		assert.ErrorIs(t, err, ErrPeerUnavailable)
	})
}
