package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/mocks"
	"github.com/dep2p/go-brs/tests/testutil"
)

// newChain 创建高度为 tip 的测试链
func newChain(t *testing.T, tip int32) *MemoryChain {
	t.Helper()
	blocks := testutil.NewChain(tip)
	c, err := NewMemoryChain(blocks[0])
	require.NoError(t, err)
	for _, b := range blocks[1:] {
		require.NoError(t, c.PushBlock(b))
	}
	return c
}

func TestNewMemoryChain(t *testing.T) {
	_, err := NewMemoryChain(nil)
	assert.ErrorIs(t, err, ErrGenesisRequired)

	c := newChain(t, 0)
	assert.Equal(t, int32(0), c.Height())
	assert.Equal(t, testutil.GenesisBlockID, c.LastBlock().ID)
}

func TestMemoryChain_Queries(t *testing.T) {
	c := newChain(t, 10)

	assert.Equal(t, int32(10), c.Height())
	assert.Equal(t, testutil.BlockID(10), c.LastBlock().ID)

	b, ok := c.GetBlock(testutil.BlockID(4))
	require.True(t, ok)
	assert.Equal(t, int32(4), b.Height)
	assert.False(t, c.HasBlock(1))

	id, ok := c.BlockIDAtHeight(7)
	require.True(t, ok)
	assert.Equal(t, testutil.BlockID(7), id)
	_, ok = c.BlockIDAtHeight(11)
	assert.False(t, ok)
	_, ok = c.BlockIDAtHeight(-1)
	assert.False(t, ok)

	ids, err := c.BlockIDsAfter(testutil.BlockID(5), 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1006, 1007, 1008}, ids)

	blocks, err := c.BlocksAfter(testutil.BlockID(8), 100)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, int32(10), blocks[1].Height)

	_, err = c.BlocksAfter(42, 1)
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestMemoryChain_CumulativeDifficulty(t *testing.T) {
	c := newChain(t, 2)

	per := new(big.Int).Div(new(big.Int).Lsh(big.NewInt(1), 64), new(big.Int).SetUint64(testutil.TestBaseTarget))
	want := new(big.Int).Mul(per, big.NewInt(3))
	assert.Equal(t, 0, want.Cmp(c.CumulativeDifficulty()))

	// 返回副本
	c.CumulativeDifficulty().SetInt64(0)
	assert.Equal(t, 0, want.Cmp(c.CumulativeDifficulty()))
}

func TestMemoryChain_ProcessPeerBlock(t *testing.T) {
	from := mocks.NewMockPeer("1.2.3.4")

	t.Run("Accepted", func(t *testing.T) {
		c := newChain(t, 3)
		var got []*types.Block
		var gotFrom interfaces.Peer
		c.AddBlockListener(func(b *types.Block, p interfaces.Peer) {
			got = append(got, b)
			gotFrom = p
		})

		next := testutil.NewBlock(4)
		next.Height = 0
		require.NoError(t, c.ProcessPeerBlock(next, from))
		assert.Equal(t, int32(4), c.Height())
		require.Len(t, got, 1)
		assert.Equal(t, int32(4), got[0].Height)
		assert.Same(t, from, gotFrom)
	})

	t.Run("OutOfOrder", func(t *testing.T) {
		c := newChain(t, 3)
		err := c.ProcessPeerBlock(testutil.NewBlock(5), from)
		assert.ErrorIs(t, err, types.ErrBlockOutOfOrder)
	})

	t.Run("Invalid", func(t *testing.T) {
		c := newChain(t, 3)

		noSig := testutil.NewBlock(4)
		noSig.BlockSignature = nil
		assert.ErrorIs(t, c.ProcessPeerBlock(noSig, from), types.ErrInvalidBlock)

		early := testutil.NewBlock(4)
		early.Timestamp = 1
		assert.ErrorIs(t, c.ProcessPeerBlock(early, from), types.ErrInvalidBlock)

		dupTx := testutil.NewBlock(4)
		dupTx.Transactions = []*types.Transaction{testutil.NewTransaction(5), testutil.NewTransaction(5)}
		assert.ErrorIs(t, c.ProcessPeerBlock(dupTx, from), types.ErrInvalidBlock)

		assert.ErrorIs(t, c.ProcessPeerBlock(nil, from), types.ErrInvalidBlock)
		assert.Equal(t, int32(3), c.Height())
	})
}

func TestMemoryChain_Unconfirmed(t *testing.T) {
	c := newChain(t, 1)

	bad := testutil.NewTransaction(9)
	bad.Signature = nil
	err := c.ProcessPeerTransactions([]*types.Transaction{
		testutil.NewTransaction(7), bad, testutil.NewTransaction(8), testutil.NewTransaction(7),
	}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidTransaction)

	txs := c.UnconfirmedTransactions()
	require.Len(t, txs, 2)
	assert.Equal(t, uint64(7), txs[0].ID)
	assert.Equal(t, uint64(8), txs[1].ID)

	// 上链后移出未确认池
	next := testutil.NewBlock(2)
	next.Transactions = []*types.Transaction{testutil.NewTransaction(7)}
	require.NoError(t, c.PushBlock(next))
	txs = c.UnconfirmedTransactions()
	require.Len(t, txs, 1)
	assert.Equal(t, uint64(8), txs[0].ID)

	// 回滚后放回
	popped, err := c.PopOffTo(testutil.BlockID(1))
	require.NoError(t, err)
	require.Len(t, popped, 1)
	assert.Equal(t, int32(1), c.Height())
	assert.Len(t, c.UnconfirmedTransactions(), 2)
	assert.False(t, c.HasBlock(testutil.BlockID(2)))
}

func TestMemoryChain_PopOffTo(t *testing.T) {
	c := newChain(t, 5)
	before := c.CumulativeDifficulty()

	popped, err := c.PopOffTo(testutil.BlockID(2))
	require.NoError(t, err)
	require.Len(t, popped, 3)
	assert.Equal(t, testutil.BlockID(5), popped[0].ID)
	assert.Equal(t, 1, before.Cmp(c.CumulativeDifficulty()))

	popped, err = c.PopOffTo(testutil.BlockID(2))
	require.NoError(t, err)
	assert.Empty(t, popped)

	_, err = c.PopOffTo(99)
	assert.ErrorIs(t, err, ErrUnknownBlock)
}
