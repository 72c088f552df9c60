package downloadcache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-brs/internal/core/chain"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/mocks"
	"github.com/dep2p/go-brs/tests/testutil"
)

func newTestCache(t *testing.T, tip int32, capacity int) (*Cache, *chain.MemoryChain) {
	t.Helper()
	blocks := testutil.NewChain(tip)
	c, err := chain.NewMemoryChain(blocks[0])
	require.NoError(t, err)
	for _, b := range blocks[1:] {
		require.NoError(t, c.PushBlock(b))
	}
	cache, err := New(c, capacity)
	require.NoError(t, err)
	return cache, c
}

func TestCache_FallsBackToChain(t *testing.T) {
	cache, _ := newTestCache(t, 5, 0)

	assert.Equal(t, testutil.BlockID(5), cache.LastBlockID())
	assert.Equal(t, int32(5), cache.Height())
	b, ok := cache.GetBlock(testutil.BlockID(3))
	require.True(t, ok)
	assert.Equal(t, int32(3), b.Height)
	assert.True(t, cache.HasBlock(testutil.BlockID(0)))
	assert.Zero(t, cache.Len())
}

func TestCache_AddBlock(t *testing.T) {
	cache, _ := newTestCache(t, 5, 2)

	b6 := testutil.NewBlock(6)
	b6.Height = 0
	require.NoError(t, cache.AddBlock(b6))
	assert.Equal(t, int32(6), b6.Height)
	assert.Equal(t, testutil.BlockID(6), cache.LastBlockID())
	assert.True(t, cache.HasBlock(testutil.BlockID(6)))

	assert.ErrorIs(t, cache.AddBlock(testutil.NewBlock(8)), ErrNotContinuous)

	require.NoError(t, cache.AddBlock(testutil.NewBlock(7)))
	assert.ErrorIs(t, cache.AddBlock(testutil.NewBlock(8)), ErrFull)
	assert.Equal(t, int32(7), cache.Height())
}

func TestCache_Apply(t *testing.T) {
	from := mocks.NewMockPeer("1.2.3.4")

	t.Run("AllApplied", func(t *testing.T) {
		cache, c := newTestCache(t, 2, 0)
		for h := int32(3); h <= 5; h++ {
			require.NoError(t, cache.AddBlock(testutil.NewBlock(h)))
		}

		n, err := cache.Apply(c, from)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, int32(5), c.Height())
		assert.Zero(t, cache.Len())
		assert.Equal(t, testutil.BlockID(5), cache.LastBlockID())
	})

	t.Run("StopsAtFirstFailure", func(t *testing.T) {
		cache, _ := newTestCache(t, 2, 0)
		for h := int32(3); h <= 5; h++ {
			require.NoError(t, cache.AddBlock(testutil.NewBlock(h)))
		}

		bad := errors.New("rejected")
		proc := &mocks.MockBlockProcessor{
			ProcessPeerBlockFunc: func(b *types.Block, _ interfaces.Peer) error {
				if b.Height == 4 {
					return bad
				}
				return nil
			},
		}
		n, err := cache.Apply(proc, from)
		assert.ErrorIs(t, err, bad)
		assert.Equal(t, 1, n)
		assert.Zero(t, cache.Len())
		assert.Len(t, proc.Calls(), 2)
	})
}
