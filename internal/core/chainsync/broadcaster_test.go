package chainsync

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/mocks"
	"github.com/dep2p/go-brs/tests/testutil"
)

// peerList 固定的节点集合
type peerList []interfaces.Peer

func (l peerList) AllPeers() []interfaces.Peer { return append([]interfaces.Peer(nil), l...) }

func TestNewBroadcaster(t *testing.T) {
	_, err := NewBroadcaster(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewBroadcaster(peerList{}, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBroadcaster(t *testing.T) {
	var blocks, txs atomic.Int32
	newPeer := func(addr string, accept bool) *mocks.MockPeer {
		p := mocks.NewMockPeer(addr)
		p.SendBlockFunc = func(context.Context, *types.Block) bool {
			blocks.Add(1)
			return accept
		}
		p.SendUnconfirmedTransactionsFunc = func(context.Context, []*types.Transaction) {
			txs.Add(1)
		}
		return p
	}

	accepting := newPeer("1.1.1.1", true)
	rejecting := newPeer("2.2.2.2", false)
	idle := newPeer("3.3.3.3", true)
	idle.StateValue = types.PeerStateNotConnected
	rebroadcast := newPeer("4.4.4.4", true)
	rebroadcast.StateValue = types.PeerStateNotConnected
	rebroadcast.Rebroadcast = true
	banned := newPeer("5.5.5.5", true)
	banned.Blacklisted = true
	banned.Rebroadcast = true

	b, err := NewBroadcaster(peerList{accepting, rejecting, idle, rebroadcast, banned}, 2)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, 1, b.SendBlock(ctx, testutil.NewBlock(5)))
	assert.Equal(t, int32(2), blocks.Load())

	assert.Equal(t, 3, b.SendTransactions(ctx, []*types.Transaction{testutil.NewTransaction(1)}))
	assert.Equal(t, int32(3), txs.Load())

	assert.Zero(t, b.SendTransactions(ctx, nil))
	assert.Equal(t, int32(3), txs.Load())
}
