package brs

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/testutil"
)

// testOptions 内存存储、回环监听、关闭后台同步
func testOptions(extra ...Option) []Option {
	opts := []Option{
		WithGenesis(testutil.NewBlock(0)),
		WithInMemoryStorage(),
		WithHTTPListen("127.0.0.1:0"),
		WithGRPCListen("127.0.0.1:0"),
		WithSyncInterval(0),
	}
	return append(opts, extra...)
}

func startNode(t *testing.T, opts ...Option) *Node {
	t.Helper()
	n, err := Start(testutil.Context(t, 10*time.Second), testOptions(opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestNodeState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "unknown", NodeState(42).String())
	assert.Equal(t, "not_started", SubsystemNotStarted.String())
}

func TestOptions(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		_, err := New(WithConfig(nil))
		assert.ErrorIs(t, err, ErrInvalidOption)

		_, err = New(WithGenesis(&types.Block{}))
		assert.ErrorIs(t, err, ErrInvalidOption)

		_, err = New(WithClock(nil))
		assert.ErrorIs(t, err, ErrInvalidOption)

		_, err = New(WithSyncInterval(-time.Second))
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		_, err := New(WithInMemoryStorage(), WithHTTPListen("no-port"))
		assert.Error(t, err)
	})

	t.Run("OverridesApplyAfterConfig", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Server.HTTPListen = ":9999"

		o, err := newOptions(WithHTTPListen("127.0.0.1:0"), WithConfig(cfg), WithInMemoryStorage())
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:0", o.config.Server.HTTPListen)
		assert.True(t, o.config.Storage.InMemory)
		assert.Equal(t, GenesisBlockID, o.genesis.ID)
	})
}

func TestNode_NeverStarted(t *testing.T) {
	n, err := New(testOptions(WithoutServers())...)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, n.State())

	subs := n.Subsystems()
	assert.Equal(t, SubsystemNotStarted, subs["storage"])
	assert.Equal(t, SubsystemNotStarted, subs["registry"])
	assert.Equal(t, SubsystemDisabled, subs["httpserver"])
	assert.Equal(t, SubsystemDisabled, subs["chainsync"])

	_, err = n.SyncOnce(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)

	// 从未启动的节点停止是空操作
	require.NoError(t, n.Close())
	assert.Equal(t, StateStopped, n.State())
	assert.Equal(t, SubsystemNotStarted, n.Subsystems()["storage"])

	assert.ErrorIs(t, n.Start(context.Background()), ErrNodeClosed)
	_, err = n.PushBlock(context.Background(), testutil.NewBlock(1))
	assert.ErrorIs(t, err, ErrNodeClosed)
}

func TestNode_StartStop(t *testing.T) {
	n, err := New(testOptions()...)
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	assert.True(t, n.IsRunning())
	assert.ErrorIs(t, n.Start(context.Background()), ErrAlreadyStarted)

	for _, name := range []string{"storage", "registry", "httpserver", "grpcserver"} {
		assert.Equal(t, SubsystemRunning, n.Subsystems()[name], name)
	}
	assert.Equal(t, SubsystemDisabled, n.Subsystems()["chainsync"])

	httpAddr, err := n.HTTPAddr()
	require.NoError(t, err)
	assert.NotContains(t, httpAddr.String(), ":0")
	_, err = n.GRPCAddr()
	require.NoError(t, err)
	assert.NotNil(t, n.Gatherer())

	require.NoError(t, n.Stop(context.Background()))
	assert.Equal(t, StateStopped, n.State())
	for _, name := range []string{"storage", "registry", "httpserver", "grpcserver"} {
		assert.Equal(t, SubsystemStopped, n.Subsystems()[name], name)
	}
	assert.NoError(t, n.Stop(context.Background()))
}

func TestNode_ServersDisabled(t *testing.T) {
	n := startNode(t, WithoutServers())

	_, err := n.HTTPAddr()
	assert.ErrorIs(t, err, ErrSubsystemDisabled)
	_, err = n.GRPCAddr()
	assert.ErrorIs(t, err, ErrSubsystemDisabled)
}

func TestNode_MetricsDisabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enabled = false
	n := startNode(t, WithConfig(cfg))
	assert.Nil(t, n.Gatherer())
}

func TestNode_SyncAndPropagate(t *testing.T) {
	source := startNode(t)
	for _, b := range testutil.NewChain(20)[1:] {
		_, err := source.PushBlock(context.Background(), b)
		require.NoError(t, err)
	}
	require.Equal(t, int32(20), source.Height())

	grpcAddr, err := source.GRPCAddr()
	require.NoError(t, err)

	follower := startNode(t)
	p, err := follower.AddPeer("grpc://" + grpcAddr.String())
	require.NoError(t, err)
	require.True(t, p.Connect(testutil.Context(t, 5*time.Second)))
	require.Len(t, follower.ConnectedPeers(), 1)

	t.Run("Sync", func(t *testing.T) {
		res, err := follower.SyncOnce(testutil.Context(t, 10*time.Second))
		require.NoError(t, err)
		assert.Equal(t, p.Address().String(), res.Peer)
		assert.Equal(t, testutil.GenesisBlockID, res.CommonBlockID)
		assert.Equal(t, 20, res.Applied)
		assert.Zero(t, res.PoppedOff)
		assert.Equal(t, int32(20), follower.Height())
		assert.Zero(t, follower.CumulativeDifficulty().Cmp(source.CumulativeDifficulty()))

		// 已同步，再次同步无事可做
		res, err = follower.SyncOnce(testutil.Context(t, 10*time.Second))
		require.NoError(t, err)
		assert.Zero(t, res.Applied)
	})

	t.Run("PushBlock", func(t *testing.T) {
		accepted, err := follower.PushBlock(context.Background(), testutil.NewBlock(21))
		require.NoError(t, err)
		assert.Equal(t, 1, accepted)
		assert.Equal(t, int32(21), source.Height())

		_, err = follower.PushBlock(context.Background(), testutil.NewBlock(30))
		assert.ErrorIs(t, err, types.ErrBlockOutOfOrder)
	})

	t.Run("Transactions", func(t *testing.T) {
		bad := testutil.NewTransaction(8)
		bad.Signature = nil

		targets, err := follower.BroadcastTransactions(context.Background(),
			[]*types.Transaction{testutil.NewTransaction(9), bad})
		assert.ErrorIs(t, err, types.ErrInvalidTransaction)
		assert.Equal(t, 1, targets)

		testutil.Eventually(t, 5*time.Second, func() bool {
			return slices.ContainsFunc(source.chain.UnconfirmedTransactions(),
				func(tx *types.Transaction) bool { return tx.ID == 9 })
		}, "transaction not propagated")
	})
}
