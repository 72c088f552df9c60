package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/internal/core/peer"
	"github.com/dep2p/go-brs/internal/core/protocol/handler"
	"github.com/dep2p/go-brs/internal/core/protocol/rpcwire"
	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/nodetest"
	"github.com/dep2p/go-brs/tests/testutil"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	cfg.RateLimit = 0
	return cfg
}

// startServer 启动服务端，返回 grpc:// 地址
func startServer(t *testing.T, cfg Config) (*Server, *nodetest.Backend, string) {
	t.Helper()
	b := nodetest.NewBackend(t, 30)
	s, err := New(cfg, b.Handler)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	addr, err := s.Addr()
	require.NoError(t, err)
	return s, b, "grpc://" + addr.String()
}

// rawClient 不经过 Peer 的底层客户端
func rawClient(t *testing.T, target string) *rpcwire.PeerServiceClient {
	t.Helper()
	addr := types.MustParsePeerAddress(target)
	conn, err := grpc.NewClient(addr.HostPort(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcwire.CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return rpcwire.NewPeerServiceClient(conn)
}

func TestNew(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	b := nodetest.NewBackend(t, 1)
	cfg := DefaultConfig()
	cfg.Listen = "nope"
	_, err = New(cfg, b.Handler)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{handler.ErrBlacklisted, codes.PermissionDenied},
		{fmt.Errorf("x: %w", handler.ErrUnknownBlock), codes.NotFound},
		{handler.ErrUnknownMilestone, codes.NotFound},
		{handler.ErrMissingParameter, codes.InvalidArgument},
		{handler.ErrOldProtocol, codes.FailedPrecondition},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, status.Code(toStatus(tc.err)), "%v", tc.err)
	}
	assert.NoError(t, toStatus(nil))
}

// 真实 GRPCPeer 客户端对接服务端
func TestServer_WithPeerClient(t *testing.T) {
	_, b, target := startServer(t, testConfig())

	env, _, _ := nodetest.ClientEnv(testutil.NewBlock(25), testutil.NewBlock(10))
	client, err := peer.NewGRPCPeer(env, target, types.PeerAddress{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.True(t, client.Connect(ctx))
	assert.Equal(t, nodetest.Platform, client.Platform())

	inbound, ok := b.Registry.GetPeer("grpc://127.0.0.1")
	require.True(t, ok)
	assert.Equal(t, types.ProtocolGRPC, inbound.Protocol())
	assert.Equal(t, "test", inbound.Platform())

	t.Run("CumulativeDifficulty", func(t *testing.T) {
		cd, ok := client.GetCumulativeDifficulty(ctx)
		require.True(t, ok)
		assert.Equal(t, int32(30), cd.Height)
		assert.Equal(t, 0, b.Chain.CumulativeDifficulty().Cmp(cd.Difficulty))
	})

	t.Run("Milestones", func(t *testing.T) {
		m, ok := client.GetMilestoneBlockIDs(ctx)
		require.True(t, ok)
		assert.Equal(t, []uint64{testutil.BlockID(10)}, m.IDs)
		assert.False(t, m.Last)
	})

	t.Run("NextBlocks", func(t *testing.T) {
		blocks, ok := client.GetNextBlocks(ctx, testutil.BlockID(25))
		require.True(t, ok)
		require.Len(t, blocks, 5)
		assert.Equal(t, int32(26), blocks[0].Height)

		ids, ok := client.GetNextBlockIDs(ctx, testutil.BlockID(25))
		require.True(t, ok)
		assert.Equal(t, testutil.BlockID(26), ids[0])
	})

	t.Run("Push", func(t *testing.T) {
		assert.True(t, client.SendBlock(ctx, testutil.NewBlock(31)))
		assert.Equal(t, int32(31), b.Chain.Height())

		// 前驱不是链尖：拒绝但不拉黑
		assert.False(t, client.SendBlock(ctx, testutil.NewBlock(40)))
		assert.False(t, inbound.IsBlacklisted())

		client.SendUnconfirmedTransactions(ctx, []*types.Transaction{testutil.NewTransaction(5)})
		txs, ok := client.GetUnconfirmedTransactions(ctx)
		require.True(t, ok)
		require.Len(t, txs, 1)
	})

	t.Run("Peers", func(t *testing.T) {
		client.AddPeers(ctx, []types.PeerAddress{types.MustParsePeerAddress("grpc://1.2.3.4")})
		_, ok := b.Registry.GetPeer("grpc://1.2.3.4")
		assert.True(t, ok)

		_, ok = client.GetPeers(ctx)
		assert.True(t, ok)
	})

	assert.Positive(t, inbound.DownloadedVolume())
	assert.Positive(t, inbound.UploadedVolume())
}

func TestServer_StatusCodes(t *testing.T) {
	_, b, target := startServer(t, testConfig())
	c := rawClient(t, target)
	ctx := context.Background()

	_, err := c.GetNextBlocks(ctx, &rpcwire.GetBlocksAfterRequest{BlockID: 77})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.GetNextBlockIds(ctx, &rpcwire.GetBlocksAfterRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.GetMilestoneBlockIds(ctx, &rpcwire.GetMilestoneBlockIdsRequest{LastMilestoneBlockID: 77})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.AddBlock(ctx, &rpcwire.ProcessBlockRequest{PreviousBlockID: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// 旧协议：拉黑调用方，之后所有调用都被拒绝
	_, err = c.GetMilestoneBlockIds(ctx, &rpcwire.GetMilestoneBlockIdsRequest{})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	p, ok := b.Registry.GetPeer("grpc://127.0.0.1")
	require.True(t, ok)
	assert.True(t, p.IsBlacklisted())

	_, err = c.GetPeers(ctx)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestServer_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	_, _, target := startServer(t, cfg)
	c := rawClient(t, target)
	ctx := context.Background()

	_, err := c.GetCumulativeDifficulty(ctx)
	require.NoError(t, err)
	_, err = c.GetCumulativeDifficulty(ctx)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestServer_StartStop(t *testing.T) {
	b := nodetest.NewBackend(t, 1)
	s, err := New(testConfig(), b.Handler)
	require.NoError(t, err)

	_, err = s.Addr()
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestModule(t *testing.T) {
	b := nodetest.NewBackend(t, 3)
	ucfg := config.NewConfig()
	ucfg.Server.GRPCListen = "127.0.0.1:0"

	var s *Server
	app := fxtest.New(t,
		fx.Supply(ucfg, b.Handler),
		Module(),
		fx.Populate(&s),
	)
	app.RequireStart()
	_, err := s.Addr()
	assert.NoError(t, err)
	app.RequireStop()
}
