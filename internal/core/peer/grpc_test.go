package peer

import (
	"context"
	"math/big"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dep2p/go-brs/internal/core/protocol/rpcwire"
	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/testutil"
)

// fakePeerService 模拟对端 gRPC 服务
type fakePeerService struct {
	platform string
	calls    atomic.Int32
	chain    []*types.Block
	accept   atomic.Bool
	failCD   atomic.Bool
	lastReq  atomic.Value // *rpcwire.GetMilestoneBlockIdsRequest
	gotPeers atomic.Value // []string
}

var _ rpcwire.PeerServiceServer = (*fakePeerService)(nil)

func (s *fakePeerService) ExchangeInfo(_ context.Context, in *rpcwire.PeerInfo) (*rpcwire.PeerInfo, error) {
	s.calls.Add(1)
	return &rpcwire.PeerInfo{Application: "BRS", Version: "v3.0.0", Platform: s.platform, ShareAddress: true}, nil
}

func (s *fakePeerService) GetCumulativeDifficulty(context.Context, *rpcwire.Empty) (*rpcwire.CumulativeDifficulty, error) {
	s.calls.Add(1)
	if s.failCD.Load() {
		return nil, status.Error(codes.Internal, "boom")
	}
	return rpcwire.CumulativeDifficultyFrom(types.CumulativeDifficulty{Difficulty: big.NewInt(987654321), Height: 20}), nil
}

func (s *fakePeerService) GetUnconfirmedTransactions(context.Context, *rpcwire.Empty) (*rpcwire.Transactions, error) {
	s.calls.Add(1)
	return &rpcwire.Transactions{Transactions: []*types.Transaction{testutil.NewTransaction(3)}}, nil
}

func (s *fakePeerService) GetMilestoneBlockIds(_ context.Context, in *rpcwire.GetMilestoneBlockIdsRequest) (*rpcwire.MilestoneBlockIds, error) {
	s.calls.Add(1)
	s.lastReq.Store(in)
	return &rpcwire.MilestoneBlockIds{MilestoneBlockIDs: []uint64{1010, 0, 1000}, Last: true}, nil
}

func (s *fakePeerService) AddUnconfirmedTransactions(context.Context, *rpcwire.Transactions) (*rpcwire.Empty, error) {
	s.calls.Add(1)
	return &rpcwire.Empty{}, nil
}

func (s *fakePeerService) GetNextBlocks(_ context.Context, in *rpcwire.GetBlocksAfterRequest) (*rpcwire.Blocks, error) {
	s.calls.Add(1)
	start := int(in.BlockID-testutil.GenesisBlockID) + 1
	return &rpcwire.Blocks{Blocks: s.chain[start:]}, nil
}

func (s *fakePeerService) GetNextBlockIds(_ context.Context, in *rpcwire.GetBlocksAfterRequest) (*rpcwire.BlockIds, error) {
	s.calls.Add(1)
	start := int(in.BlockID-testutil.GenesisBlockID) + 1
	ids := make([]uint64, 0, len(s.chain))
	for _, b := range s.chain[start:] {
		ids = append(ids, b.ID)
	}
	return &rpcwire.BlockIds{BlockIDs: ids}, nil
}

func (s *fakePeerService) AddPeers(_ context.Context, in *rpcwire.Peers) (*rpcwire.Empty, error) {
	s.calls.Add(1)
	s.gotPeers.Store(in.Addresses)
	return &rpcwire.Empty{}, nil
}

func (s *fakePeerService) GetPeers(context.Context, *rpcwire.Empty) (*rpcwire.Peers, error) {
	s.calls.Add(1)
	return &rpcwire.Peers{Addresses: []string{"grpc://1.2.3.4:8121", "", "5.6.7.8"}}, nil
}

func (s *fakePeerService) AddBlock(_ context.Context, in *rpcwire.ProcessBlockRequest) (*rpcwire.ProcessBlockResponse, error) {
	s.calls.Add(1)
	return &rpcwire.ProcessBlockResponse{Accepted: s.accept.Load() && in.Block != nil}, nil
}

// startFakeGRPC 在回环地址上启动服务，返回 grpc:// 地址
func startFakeGRPC(t *testing.T, svc *fakePeerService) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	rpcwire.RegisterPeerServiceServer(srv, svc)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return "grpc://" + lis.Addr().String()
}

func newGRPCTestPeer(t *testing.T, te *testEnv, remote string) *GRPCPeer {
	t.Helper()
	p, err := NewGRPCPeer(te.env, remote, types.PeerAddress{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestGRPCPeer_RoundTrip(t *testing.T) {
	te := newTestEnv(t)
	te.env.Config = DefaultConfig()
	te.env.Config.MaxReceivedBlocks = 4
	te.cache.Add(testutil.NewBlock(10))

	svc := &fakePeerService{platform: "grpc-fake", chain: testutil.NewChain(20)}
	svc.accept.Store(true)
	p := newGRPCTestPeer(t, te, startFakeGRPC(t, svc))

	require.True(t, p.Connect(context.Background()))
	assert.Equal(t, types.PeerStateConnected, p.State())
	assert.Equal(t, "grpc-fake", p.Platform())

	cd, ok := p.GetCumulativeDifficulty(context.Background())
	require.True(t, ok)
	assert.Equal(t, int64(987654321), cd.Difficulty.Int64())
	assert.Equal(t, int32(20), cd.Height)

	txs, ok := p.GetUnconfirmedTransactions(context.Background())
	require.True(t, ok)
	require.Len(t, txs, 1)
	assert.Equal(t, testutil.NewTransaction(3), txs[0])

	t.Run("Milestones", func(t *testing.T) {
		m, ok := p.GetMilestoneBlockIDs(context.Background())
		require.True(t, ok)
		assert.Equal(t, []uint64{1010, 1000}, m.IDs)
		assert.True(t, m.Last)
		req := svc.lastReq.Load().(*rpcwire.GetMilestoneBlockIdsRequest)
		assert.Equal(t, testutil.BlockID(10), req.LastBlockID)
		assert.Zero(t, req.LastMilestoneBlockID)

		_, ok = p.GetMilestoneBlockIDsFrom(context.Background(), 1005)
		require.True(t, ok)
		req = svc.lastReq.Load().(*rpcwire.GetMilestoneBlockIdsRequest)
		assert.Equal(t, uint64(1005), req.LastMilestoneBlockID)
		assert.Zero(t, req.LastBlockID)
	})

	t.Run("NextBlocksTruncatedWithHeights", func(t *testing.T) {
		blocks, ok := p.GetNextBlocks(context.Background(), testutil.BlockID(10))
		require.True(t, ok)
		require.Len(t, blocks, 4)
		for i, b := range blocks {
			assert.Equal(t, testutil.BlockID(int32(11+i)), b.ID)
			assert.Equal(t, int32(11+i), b.Height)
		}

		ids, ok := p.GetNextBlockIDs(context.Background(), testutil.BlockID(10))
		require.True(t, ok)
		assert.Equal(t, []uint64{1011, 1012, 1013, 1014}, ids)
	})

	t.Run("Push", func(t *testing.T) {
		assert.True(t, p.SendBlock(context.Background(), testutil.NewBlock(21)))
		svc.accept.Store(false)
		assert.False(t, p.SendBlock(context.Background(), testutil.NewBlock(21)))

		p.SendUnconfirmedTransactions(context.Background(), []*types.Transaction{testutil.NewTransaction(4)})
		p.AddPeers(context.Background(), []types.PeerAddress{types.MustParsePeerAddress("grpc://9.9.9.9")})
		assert.Equal(t, []string{"grpc://9.9.9.9:8121"}, svc.gotPeers.Load())
	})

	t.Run("GetPeers", func(t *testing.T) {
		addrs, ok := p.GetPeers(context.Background())
		require.True(t, ok)
		require.Len(t, addrs, 2)
		assert.Equal(t, "grpc://1.2.3.4:8121", addrs[0].String())
		assert.Equal(t, "http://5.6.7.8:8123", addrs[1].String())
	})

	assert.Positive(t, p.UploadedVolume())
	assert.Positive(t, p.DownloadedVolume())
}

func TestGRPCPeer_FailureKeepsState(t *testing.T) {
	te := newTestEnv(t)
	svc := &fakePeerService{}
	p := newGRPCTestPeer(t, te, startFakeGRPC(t, svc))
	require.True(t, p.Connect(context.Background()))

	svc.failCD.Store(true)
	_, ok := p.GetCumulativeDifficulty(context.Background())
	assert.False(t, ok)
	assert.Equal(t, types.PeerStateConnected, p.State())
}

func TestGRPCPeer_AddressChangeResetsChannel(t *testing.T) {
	te := newTestEnv(t)
	first := &fakePeerService{platform: "first"}
	second := &fakePeerService{platform: "second"}
	p := newGRPCTestPeer(t, te, startFakeGRPC(t, first))

	require.True(t, p.Connect(context.Background()))
	assert.Equal(t, "first", p.Platform())

	addr, err := types.ParsePeerAddress(startFakeGRPC(t, second), types.ProtocolGRPC)
	require.NoError(t, err)
	p.UpdateAddress(addr)
	assert.Equal(t, types.PeerStateNotConnected, p.State())

	require.True(t, p.Connect(context.Background()))
	assert.Equal(t, "second", p.Platform())
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, int32(1), second.calls.Load())
}

func TestGRPCPeer_Unreachable(t *testing.T) {
	te := newTestEnv(t)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	p := newGRPCTestPeer(t, te, "grpc://"+addr)
	assert.False(t, p.Connect(context.Background()))
	assert.Equal(t, types.PeerStateNotConnected, p.State())
}
