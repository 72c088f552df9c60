package peer

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/stats"

	"github.com/dep2p/go-brs/internal/core/protocol/rpcwire"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// ============================================================================
//                              GRPCPeer - 类型化 RPC 传输
// ============================================================================

// GRPCPeer 通过 gRPC 通信的节点
//
// 通道在首次调用时建立并缓存；公告地址变化或 Close 时关闭，下次调用重新建立。
type GRPCPeer struct {
	*core

	connMu sync.Mutex
	conn   *grpc.ClientConn
	client *rpcwire.PeerServiceClient
}

var _ interfaces.Peer = (*GRPCPeer)(nil)

// NewGRPCPeer 创建 gRPC 节点
//
// announced 为零值表示没有公告地址；非零时必须是 gRPC 地址。
func NewGRPCPeer(env Env, remoteAddress string, announced types.PeerAddress) (*GRPCPeer, error) {
	env, err := env.withDefaults()
	if err != nil {
		return nil, err
	}
	c, err := newCore(env, types.ProtocolGRPC, remoteAddress, announced)
	if err != nil {
		return nil, err
	}

	p := &GRPCPeer{core: c}
	c.self = p
	c.onAddressChange = p.resetConn
	return p, nil
}

// connection 返回缓存的客户端，必要时建立通道
func (p *GRPCPeer) connection() (*rpcwire.PeerServiceClient, error) {
	p.connMu.Lock()
	defer p.connMu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	conn, err := grpc.NewClient(p.Address().HostPort(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(volumeStats{c: p.core}),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcwire.CodecName)),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: p.env.Registry.ConnectTimeout(),
		}),
	)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	p.client = rpcwire.NewPeerServiceClient(conn)
	return p.client, nil
}

// resetConn 关闭缓存的通道
func (p *GRPCPeer) resetConn() {
	p.connMu.Lock()
	conn := p.conn
	p.conn, p.client = nil, nil
	p.connMu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Debug("关闭 gRPC 通道", "peer", p.remoteAddress, "err", err)
		}
	}
}

// Close 关闭通道
func (p *GRPCPeer) Close() error {
	p.resetConn()
	return nil
}

// ==================== 握手 ====================

// Connect 握手
func (p *GRPCPeer) Connect(ctx context.Context) bool {
	return p.connect(ctx, p.ExchangeInfo)
}

// ExchangeInfo 交换握手载荷
func (p *GRPCPeer) ExchangeInfo(ctx context.Context) (types.PeerInfo, bool) {
	return call(ctx, p.core, "exchange info", func(ctx context.Context) (types.PeerInfo, error) {
		client, err := p.connection()
		if err != nil {
			return types.PeerInfo{}, err
		}
		resp, err := client.ExchangeInfo(ctx, rpcwire.PeerInfoFrom(p.env.Registry.MyPeerInfo(types.ProtocolGRPC)))
		if err != nil {
			return types.PeerInfo{}, err
		}
		return resp.ToPeerInfo(), nil
	})
}

// ==================== 查询 ====================

// GetCumulativeDifficulty 查询累计难度
func (p *GRPCPeer) GetCumulativeDifficulty(ctx context.Context) (types.CumulativeDifficulty, bool) {
	return call(ctx, p.core, "get cumulative difficulty", func(ctx context.Context) (types.CumulativeDifficulty, error) {
		client, err := p.connection()
		if err != nil {
			return types.CumulativeDifficulty{}, err
		}
		resp, err := client.GetCumulativeDifficulty(ctx)
		if err != nil {
			return types.CumulativeDifficulty{}, err
		}
		return resp.ToCumulativeDifficulty(), nil
	})
}

// GetUnconfirmedTransactions 拉取未确认交易
func (p *GRPCPeer) GetUnconfirmedTransactions(ctx context.Context) ([]*types.Transaction, bool) {
	return call(ctx, p.core, "get unconfirmed transactions", func(ctx context.Context) ([]*types.Transaction, error) {
		client, err := p.connection()
		if err != nil {
			return nil, err
		}
		resp, err := client.GetUnconfirmedTransactions(ctx)
		if err != nil {
			return nil, err
		}
		return resp.Transactions, nil
	})
}

// GetMilestoneBlockIDs 以下载缓存的最后块 ID 开始里程碑协商
func (p *GRPCPeer) GetMilestoneBlockIDs(ctx context.Context) (types.MilestoneBlockIDs, bool) {
	return p.milestoneBlockIDs(ctx, &rpcwire.GetMilestoneBlockIdsRequest{LastBlockID: p.env.Cache.LastBlockID()})
}

// GetMilestoneBlockIDsFrom 以上一轮最后的里程碑 ID 继续协商
func (p *GRPCPeer) GetMilestoneBlockIDsFrom(ctx context.Context, lastMilestoneBlockID uint64) (types.MilestoneBlockIDs, bool) {
	return p.milestoneBlockIDs(ctx, &rpcwire.GetMilestoneBlockIdsRequest{LastMilestoneBlockID: lastMilestoneBlockID})
}

func (p *GRPCPeer) milestoneBlockIDs(ctx context.Context, req *rpcwire.GetMilestoneBlockIdsRequest) (types.MilestoneBlockIDs, bool) {
	return call(ctx, p.core, "get milestone block ids", func(ctx context.Context) (types.MilestoneBlockIDs, error) {
		client, err := p.connection()
		if err != nil {
			return types.MilestoneBlockIDs{}, err
		}
		resp, err := client.GetMilestoneBlockIds(ctx, req)
		if err != nil {
			return types.MilestoneBlockIDs{}, err
		}
		return types.MilestoneBlockIDs{IDs: nonZero(resp.MilestoneBlockIDs), Last: resp.Last}, nil
	})
}

// GetNextBlocks 拉取 lastBlockID 之后的区块
func (p *GRPCPeer) GetNextBlocks(ctx context.Context, lastBlockID uint64) ([]*types.Block, bool) {
	return call(ctx, p.core, "get next blocks", func(ctx context.Context) ([]*types.Block, error) {
		height, err := p.nextBlockHeight(lastBlockID)
		if err != nil {
			return nil, err
		}
		client, err := p.connection()
		if err != nil {
			return nil, err
		}
		resp, err := client.GetNextBlocks(ctx, &rpcwire.GetBlocksAfterRequest{BlockID: lastBlockID})
		if err != nil {
			return nil, err
		}

		blocks := truncate(resp.Blocks, p.env.Config.MaxReceivedBlocks)
		for i, b := range blocks {
			b.Height = height + int32(i)
		}
		return blocks, nil
	})
}

// GetNextBlockIDs 拉取 lastBlockID 之后的区块 ID
func (p *GRPCPeer) GetNextBlockIDs(ctx context.Context, lastBlockID uint64) ([]uint64, bool) {
	return call(ctx, p.core, "get next block ids", func(ctx context.Context) ([]uint64, error) {
		client, err := p.connection()
		if err != nil {
			return nil, err
		}
		resp, err := client.GetNextBlockIds(ctx, &rpcwire.GetBlocksAfterRequest{BlockID: lastBlockID})
		if err != nil {
			return nil, err
		}
		return nonZero(truncate(resp.BlockIDs, p.env.Config.MaxReceivedBlocks)), nil
	})
}

// GetPeers 获取对端已知节点
func (p *GRPCPeer) GetPeers(ctx context.Context) ([]types.PeerAddress, bool) {
	return call(ctx, p.core, "get peers", func(ctx context.Context) ([]types.PeerAddress, error) {
		client, err := p.connection()
		if err != nil {
			return nil, err
		}
		resp, err := client.GetPeers(ctx)
		if err != nil {
			return nil, err
		}
		return ParseGossipAddresses(resp.Addresses), nil
	})
}

// ==================== 推送 ====================

// SendUnconfirmedTransactions 推送未确认交易
func (p *GRPCPeer) SendUnconfirmedTransactions(ctx context.Context, txs []*types.Transaction) {
	call(ctx, p.core, "send unconfirmed transactions", func(ctx context.Context) (struct{}, error) {
		client, err := p.connection()
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, client.AddUnconfirmedTransactions(ctx, &rpcwire.Transactions{Transactions: txs})
	})
}

// SendBlock 推送区块，返回对端是否接受
func (p *GRPCPeer) SendBlock(ctx context.Context, block *types.Block) bool {
	accepted, ok := call(ctx, p.core, "send block", func(ctx context.Context) (bool, error) {
		client, err := p.connection()
		if err != nil {
			return false, err
		}
		resp, err := client.AddBlock(ctx, &rpcwire.ProcessBlockRequest{
			PreviousBlockID: block.PreviousBlockID,
			Block:           block,
		})
		if err != nil {
			return false, err
		}
		return resp.Accepted, nil
	})
	return ok && accepted
}

// AddPeers 向对端推送节点地址
func (p *GRPCPeer) AddPeers(ctx context.Context, addrs []types.PeerAddress) {
	call(ctx, p.core, "send peers", func(ctx context.Context) (struct{}, error) {
		client, err := p.connection()
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, client.AddPeers(ctx, &rpcwire.Peers{Addresses: p.gossipAddresses(addrs)})
	})
}

// ============================================================================
//                              线上字节统计
// ============================================================================

// volumeStats 以 gRPC stats 回调统计线上字节数
type volumeStats struct {
	c *core
}

var _ stats.Handler = volumeStats{}

// TagRPC 实现 stats.Handler
func (volumeStats) TagRPC(ctx context.Context, _ *stats.RPCTagInfo) context.Context {
	return ctx
}

// HandleRPC 实现 stats.Handler
func (h volumeStats) HandleRPC(_ context.Context, s stats.RPCStats) {
	switch st := s.(type) {
	case *stats.InPayload:
		h.c.UpdateDownloadedVolume(int64(st.WireLength))
	case *stats.OutPayload:
		h.c.UpdateUploadedVolume(int64(st.WireLength))
	}
}

// TagConn 实现 stats.Handler
func (volumeStats) TagConn(ctx context.Context, _ *stats.ConnTagInfo) context.Context {
	return ctx
}

// HandleConn 实现 stats.Handler
func (volumeStats) HandleConn(context.Context, stats.ConnStats) {}
