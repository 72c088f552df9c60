package grpcserver

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dep2p/go-brs/internal/core/protocol/rpcwire"
)

// service PeerService 的实现，逐个方法委托给处理器
type service struct {
	s *Server
}

// ExchangeInfo 握手
func (v *service) ExchangeInfo(ctx context.Context, in *rpcwire.PeerInfo) (*rpcwire.PeerInfo, error) {
	from, err := v.s.caller(ctx)
	if err != nil {
		return nil, err
	}
	my, err := v.s.handler.GetInfo(from, in.ToPeerInfo())
	if err != nil {
		return nil, toStatus(err)
	}
	return rpcwire.PeerInfoFrom(my), nil
}

// GetCumulativeDifficulty 累计难度与链高
func (v *service) GetCumulativeDifficulty(ctx context.Context, _ *rpcwire.Empty) (*rpcwire.CumulativeDifficulty, error) {
	if _, err := v.s.caller(ctx); err != nil {
		return nil, err
	}
	return rpcwire.CumulativeDifficultyFrom(v.s.handler.GetCumulativeDifficulty()), nil
}

// GetUnconfirmedTransactions 未确认交易
func (v *service) GetUnconfirmedTransactions(ctx context.Context, _ *rpcwire.Empty) (*rpcwire.Transactions, error) {
	if _, err := v.s.caller(ctx); err != nil {
		return nil, err
	}
	return &rpcwire.Transactions{Transactions: v.s.handler.GetUnconfirmedTransactions()}, nil
}

// GetMilestoneBlockIds 里程碑协商
func (v *service) GetMilestoneBlockIds(ctx context.Context, in *rpcwire.GetMilestoneBlockIdsRequest) (*rpcwire.MilestoneBlockIds, error) {
	from, err := v.s.caller(ctx)
	if err != nil {
		return nil, err
	}
	m, err := v.s.handler.GetMilestoneBlockIDs(from, in.LastBlockID, in.LastMilestoneBlockID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpcwire.MilestoneBlockIds{MilestoneBlockIDs: m.IDs, Last: m.Last}, nil
}

// AddUnconfirmedTransactions 接收未确认交易
func (v *service) AddUnconfirmedTransactions(ctx context.Context, in *rpcwire.Transactions) (*rpcwire.Empty, error) {
	from, err := v.s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := v.s.handler.ProcessTransactions(from, in.Transactions); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &rpcwire.Empty{}, nil
}

// GetNextBlocks 区块之后的区块
func (v *service) GetNextBlocks(ctx context.Context, in *rpcwire.GetBlocksAfterRequest) (*rpcwire.Blocks, error) {
	if _, err := v.s.caller(ctx); err != nil {
		return nil, err
	}
	blocks, err := v.s.handler.GetNextBlocks(in.BlockID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpcwire.Blocks{Blocks: blocks}, nil
}

// GetNextBlockIds 区块之后的区块 ID
func (v *service) GetNextBlockIds(ctx context.Context, in *rpcwire.GetBlocksAfterRequest) (*rpcwire.BlockIds, error) {
	if _, err := v.s.caller(ctx); err != nil {
		return nil, err
	}
	ids, err := v.s.handler.GetNextBlockIDs(in.BlockID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpcwire.BlockIds{BlockIDs: ids}, nil
}

// AddPeers 接收地址
func (v *service) AddPeers(ctx context.Context, in *rpcwire.Peers) (*rpcwire.Empty, error) {
	from, err := v.s.caller(ctx)
	if err != nil {
		return nil, err
	}
	v.s.handler.AddPeers(from, in.Addresses)
	return &rpcwire.Empty{}, nil
}

// GetPeers 可分享的地址
func (v *service) GetPeers(ctx context.Context, _ *rpcwire.Empty) (*rpcwire.Peers, error) {
	from, err := v.s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return &rpcwire.Peers{Addresses: v.s.handler.GetPeers(from)}, nil
}

// AddBlock 接收推送的区块
func (v *service) AddBlock(ctx context.Context, in *rpcwire.ProcessBlockRequest) (*rpcwire.ProcessBlockResponse, error) {
	from, err := v.s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if in.Block == nil {
		return nil, status.Error(codes.InvalidArgument, "missing block")
	}
	if in.Block.PreviousBlockID == 0 {
		in.Block.PreviousBlockID = in.PreviousBlockID
	}
	return &rpcwire.ProcessBlockResponse{Accepted: v.s.handler.ProcessBlock(from, in.Block)}, nil
}
