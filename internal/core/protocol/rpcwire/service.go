package rpcwire

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName 完整服务名
const ServiceName = "brs.peer.v1.PeerService"

// 方法全名
const (
	MethodExchangeInfo               = "/" + ServiceName + "/ExchangeInfo"
	MethodGetCumulativeDifficulty    = "/" + ServiceName + "/GetCumulativeDifficulty"
	MethodGetUnconfirmedTransactions = "/" + ServiceName + "/GetUnconfirmedTransactions"
	MethodGetMilestoneBlockIds       = "/" + ServiceName + "/GetMilestoneBlockIds"
	MethodAddUnconfirmedTransactions = "/" + ServiceName + "/AddUnconfirmedTransactions"
	MethodGetNextBlocks              = "/" + ServiceName + "/GetNextBlocks"
	MethodGetNextBlockIds            = "/" + ServiceName + "/GetNextBlockIds"
	MethodAddPeers                   = "/" + ServiceName + "/AddPeers"
	MethodGetPeers                   = "/" + ServiceName + "/GetPeers"
	MethodAddBlock                   = "/" + ServiceName + "/AddBlock"
)

// ============================================================================
//                              服务端
// ============================================================================

// PeerServiceServer 服务端实现的接口
type PeerServiceServer interface {
	ExchangeInfo(context.Context, *PeerInfo) (*PeerInfo, error)
	GetCumulativeDifficulty(context.Context, *Empty) (*CumulativeDifficulty, error)
	GetUnconfirmedTransactions(context.Context, *Empty) (*Transactions, error)
	GetMilestoneBlockIds(context.Context, *GetMilestoneBlockIdsRequest) (*MilestoneBlockIds, error)
	AddUnconfirmedTransactions(context.Context, *Transactions) (*Empty, error)
	GetNextBlocks(context.Context, *GetBlocksAfterRequest) (*Blocks, error)
	GetNextBlockIds(context.Context, *GetBlocksAfterRequest) (*BlockIds, error)
	AddPeers(context.Context, *Peers) (*Empty, error)
	GetPeers(context.Context, *Empty) (*Peers, error)
	AddBlock(context.Context, *ProcessBlockRequest) (*ProcessBlockResponse, error)
}

// RegisterPeerServiceServer 注册服务
func RegisterPeerServiceServer(s grpc.ServiceRegistrar, srv PeerServiceServer) {
	s.RegisterService(&PeerServiceDesc, srv)
}

// unary 构造一元方法处理器
func unary[Req any, PReq interface {
	*Req
	Message
}, Resp Message](
	fullMethod string,
	call func(PeerServiceServer, context.Context, PReq) (Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PeerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PeerServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PeerServiceDesc 服务描述
var PeerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PeerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExchangeInfo", Handler: unary(MethodExchangeInfo, PeerServiceServer.ExchangeInfo)},
		{MethodName: "GetCumulativeDifficulty", Handler: unary(MethodGetCumulativeDifficulty, PeerServiceServer.GetCumulativeDifficulty)},
		{MethodName: "GetUnconfirmedTransactions", Handler: unary(MethodGetUnconfirmedTransactions, PeerServiceServer.GetUnconfirmedTransactions)},
		{MethodName: "GetMilestoneBlockIds", Handler: unary(MethodGetMilestoneBlockIds, PeerServiceServer.GetMilestoneBlockIds)},
		{MethodName: "AddUnconfirmedTransactions", Handler: unary(MethodAddUnconfirmedTransactions, PeerServiceServer.AddUnconfirmedTransactions)},
		{MethodName: "GetNextBlocks", Handler: unary(MethodGetNextBlocks, PeerServiceServer.GetNextBlocks)},
		{MethodName: "GetNextBlockIds", Handler: unary(MethodGetNextBlockIds, PeerServiceServer.GetNextBlockIds)},
		{MethodName: "AddPeers", Handler: unary(MethodAddPeers, PeerServiceServer.AddPeers)},
		{MethodName: "GetPeers", Handler: unary(MethodGetPeers, PeerServiceServer.GetPeers)},
		{MethodName: "AddBlock", Handler: unary(MethodAddBlock, PeerServiceServer.AddBlock)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "brs/peer/v1/peer.proto",
}

// ============================================================================
//                              客户端
// ============================================================================

// PeerServiceClient 客户端存根
type PeerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPeerServiceClient 创建客户端存根
func NewPeerServiceClient(cc grpc.ClientConnInterface) *PeerServiceClient {
	return &PeerServiceClient{cc: cc}
}

func (c *PeerServiceClient) invoke(ctx context.Context, method string, in, out Message, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

// ExchangeInfo 交换握手载荷
func (c *PeerServiceClient) ExchangeInfo(ctx context.Context, in *PeerInfo, opts ...grpc.CallOption) (*PeerInfo, error) {
	out := new(PeerInfo)
	if err := c.invoke(ctx, MethodExchangeInfo, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCumulativeDifficulty 查询累计难度
func (c *PeerServiceClient) GetCumulativeDifficulty(ctx context.Context, opts ...grpc.CallOption) (*CumulativeDifficulty, error) {
	out := new(CumulativeDifficulty)
	if err := c.invoke(ctx, MethodGetCumulativeDifficulty, &Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUnconfirmedTransactions 拉取未确认交易
func (c *PeerServiceClient) GetUnconfirmedTransactions(ctx context.Context, opts ...grpc.CallOption) (*Transactions, error) {
	out := new(Transactions)
	if err := c.invoke(ctx, MethodGetUnconfirmedTransactions, &Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMilestoneBlockIds 里程碑协商
func (c *PeerServiceClient) GetMilestoneBlockIds(ctx context.Context, in *GetMilestoneBlockIdsRequest, opts ...grpc.CallOption) (*MilestoneBlockIds, error) {
	out := new(MilestoneBlockIds)
	if err := c.invoke(ctx, MethodGetMilestoneBlockIds, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// AddUnconfirmedTransactions 推送未确认交易
func (c *PeerServiceClient) AddUnconfirmedTransactions(ctx context.Context, in *Transactions, opts ...grpc.CallOption) error {
	return c.invoke(ctx, MethodAddUnconfirmedTransactions, in, &Empty{}, opts)
}

// GetNextBlocks 拉取后续区块
func (c *PeerServiceClient) GetNextBlocks(ctx context.Context, in *GetBlocksAfterRequest, opts ...grpc.CallOption) (*Blocks, error) {
	out := new(Blocks)
	if err := c.invoke(ctx, MethodGetNextBlocks, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNextBlockIds 拉取后续区块 ID
func (c *PeerServiceClient) GetNextBlockIds(ctx context.Context, in *GetBlocksAfterRequest, opts ...grpc.CallOption) (*BlockIds, error) {
	out := new(BlockIds)
	if err := c.invoke(ctx, MethodGetNextBlockIds, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// AddPeers 推送节点地址
func (c *PeerServiceClient) AddPeers(ctx context.Context, in *Peers, opts ...grpc.CallOption) error {
	return c.invoke(ctx, MethodAddPeers, in, &Empty{}, opts)
}

// GetPeers 获取节点地址
func (c *PeerServiceClient) GetPeers(ctx context.Context, opts ...grpc.CallOption) (*Peers, error) {
	out := new(Peers)
	if err := c.invoke(ctx, MethodGetPeers, &Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// AddBlock 推送区块
func (c *PeerServiceClient) AddBlock(ctx context.Context, in *ProcessBlockRequest, opts ...grpc.CallOption) (*ProcessBlockResponse, error) {
	out := new(ProcessBlockResponse)
	if err := c.invoke(ctx, MethodAddBlock, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
