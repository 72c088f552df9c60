package brs

import (
	"context"
	"fmt"
	"math/big"
	"net"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// SyncResult 一次同步的结果
type SyncResult struct {
	// Peer 同步对象的地址，未同步时为空
	Peer string

	// CommonBlockID 与对端的共同区块
	CommonBlockID uint64

	// Applied 上链的区块数
	Applied int

	// PoppedOff 切换分叉时回退的区块数
	PoppedOff int
}

// requireRunning 检查节点是否运行中
func (n *Node) requireRunning() error {
	switch n.State() {
	case StateRunning:
		return nil
	case StateStopping, StateStopped:
		return ErrNodeClosed
	default:
		return ErrNotStarted
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              节点注册表
// ════════════════════════════════════════════════════════════════════════════

// Peers 返回节点注册表
func (n *Node) Peers() interfaces.PeerManager {
	return n.registry
}

// AddPeer 按地址注册节点（已存在时返回已有实例）
func (n *Node) AddPeer(address string) (interfaces.Peer, error) {
	return n.registry.AddPeer(address)
}

// GetPeer 按地址查找节点
func (n *Node) GetPeer(address string) (interfaces.Peer, bool) {
	return n.registry.GetPeer(address)
}

// ConnectedPeers 返回已连接的节点
func (n *Node) ConnectedPeers() []interfaces.Peer {
	return n.registry.ConnectedPeers()
}

// ════════════════════════════════════════════════════════════════════════════
//                              链
// ════════════════════════════════════════════════════════════════════════════

// Chain 返回本地链
func (n *Node) Chain() interfaces.Blockchain {
	return n.chain
}

// Height 本地链高
func (n *Node) Height() int32 {
	return n.chain.Height()
}

// CumulativeDifficulty 本地链尖累计难度
func (n *Node) CumulativeDifficulty() *big.Int {
	return n.chain.CumulativeDifficulty()
}

// PushBlock 追加本地产生的区块并发送给已连接节点
//
// 返回接受该区块的节点数。
func (n *Node) PushBlock(ctx context.Context, block *types.Block) (int, error) {
	if err := n.requireRunning(); err != nil {
		return 0, err
	}
	if err := n.chain.PushBlock(block); err != nil {
		return 0, fmt.Errorf("push block: %w", err)
	}
	return n.broadcaster.SendBlock(ctx, block), nil
}

// BroadcastTransactions 把交易放入未确认池并发送给目标节点
//
// 非法交易不入池也不发送，其错误被合并返回；返回发送目标数。
func (n *Node) BroadcastTransactions(ctx context.Context, txs []*types.Transaction) (int, error) {
	if err := n.requireRunning(); err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, nil
	}
	err := n.chain.ProcessPeerTransactions(txs, nil)

	pooled := make(map[uint64]struct{})
	for _, tx := range n.chain.UnconfirmedTransactions() {
		pooled[tx.ID] = struct{}{}
	}
	valid := make([]*types.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		if _, ok := pooled[tx.ID]; ok {
			valid = append(valid, tx)
		}
	}
	if len(valid) == 0 {
		return 0, err
	}
	return n.broadcaster.SendTransactions(ctx, valid), err
}

// ════════════════════════════════════════════════════════════════════════════
//                              同步
// ════════════════════════════════════════════════════════════════════════════

// SyncOnce 立即与累计难度最高的节点同步一次
func (n *Node) SyncOnce(ctx context.Context) (SyncResult, error) {
	if err := n.requireRunning(); err != nil {
		return SyncResult{}, err
	}
	res, err := n.downloader.SyncOnce(ctx)
	out := SyncResult{
		CommonBlockID: res.CommonBlockID,
		Applied:       res.Applied,
		PoppedOff:     res.PoppedOff,
	}
	if res.Peer != nil {
		out.Peer = res.Peer.Address().String()
	}
	return out, err
}

// SyncTransactions 从随机一个已连接节点拉取未确认交易
func (n *Node) SyncTransactions(ctx context.Context) (int, error) {
	if err := n.requireRunning(); err != nil {
		return 0, err
	}
	return n.downloader.SyncTransactions(ctx)
}

// ════════════════════════════════════════════════════════════════════════════
//                              服务与指标
// ════════════════════════════════════════════════════════════════════════════

// HTTPAddr HTTP 服务实际监听地址
func (n *Node) HTTPAddr() (net.Addr, error) {
	if n.subsystems.get("httpserver") == SubsystemDisabled {
		return nil, fmt.Errorf("httpserver: %w", ErrSubsystemDisabled)
	}
	return n.httpServer.Addr()
}

// GRPCAddr gRPC 服务实际监听地址
func (n *Node) GRPCAddr() (net.Addr, error) {
	if n.subsystems.get("grpcserver") == SubsystemDisabled {
		return nil, fmt.Errorf("grpcserver: %w", ErrSubsystemDisabled)
	}
	return n.grpcServer.Addr()
}

// Gatherer 返回指标采集器，指标未启用时为 nil
func (n *Node) Gatherer() prometheus.Gatherer {
	if n.metrics == nil {
		return nil
	}
	return n.metrics.Gatherer()
}
