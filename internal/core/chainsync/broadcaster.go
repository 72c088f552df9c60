package chainsync

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// Broadcaster 区块与交易广播
type Broadcaster struct {
	peers PeerSource
	limit int
}

// NewBroadcaster 创建广播器，limit 为并发推送上限
func NewBroadcaster(peers PeerSource, limit int) (*Broadcaster, error) {
	if peers == nil {
		return nil, fmt.Errorf("%w: missing peer source", ErrInvalidConfig)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: send to peers limit must be positive", ErrInvalidConfig)
	}
	return &Broadcaster{peers: peers, limit: limit}, nil
}

// SendBlock 把区块推送给全部已连接节点，返回接受的节点数
func (b *Broadcaster) SendBlock(ctx context.Context, block *types.Block) int {
	var accepted atomic.Int32
	b.each(ctx, connected(b.peers.AllPeers()), func(ctx context.Context, p interfaces.Peer) {
		if p.SendBlock(ctx, block) {
			accepted.Add(1)
		}
	})
	return int(accepted.Load())
}

// SendTransactions 把交易推送给已连接节点与重播目标，返回推送的节点数
//
// 重播目标不要求处于已连接状态，但已拉黑的节点被跳过。
func (b *Broadcaster) SendTransactions(ctx context.Context, txs []*types.Transaction) int {
	if len(txs) == 0 {
		return 0
	}
	targets := b.transactionTargets()
	b.each(ctx, targets, func(ctx context.Context, p interfaces.Peer) {
		p.SendUnconfirmedTransactions(ctx, txs)
	})
	return len(targets)
}

func (b *Broadcaster) transactionTargets() []interfaces.Peer {
	all := b.peers.AllPeers()
	out := make([]interfaces.Peer, 0, len(all))
	for _, p := range all {
		if p.IsBlacklisted() {
			continue
		}
		if p.State() == types.PeerStateConnected || p.IsRebroadcastTarget() {
			out = append(out, p)
		}
	}
	return out
}

// each 以有限并发对每个节点执行 fn
func (b *Broadcaster) each(ctx context.Context, peers []interfaces.Peer, fn func(context.Context, interfaces.Peer)) {
	var g errgroup.Group
	g.SetLimit(b.limit)
	for _, p := range peers {
		g.Go(func() error {
			fn(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
}
