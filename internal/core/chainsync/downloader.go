package chainsync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"sync"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-brs/internal/core/downloadcache"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("core/chainsync")

// PeerSource 同步所需的注册表能力
type PeerSource interface {
	// AllPeers 返回全部节点
	AllPeers() []interfaces.Peer
}

// Chain 同步所需的本地链能力
type Chain interface {
	interfaces.Blockchain
	interfaces.BlockProcessor

	// PopOffTo 回滚到指定区块，返回被移除的区块（自高到低）
	PopOffTo(id uint64) ([]*types.Block, error)

	// PushBlock 追加区块
	PushBlock(block *types.Block) error
}

// Deps 下载器依赖
type Deps struct {
	Peers        PeerSource
	Chain        Chain
	Cache        *downloadcache.Cache
	Transactions interfaces.TransactionProcessor
	Clock        clock.Clock
	Config       Config
}

// Result 一次同步的结果
type Result struct {
	// Peer 同步对象，本地已是最重链时为 nil
	Peer interfaces.Peer

	// CommonBlockID 最后一个公共区块
	CommonBlockID uint64

	// Applied 上链的区块数
	Applied int

	// PoppedOff 切换分叉时回滚的区块数
	PoppedOff int
}

// Downloader 区块下载器
type Downloader struct {
	peers PeerSource
	chain Chain
	cache *downloadcache.Cache
	txs   interfaces.TransactionProcessor
	clock clock.Clock
	cfg   Config

	syncMu sync.Mutex

	loopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDownloader 创建下载器
func NewDownloader(d Deps) (*Downloader, error) {
	if d.Peers == nil || d.Chain == nil || d.Cache == nil {
		return nil, fmt.Errorf("%w: missing collaborator", ErrInvalidConfig)
	}
	if err := d.Config.Validate(); err != nil {
		return nil, err
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	return &Downloader{
		peers: d.Peers,
		chain: d.Chain,
		cache: d.Cache,
		txs:   d.Transactions,
		clock: d.Clock,
		cfg:   d.Config,
	}, nil
}

// connected 已连接且未拉黑的节点
func connected(all []interfaces.Peer) []interfaces.Peer {
	out := make([]interfaces.Peer, 0, len(all))
	for _, p := range all {
		if p.State() == types.PeerStateConnected && !p.IsBlacklisted() {
			out = append(out, p)
		}
	}
	return out
}

// ============================================================================
//                              区块同步
// ============================================================================

// SyncOnce 与累计难度最高的节点同步一次
//
// 所有节点的累计难度都不高于本地时返回零值 Result。
// 对端导致的失败按原因拉黑对端；连接级失败与过深分叉不拉黑。
func (d *Downloader) SyncOnce(ctx context.Context) (Result, error) {
	d.syncMu.Lock()
	defer d.syncMu.Unlock()

	best, err := d.bestPeer(ctx)
	if err != nil || best == nil {
		return Result{}, err
	}
	res := Result{Peer: best}

	known := d.chain.HasBlock
	milestone, err := FindCommonMilestone(ctx, best, known, d.cfg.MaxMilestoneRounds)
	if err != nil {
		return res, d.fail(best, fmt.Errorf("find common milestone: %w", err))
	}
	common, err := FindCommonBlock(ctx, best, known, milestone, d.cfg.MaxMilestoneRounds)
	if err != nil {
		return res, d.fail(best, fmt.Errorf("find common block: %w", err))
	}
	res.CommonBlockID = common

	commonBlock, ok := d.chain.GetBlock(common)
	if !ok {
		return res, fmt.Errorf("%w: %s vanished", ErrNoCommonBlock, types.FormatID(common))
	}
	depth := d.chain.Height() - commonBlock.Height
	if int(depth) > d.cfg.MaxRollback {
		return res, fmt.Errorf("%w: %d blocks", ErrForkTooDeep, depth)
	}

	blocks, ok := best.GetNextBlocks(ctx, common)
	if !ok {
		return res, ErrPeerUnavailable
	}
	if len(blocks) == 0 {
		return res, nil
	}

	before := d.chain.CumulativeDifficulty()
	d.cache.Clear()
	var popped []*types.Block
	if depth > 0 {
		popped, err = d.chain.PopOffTo(common)
		if err != nil {
			return res, err
		}
		res.PoppedOff = len(popped)
	}

	if err := d.fillCache(blocks); err != nil {
		d.cache.Clear()
		d.restore(common, popped)
		res.PoppedOff = 0
		return res, d.fail(best, err)
	}

	applied, applyErr := d.cache.Apply(d.chain, best)
	res.Applied = applied
	if len(popped) > 0 && d.chain.CumulativeDifficulty().Cmp(before) < 0 {
		logger.Info("分叉累计难度较低，恢复原链", "peer", best.Address().String(), "popped", len(popped), "applied", applied)
		d.restore(common, popped)
		res.Applied, res.PoppedOff = 0, 0
	}
	if applyErr != nil {
		return res, d.fail(best, applyErr)
	}

	logger.Info("同步完成", "peer", best.Address().String(), "common", types.FormatID(common),
		"applied", res.Applied, "popped", res.PoppedOff, "height", d.chain.Height())
	return res, nil
}

// bestPeer 并发查询累计难度，返回难度高于本地的最重节点
func (d *Downloader) bestPeer(ctx context.Context) (interfaces.Peer, error) {
	candidates := connected(d.peers.AllPeers())
	if len(candidates) == 0 {
		return nil, ErrNoPeers
	}

	difficulties := make([]*big.Int, len(candidates))
	var g errgroup.Group
	g.SetLimit(d.cfg.SendToPeersLimit)
	for i, p := range candidates {
		g.Go(func() error {
			if cd, ok := p.GetCumulativeDifficulty(ctx); ok && cd.Difficulty != nil {
				difficulties[i] = cd.Difficulty
			}
			return nil
		})
	}
	_ = g.Wait()

	var best interfaces.Peer
	bestCD := d.chain.CumulativeDifficulty()
	for i, cd := range difficulties {
		if cd != nil && cd.Cmp(bestCD) > 0 {
			best, bestCD = candidates[i], cd
		}
	}
	return best, nil
}

// fillCache 把下载的区块按序放入缓存，缓存满时停止
func (d *Downloader) fillCache(blocks []*types.Block) error {
	for _, b := range blocks {
		err := d.cache.AddBlock(b)
		switch {
		case err == nil:
		case errors.Is(err, downloadcache.ErrFull):
			return nil
		default:
			return fmt.Errorf("%w: %v", types.ErrInvalidBlock, err)
		}
	}
	return nil
}

// restore 回滚到公共区块并重新追加原链区块
func (d *Downloader) restore(common uint64, popped []*types.Block) {
	if len(popped) == 0 {
		return
	}
	if _, err := d.chain.PopOffTo(common); err != nil {
		logger.Warn("恢复原链失败", "common", types.FormatID(common), "error", err)
		return
	}
	for i := len(popped) - 1; i >= 0; i-- {
		if err := d.chain.PushBlock(popped[i]); err != nil {
			logger.Warn("恢复原链区块失败", "id", types.FormatID(popped[i].ID), "error", err)
			return
		}
	}
}

// fail 按原因决定是否拉黑对端
func (d *Downloader) fail(p interfaces.Peer, err error) error {
	switch {
	case errors.Is(err, ErrPeerUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		logger.Debug("同步中断", "peer", p.Address().String(), "error", err)
	default:
		p.BlacklistWithCause(err, "sync")
	}
	return err
}

// ============================================================================
//                              交易同步
// ============================================================================

// SyncTransactions 从随机一个已连接节点拉取未确认交易
//
// 返回交给交易池的交易数；交易池拒绝时按原因拉黑对端。
func (d *Downloader) SyncTransactions(ctx context.Context) (int, error) {
	if d.txs == nil {
		return 0, nil
	}
	candidates := connected(d.peers.AllPeers())
	if len(candidates) == 0 {
		return 0, ErrNoPeers
	}

	p := candidates[rand.IntN(len(candidates))]
	txs, ok := p.GetUnconfirmedTransactions(ctx)
	if !ok {
		return 0, ErrPeerUnavailable
	}
	if len(txs) == 0 {
		return 0, nil
	}
	if err := d.txs.ProcessPeerTransactions(txs, p); err != nil {
		p.BlacklistWithCause(err, "unconfirmed transactions")
		return 0, err
	}
	return len(txs), nil
}

// ============================================================================
//                              后台循环
// ============================================================================

// Start 启动后台同步循环
func (d *Downloader) Start(_ context.Context) error {
	d.loopMu.Lock()
	defer d.loopMu.Unlock()
	if d.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
	return nil
}

// Stop 停止后台循环并等待当前一轮结束
func (d *Downloader) Stop(ctx context.Context) error {
	d.loopMu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.loopMu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Downloader) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := d.clock.Ticker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Downloader) tick(ctx context.Context) {
	if _, err := d.SyncOnce(ctx); err != nil && !errors.Is(err, ErrNoPeers) {
		logger.Debug("区块同步失败", "error", err)
	}
	if n, err := d.SyncTransactions(ctx); err != nil && !errors.Is(err, ErrNoPeers) {
		logger.Debug("交易同步失败", "error", err)
	} else if n > 0 {
		logger.Debug("收到未确认交易", "count", n)
	}
}
