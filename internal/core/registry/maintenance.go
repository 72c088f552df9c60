package registry

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// connectConcurrency 单轮并发握手上限
const connectConcurrency = 8

// maxGossipAddresses 单轮从对端采纳的地址上限
const maxGossipAddresses = 100

// loopState 维护循环状态
type loopState struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 载入已保存节点与知名节点，启动维护循环
func (r *Registry) Start(_ context.Context) error {
	r.loop.mu.Lock()
	defer r.loop.mu.Unlock()
	if r.loop.cancel != nil {
		return ErrAlreadyStarted
	}

	loaded := r.loadSaved()
	for _, addr := range r.cfg.WellKnownPeers.Slice() {
		r.tryAdd(addr)
	}
	logger.Info("节点注册表已启动", "saved", loaded, "wellKnown", r.cfg.WellKnownPeers.Len(), "peers", r.Len())

	ctx, cancel := context.WithCancel(context.Background())
	r.loop.cancel = cancel
	r.loop.done = make(chan struct{})
	go r.run(ctx, r.loop.done)
	return nil
}

// Stop 停止维护循环，保存节点地址并关闭全部节点
func (r *Registry) Stop(ctx context.Context) error {
	r.loop.mu.Lock()
	cancel, done := r.loop.cancel, r.loop.done
	r.loop.cancel, r.loop.done = nil, nil
	r.loop.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var saveErr error
	if r.cfg.SavePeers && r.store != nil {
		saveErr = r.SavePeers()
	}
	return multierr.Combine(saveErr, r.Close())
}

func (r *Registry) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := r.clock.Ticker(r.cfg.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Maintain(ctx)
		}
	}
}

// ============================================================================
//                              维护
// ============================================================================

// Maintain 执行一轮维护：黑名单到期检查、补充连接、交换地址
func (r *Registry) Maintain(ctx context.Context) {
	now := r.clock.Now()
	for _, p := range r.AllPeers() {
		p.UpdateBlacklistedStatus(now)
	}

	if n := r.connectPeers(ctx); n > 0 {
		logger.Debug("已连接节点", "count", n)
	}
	if r.cfg.GetMorePeers {
		r.exchangePeers(ctx)
	}
}

// connectPeers 对未连接节点握手，直到活跃数达到上限
func (r *Registry) connectPeers(ctx context.Context) int {
	need := r.cfg.MaxConnectedPeers - len(r.ConnectedPeers())
	if need <= 0 {
		return 0
	}

	candidates := r.filter(func(p interfaces.Peer) bool {
		return p.State() != types.PeerStateConnected && !p.IsBlacklisted()
	})
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > need {
		candidates = candidates[:need]
	}

	var (
		g         errgroup.Group
		mu        sync.Mutex
		connected int
	)
	g.SetLimit(connectConcurrency)
	for _, p := range candidates {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if p.Connect(ctx) {
				mu.Lock()
				connected++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return connected
}

// exchangePeers 与一个随机已连接节点交换地址
func (r *Registry) exchangePeers(ctx context.Context) {
	connected := r.ConnectedPeers()
	if len(connected) == 0 {
		return
	}
	target := connected[rand.IntN(len(connected))]

	if addrs, ok := target.GetPeers(ctx); ok {
		added := 0
		for _, addr := range addrs {
			if added >= maxGossipAddresses {
				break
			}
			if r.tryAdd(addr) {
				added++
			}
		}
	}

	var share []types.PeerAddress
	for _, p := range connected {
		if p == target || !p.ShareAddress() {
			continue
		}
		if addr := p.Address(); !addr.IsZero() {
			share = append(share, addr)
		}
	}
	if len(share) > 0 {
		target.AddPeers(ctx, share)
	}
}

// tryAdd 注册地址，返回是否为新节点
func (r *Registry) tryAdd(addr types.PeerAddress) bool {
	r.mu.RLock()
	_, exists := r.peers[addr]
	r.mu.RUnlock()
	if exists {
		return false
	}
	if _, err := r.addAddress(addr, ""); err != nil {
		if !errors.Is(err, ErrSelfAddress) && !errors.Is(err, ErrClosed) {
			logger.Debug("忽略节点地址", "address", addr, "err", err)
		}
		return false
	}
	return true
}

// ============================================================================
//                              持久化
// ============================================================================

// loadSaved 载入上次保存的节点地址
func (r *Registry) loadSaved() int {
	if !r.cfg.SavePeers || r.store == nil {
		return 0
	}
	addrs, err := r.store.Load()
	if err != nil {
		logger.Warn("载入已保存节点失败", "err", err)
		return 0
	}
	n := 0
	for _, addr := range addrs {
		if r.tryAdd(addr) {
			n++
		}
	}
	return n
}

// SavePeers 用当前未拉黑节点的地址替换已保存集合
func (r *Registry) SavePeers() error {
	if r.store == nil {
		return nil
	}
	var addrs []types.PeerAddress
	for _, p := range r.AllPeers() {
		if p.IsBlacklisted() {
			continue
		}
		if addr := p.Address(); !addr.IsZero() {
			addrs = append(addrs, addr)
		}
	}
	added, removed, err := r.store.Replace(addrs)
	if err != nil {
		return err
	}
	logger.Debug("已保存节点地址", "total", len(addrs), "added", added, "removed", removed)
	return nil
}
