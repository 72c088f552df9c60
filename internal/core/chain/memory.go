package chain

import (
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/multierr"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("core/chain")

// two64 2^64，用于由 baseTarget 推算单块难度
var two64 = new(big.Int).Lsh(big.NewInt(1), 64)

// BlockListener 区块上链回调，from 为 nil 表示本地产生
type BlockListener func(block *types.Block, from interfaces.Peer)

// MemoryChain 内存区块链
type MemoryChain struct {
	mu         sync.RWMutex
	blocks     []*types.Block
	difficulty []*big.Int
	byID       map[uint64]int32

	unconfirmed      map[uint64]*types.Transaction
	unconfirmedOrder []uint64

	listeners []BlockListener
}

var (
	_ interfaces.Blockchain           = (*MemoryChain)(nil)
	_ interfaces.BlockProcessor       = (*MemoryChain)(nil)
	_ interfaces.TransactionProcessor = (*MemoryChain)(nil)
)

// NewMemoryChain 以创世块创建链
func NewMemoryChain(genesis *types.Block) (*MemoryChain, error) {
	if genesis == nil || genesis.ID == 0 {
		return nil, ErrGenesisRequired
	}
	g := *genesis
	g.Height = 0
	return &MemoryChain{
		blocks:      []*types.Block{&g},
		difficulty:  []*big.Int{blockDifficulty(&g)},
		byID:        map[uint64]int32{g.ID: 0},
		unconfirmed: make(map[uint64]*types.Transaction),
	}, nil
}

// blockDifficulty 单块难度 2^64 / baseTarget
func blockDifficulty(b *types.Block) *big.Int {
	if b.BaseTarget == 0 {
		return new(big.Int)
	}
	return new(big.Int).Div(two64, new(big.Int).SetUint64(b.BaseTarget))
}

// AddBlockListener 注册区块上链回调
func (c *MemoryChain) AddBlockListener(l BlockListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// ============================================================================
//                              Blockchain
// ============================================================================

// LastBlock 链尖区块
func (c *MemoryChain) LastBlock() *types.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// Height 链高
func (c *MemoryChain) Height() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int32(len(c.blocks) - 1)
}

// CumulativeDifficulty 链尖累计难度
func (c *MemoryChain) CumulativeDifficulty() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return new(big.Int).Set(c.difficulty[len(c.difficulty)-1])
}

// GetBlock 按 ID 查找区块
func (c *MemoryChain) GetBlock(id uint64) (*types.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.blocks[h], true
}

// HasBlock 是否包含区块
func (c *MemoryChain) HasBlock(id uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byID[id]
	return ok
}

// BlockIDAtHeight 指定高度的区块 ID
func (c *MemoryChain) BlockIDAtHeight(height int32) (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if height < 0 || int(height) >= len(c.blocks) {
		return 0, false
	}
	return c.blocks[height].ID, true
}

// BlocksAfter 返回 id 之后最多 limit 个区块
func (c *MemoryChain) BlocksAfter(id uint64, limit int) ([]*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, types.FormatID(id))
	}
	rest := c.blocks[h+1:]
	if limit >= 0 && len(rest) > limit {
		rest = rest[:limit]
	}
	return append([]*types.Block(nil), rest...), nil
}

// BlockIDsAfter 返回 id 之后最多 limit 个区块 ID
func (c *MemoryChain) BlockIDsAfter(id uint64, limit int) ([]uint64, error) {
	blocks, err := c.BlocksAfter(id, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	return ids, nil
}

// ============================================================================
//                              BlockProcessor
// ============================================================================

// ProcessPeerBlock 校验并追加对端推送的区块
//
// 前驱不是链尖时返回 types.ErrBlockOutOfOrder（不导致拉黑），
// 结构校验失败返回 types.ErrInvalidBlock。
func (c *MemoryChain) ProcessPeerBlock(block *types.Block, from interfaces.Peer) error {
	if block == nil {
		return fmt.Errorf("%w: nil block", types.ErrInvalidBlock)
	}

	c.mu.Lock()
	tip := c.blocks[len(c.blocks)-1]
	if block.PreviousBlockID != tip.ID {
		c.mu.Unlock()
		return fmt.Errorf("%w: previous %s, tip %s", types.ErrBlockOutOfOrder,
			types.FormatID(block.PreviousBlockID), types.FormatID(tip.ID))
	}
	if err := validateBlock(block, tip); err != nil {
		c.mu.Unlock()
		return err
	}
	if _, dup := c.byID[block.ID]; dup {
		c.mu.Unlock()
		return fmt.Errorf("%w: duplicate block %s", types.ErrInvalidBlock, types.FormatID(block.ID))
	}

	b := *block
	b.Height = tip.Height + 1
	c.blocks = append(c.blocks, &b)
	c.difficulty = append(c.difficulty,
		new(big.Int).Add(c.difficulty[len(c.difficulty)-1], blockDifficulty(&b)))
	c.byID[b.ID] = b.Height
	for _, tx := range b.Transactions {
		c.removeUnconfirmedLocked(tx.ID)
	}
	listeners := append([]BlockListener(nil), c.listeners...)
	c.mu.Unlock()

	logger.Debug("区块已上链", "id", types.FormatID(b.ID), "height", b.Height)
	for _, l := range listeners {
		l(&b, from)
	}
	return nil
}

// PushBlock 追加本地产生的区块
func (c *MemoryChain) PushBlock(block *types.Block) error {
	return c.ProcessPeerBlock(block, nil)
}

// validateBlock 结构校验
func validateBlock(b, prev *types.Block) error {
	switch {
	case b.ID == 0:
		return fmt.Errorf("%w: zero id", types.ErrInvalidBlock)
	case b.Timestamp <= prev.Timestamp:
		return fmt.Errorf("%w: timestamp %d not after %d", types.ErrInvalidBlock, b.Timestamp, prev.Timestamp)
	case len(b.GenerationSignature) == 0 || len(b.BlockSignature) == 0:
		return fmt.Errorf("%w: missing signature", types.ErrInvalidBlock)
	case b.BaseTarget == 0:
		return fmt.Errorf("%w: zero base target", types.ErrInvalidBlock)
	}
	seen := make(map[uint64]struct{}, len(b.Transactions))
	for _, tx := range b.Transactions {
		if err := validateTransaction(tx); err != nil {
			return fmt.Errorf("%w: %v", types.ErrInvalidBlock, err)
		}
		if _, dup := seen[tx.ID]; dup {
			return fmt.Errorf("%w: duplicate transaction %s", types.ErrInvalidBlock, types.FormatID(tx.ID))
		}
		seen[tx.ID] = struct{}{}
	}
	return nil
}

// PopOffTo 回滚到指定区块（保留该区块），返回被移除的区块（自高到低）
//
// 被移除区块中的交易重新放回未确认池。
func (c *MemoryChain) PopOffTo(id uint64) ([]*types.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, types.FormatID(id))
	}
	var popped []*types.Block
	for int32(len(c.blocks)-1) > h {
		last := c.blocks[len(c.blocks)-1]
		c.blocks = c.blocks[:len(c.blocks)-1]
		c.difficulty = c.difficulty[:len(c.difficulty)-1]
		delete(c.byID, last.ID)
		for _, tx := range last.Transactions {
			c.addUnconfirmedLocked(tx)
		}
		popped = append(popped, last)
	}
	if len(popped) > 0 {
		logger.Info("已回退区块", "count", len(popped), "height", h)
	}
	return popped, nil
}

// ============================================================================
//                              TransactionProcessor
// ============================================================================

// UnconfirmedTransactions 当前未确认交易（按接收顺序）
func (c *MemoryChain) UnconfirmedTransactions() []*types.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.Transaction, 0, len(c.unconfirmedOrder))
	for _, id := range c.unconfirmedOrder {
		out = append(out, c.unconfirmed[id])
	}
	return out
}

// ProcessPeerTransactions 把对端推送的交易放入未确认池
//
// 合法交易全部入池；非法交易的错误被合并返回。
func (c *MemoryChain) ProcessPeerTransactions(txs []*types.Transaction, _ interfaces.Peer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs error
	for _, tx := range txs {
		if err := validateTransaction(tx); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		c.addUnconfirmedLocked(tx)
	}
	return errs
}

// AddUnconfirmed 放入本地创建的交易
func (c *MemoryChain) AddUnconfirmed(tx *types.Transaction) error {
	return c.ProcessPeerTransactions([]*types.Transaction{tx}, nil)
}

func (c *MemoryChain) addUnconfirmedLocked(tx *types.Transaction) {
	if _, ok := c.unconfirmed[tx.ID]; ok {
		return
	}
	c.unconfirmed[tx.ID] = tx
	c.unconfirmedOrder = append(c.unconfirmedOrder, tx.ID)
}

func (c *MemoryChain) removeUnconfirmedLocked(id uint64) {
	if _, ok := c.unconfirmed[id]; !ok {
		return
	}
	delete(c.unconfirmed, id)
	for i, v := range c.unconfirmedOrder {
		if v == id {
			c.unconfirmedOrder = append(c.unconfirmedOrder[:i], c.unconfirmedOrder[i+1:]...)
			break
		}
	}
}

// validateTransaction 交易结构校验
func validateTransaction(tx *types.Transaction) error {
	switch {
	case tx == nil:
		return fmt.Errorf("%w: nil transaction", types.ErrInvalidTransaction)
	case tx.ID == 0:
		return fmt.Errorf("%w: zero id", types.ErrInvalidTransaction)
	case len(tx.Signature) == 0:
		return fmt.Errorf("%w: %s unsigned", types.ErrInvalidTransaction, types.FormatID(tx.ID))
	case tx.Deadline <= 0:
		return fmt.Errorf("%w: %s has no deadline", types.ErrInvalidTransaction, types.FormatID(tx.ID))
	case tx.FeeNQT < 0 || tx.AmountNQT < 0:
		return fmt.Errorf("%w: %s negative amount", types.ErrInvalidTransaction, types.FormatID(tx.ID))
	}
	return nil
}
