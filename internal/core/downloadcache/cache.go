// Package downloadcache 缓存已下载、尚未上链的区块
//
// 同步时先把对端返回的区块按顺序放入缓存，再逐个交给区块处理器。
// LastBlockID 在缓存非空时返回缓存尾部区块，否则返回链尖，
// 节点据此构造 getMilestoneBlockIds / getNextBlocks 请求。
package downloadcache

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("core/downloadcache")

// DefaultCapacity 默认最多缓存的区块数
const DefaultCapacity = 1440

// 下载缓存错误定义
var (
	// ErrFull 缓存已满
	ErrFull = errors.New("downloadcache: cache full")

	// ErrNotContinuous 区块不接在缓存尾部
	ErrNotContinuous = errors.New("downloadcache: block does not extend cache")
)

// Cache 下载缓存
type Cache struct {
	chain interfaces.Blockchain

	mu       sync.Mutex
	blocks   *lru.Cache[uint64, *types.Block]
	order    []uint64
	capacity int
}

var _ interfaces.DownloadCache = (*Cache)(nil)

// New 创建下载缓存
func New(chain interfaces.Blockchain, capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	blocks, err := lru.New[uint64, *types.Block](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{chain: chain, blocks: blocks, capacity: capacity}, nil
}

// lastLocked 缓存尾部区块，缓存为空时为链尖
func (c *Cache) lastLocked() *types.Block {
	if n := len(c.order); n > 0 {
		if b, ok := c.blocks.Peek(c.order[n-1]); ok {
			return b
		}
	}
	return c.chain.LastBlock()
}

// LastBlockID 缓存（或链）中最后一个区块的 ID
func (c *Cache) LastBlockID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLocked().ID
}

// Height 缓存（或链）中最后一个区块的高度
func (c *Cache) Height() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLocked().Height
}

// GetBlock 先查缓存，再查链
func (c *Cache) GetBlock(id uint64) (*types.Block, bool) {
	c.mu.Lock()
	b, ok := c.blocks.Peek(id)
	c.mu.Unlock()
	if ok {
		return b, true
	}
	return c.chain.GetBlock(id)
}

// HasBlock 缓存或链中是否包含区块
func (c *Cache) HasBlock(id uint64) bool {
	c.mu.Lock()
	ok := c.blocks.Contains(id)
	c.mu.Unlock()
	return ok || c.chain.HasBlock(id)
}

// Len 缓存中的区块数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// AddBlock 把区块追加到缓存尾部
//
// 区块必须接在当前尾部之后；高度由尾部推算。
func (c *Cache) AddBlock(block *types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.lastLocked()
	if block.PreviousBlockID != last.ID {
		return fmt.Errorf("%w: previous %s, last %s", ErrNotContinuous,
			types.FormatID(block.PreviousBlockID), types.FormatID(last.ID))
	}
	if len(c.order) >= c.capacity {
		return ErrFull
	}

	block.Height = last.Height + 1
	c.blocks.Add(block.ID, block)
	c.order = append(c.order, block.ID)
	return nil
}

// Pending 按顺序返回缓存中的区块
func (c *Cache) Pending() []*types.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*types.Block, 0, len(c.order))
	for _, id := range c.order {
		if b, ok := c.blocks.Peek(id); ok {
			out = append(out, b)
		}
	}
	return out
}

// Apply 按顺序把缓存区块交给处理器
//
// 成功上链的区块从缓存移除；遇到第一个失败时清空剩余缓存并返回该错误。
// 返回成功处理的区块数。
func (c *Cache) Apply(processor interfaces.BlockProcessor, from interfaces.Peer) (int, error) {
	applied := 0
	for _, b := range c.Pending() {
		if err := processor.ProcessPeerBlock(b, from); err != nil {
			dropped := c.Clear()
			logger.Debug("应用缓存区块失败", "id", types.FormatID(b.ID), "dropped", dropped, "error", err)
			return applied, err
		}
		c.remove(b.ID)
		applied++
	}
	return applied, nil
}

func (c *Cache) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks.Remove(id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Clear 清空缓存，返回被丢弃的区块数
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.order)
	c.blocks.Purge()
	c.order = nil
	return n
}
