package mocks

import (
	"sync"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// MockDownloadCache 模拟 interfaces.DownloadCache
type MockDownloadCache struct {
	mu     sync.RWMutex
	blocks map[uint64]*types.Block
	last   uint64

	LastBlockIDFunc func() uint64
}

var _ interfaces.DownloadCache = (*MockDownloadCache)(nil)

// NewMockDownloadCache 创建空缓存
func NewMockDownloadCache() *MockDownloadCache {
	return &MockDownloadCache{blocks: make(map[uint64]*types.Block)}
}

// Add 加入区块，并把它设为最后一个区块
func (m *MockDownloadCache) Add(b *types.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[b.ID] = b
	m.last = b.ID
}

// LastBlockID 返回最后一个区块 ID
func (m *MockDownloadCache) LastBlockID() uint64 {
	if m.LastBlockIDFunc != nil {
		return m.LastBlockIDFunc()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// GetBlock 查找区块
func (m *MockDownloadCache) GetBlock(id uint64) (*types.Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[id]
	return b, ok
}

// ============================================================================
// 处理器
// ============================================================================

// ProcessedBlock 记录的一次区块处理
type ProcessedBlock struct {
	Block *types.Block
	From  interfaces.Peer
}

// MockBlockProcessor 模拟 interfaces.BlockProcessor
type MockBlockProcessor struct {
	mu    sync.Mutex
	calls []ProcessedBlock

	ProcessPeerBlockFunc func(block *types.Block, from interfaces.Peer) error
}

var _ interfaces.BlockProcessor = (*MockBlockProcessor)(nil)

// ProcessPeerBlock 记录调用并执行注入行为
func (m *MockBlockProcessor) ProcessPeerBlock(block *types.Block, from interfaces.Peer) error {
	m.mu.Lock()
	m.calls = append(m.calls, ProcessedBlock{Block: block, From: from})
	m.mu.Unlock()

	if m.ProcessPeerBlockFunc != nil {
		return m.ProcessPeerBlockFunc(block, from)
	}
	return nil
}

// Calls 返回调用记录
func (m *MockBlockProcessor) Calls() []ProcessedBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ProcessedBlock(nil), m.calls...)
}

// MockTransactionProcessor 模拟 interfaces.TransactionProcessor
type MockTransactionProcessor struct {
	mu       sync.Mutex
	received [][]*types.Transaction

	Unconfirmed                 []*types.Transaction
	ProcessPeerTransactionsFunc func(txs []*types.Transaction, from interfaces.Peer) error
}

var _ interfaces.TransactionProcessor = (*MockTransactionProcessor)(nil)

// UnconfirmedTransactions 返回预置的未确认交易
func (m *MockTransactionProcessor) UnconfirmedTransactions() []*types.Transaction {
	return m.Unconfirmed
}

// ProcessPeerTransactions 记录调用并执行注入行为
func (m *MockTransactionProcessor) ProcessPeerTransactions(txs []*types.Transaction, from interfaces.Peer) error {
	m.mu.Lock()
	m.received = append(m.received, txs)
	m.mu.Unlock()

	if m.ProcessPeerTransactionsFunc != nil {
		return m.ProcessPeerTransactionsFunc(txs, from)
	}
	return nil
}

// Received 返回收到的交易批次
func (m *MockTransactionProcessor) Received() [][]*types.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*types.Transaction(nil), m.received...)
}
