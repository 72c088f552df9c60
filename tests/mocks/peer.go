package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// MockPeer 模拟 interfaces.Peer
//
// 状态字段可直接赋值；协议操作通过 XxxFunc 注入，未注入时返回缺席结果。
// 黑名单相关调用被记录在 BlacklistCauses 中。
type MockPeer struct {
	mu sync.Mutex

	AddressValue     types.PeerAddress
	RemoteValue      string
	StateValue       types.PeerState
	VersionValue     types.Version
	ApplicationValue string
	PlatformValue    string
	ShareAddressVal  bool
	WellKnown        bool
	Rebroadcast      bool
	Blacklisted      bool
	Removed          bool
	Closed           bool
	Info             types.PeerInfo
	BlacklistCauses  []error
	Downloaded       int64
	Uploaded         int64

	ConnectFunc                     func(ctx context.Context) bool
	ExchangeInfoFunc                func(ctx context.Context) (types.PeerInfo, bool)
	GetCumulativeDifficultyFunc     func(ctx context.Context) (types.CumulativeDifficulty, bool)
	GetUnconfirmedTransactionsFunc  func(ctx context.Context) ([]*types.Transaction, bool)
	GetMilestoneBlockIDsFunc        func(ctx context.Context) (types.MilestoneBlockIDs, bool)
	GetMilestoneBlockIDsFromFunc    func(ctx context.Context, last uint64) (types.MilestoneBlockIDs, bool)
	GetNextBlocksFunc               func(ctx context.Context, last uint64) ([]*types.Block, bool)
	GetNextBlockIDsFunc             func(ctx context.Context, last uint64) ([]uint64, bool)
	SendUnconfirmedTransactionsFunc func(ctx context.Context, txs []*types.Transaction)
	SendBlockFunc                   func(ctx context.Context, block *types.Block) bool
	AddPeersFunc                    func(ctx context.Context, addrs []types.PeerAddress)
	GetPeersFunc                    func(ctx context.Context) ([]types.PeerAddress, bool)
}

var _ interfaces.Peer = (*MockPeer)(nil)

// NewMockPeer 创建指定地址、处于 CONNECTED 状态的 MockPeer
func NewMockPeer(address string) *MockPeer {
	addr := types.MustParsePeerAddress(address)
	return &MockPeer{
		AddressValue:     addr,
		RemoteValue:      address,
		StateValue:       types.PeerStateConnected,
		VersionValue:     types.MustParseVersion("v3.0.0"),
		ApplicationValue: "BRS",
		ShareAddressVal:  true,
	}
}

// ============================================================================
// PeerState
// ============================================================================

func (m *MockPeer) RemoteAddress() string           { return m.RemoteValue }
func (m *MockPeer) Address() types.PeerAddress      { return m.AddressValue }
func (m *MockPeer) Protocol() types.Protocol        { return m.AddressValue.Protocol }
func (m *MockPeer) Application() string             { return m.ApplicationValue }
func (m *MockPeer) Platform() string                { return m.PlatformValue }
func (m *MockPeer) ShareAddress() bool              { return m.ShareAddressVal }
func (m *MockPeer) IsWellKnown() bool               { return m.WellKnown }
func (m *MockPeer) IsRebroadcastTarget() bool       { return m.Rebroadcast }
func (m *MockPeer) LastUpdated() int64              { return 0 }
func (m *MockPeer) Version() types.Version          { return m.VersionValue }
func (m *MockPeer) IsAtLeastMyVersion() bool        { return true }
func (m *MockPeer) UpdateAddress(types.PeerAddress) {}

// State 返回当前状态
func (m *MockPeer) State() types.PeerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StateValue
}

// SetState 设置状态
func (m *MockPeer) SetState(s types.PeerState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StateValue = s
}

// IsHigherOrEqualVersionThan 比较版本
func (m *MockPeer) IsHigherOrEqualVersionThan(v types.Version) bool {
	return m.VersionValue.IsGreaterThanOrEqual(v)
}

// DownloadedVolume 返回下载量
func (m *MockPeer) DownloadedVolume() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Downloaded
}

// UploadedVolume 返回上传量
func (m *MockPeer) UploadedVolume() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Uploaded
}

// UpdateDownloadedVolume 累加下载量
func (m *MockPeer) UpdateDownloadedVolume(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Downloaded += n
}

// UpdateUploadedVolume 累加上传量
func (m *MockPeer) UpdateUploadedVolume(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploaded += n
}

// UpdateInfo 记录握手载荷
func (m *MockPeer) UpdateInfo(info types.PeerInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Info = info
	m.ApplicationValue = info.Application
	m.PlatformValue = info.Platform
	m.ShareAddressVal = info.ShareAddress
	if v, err := types.ParseVersion(info.Version); err == nil {
		m.VersionValue = v
	}
}

// Remove 标记移除
func (m *MockPeer) Remove() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = true
}

// Close 标记关闭
func (m *MockPeer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// ============================================================================
// PeerReputation
// ============================================================================

// IsBlacklisted 是否被加入黑名单
func (m *MockPeer) IsBlacklisted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Blacklisted
}

// BlacklistingTime 固定返回 0 或 1
func (m *MockPeer) BlacklistingTime() int64 {
	if m.IsBlacklisted() {
		return 1
	}
	return 0
}

// Blacklist 加入黑名单
func (m *MockPeer) Blacklist() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Blacklisted = true
	m.StateValue = types.PeerStateNotConnected
}

// BlacklistWithDescription 加入黑名单
func (m *MockPeer) BlacklistWithDescription(string) {
	m.Blacklist()
}

// BlacklistWithCause 记录原因并加入黑名单
func (m *MockPeer) BlacklistWithCause(cause error, _ string) {
	m.mu.Lock()
	m.BlacklistCauses = append(m.BlacklistCauses, cause)
	m.mu.Unlock()
	m.Blacklist()
}

// UnBlacklist 移出黑名单
func (m *MockPeer) UnBlacklist() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Blacklisted = false
	m.StateValue = types.PeerStateNotConnected
}

// UpdateBlacklistedStatus 无操作
func (m *MockPeer) UpdateBlacklistedStatus(time.Time) {}

// Causes 返回记录的黑名单原因
func (m *MockPeer) Causes() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.BlacklistCauses...)
}

// ============================================================================
// PeerProtocol
// ============================================================================

// Connect 握手
func (m *MockPeer) Connect(ctx context.Context) bool {
	if m.ConnectFunc != nil {
		ok := m.ConnectFunc(ctx)
		if ok {
			m.SetState(types.PeerStateConnected)
		}
		return ok
	}
	return false
}

// ExchangeInfo 交换握手载荷
func (m *MockPeer) ExchangeInfo(ctx context.Context) (types.PeerInfo, bool) {
	if m.ExchangeInfoFunc != nil {
		return m.ExchangeInfoFunc(ctx)
	}
	return types.PeerInfo{}, false
}

// GetCumulativeDifficulty 查询累计难度
func (m *MockPeer) GetCumulativeDifficulty(ctx context.Context) (types.CumulativeDifficulty, bool) {
	if m.GetCumulativeDifficultyFunc != nil {
		return m.GetCumulativeDifficultyFunc(ctx)
	}
	return types.CumulativeDifficulty{}, false
}

// GetUnconfirmedTransactions 拉取未确认交易
func (m *MockPeer) GetUnconfirmedTransactions(ctx context.Context) ([]*types.Transaction, bool) {
	if m.GetUnconfirmedTransactionsFunc != nil {
		return m.GetUnconfirmedTransactionsFunc(ctx)
	}
	return nil, false
}

// GetMilestoneBlockIDs 开始里程碑协商
func (m *MockPeer) GetMilestoneBlockIDs(ctx context.Context) (types.MilestoneBlockIDs, bool) {
	if m.GetMilestoneBlockIDsFunc != nil {
		return m.GetMilestoneBlockIDsFunc(ctx)
	}
	return types.MilestoneBlockIDs{}, false
}

// GetMilestoneBlockIDsFrom 继续里程碑协商
func (m *MockPeer) GetMilestoneBlockIDsFrom(ctx context.Context, last uint64) (types.MilestoneBlockIDs, bool) {
	if m.GetMilestoneBlockIDsFromFunc != nil {
		return m.GetMilestoneBlockIDsFromFunc(ctx, last)
	}
	return types.MilestoneBlockIDs{}, false
}

// GetNextBlocks 拉取后续区块
func (m *MockPeer) GetNextBlocks(ctx context.Context, last uint64) ([]*types.Block, bool) {
	if m.GetNextBlocksFunc != nil {
		return m.GetNextBlocksFunc(ctx, last)
	}
	return nil, false
}

// GetNextBlockIDs 拉取后续区块 ID
func (m *MockPeer) GetNextBlockIDs(ctx context.Context, last uint64) ([]uint64, bool) {
	if m.GetNextBlockIDsFunc != nil {
		return m.GetNextBlockIDsFunc(ctx, last)
	}
	return nil, false
}

// SendUnconfirmedTransactions 推送交易
func (m *MockPeer) SendUnconfirmedTransactions(ctx context.Context, txs []*types.Transaction) {
	if m.SendUnconfirmedTransactionsFunc != nil {
		m.SendUnconfirmedTransactionsFunc(ctx, txs)
	}
}

// SendBlock 推送区块
func (m *MockPeer) SendBlock(ctx context.Context, block *types.Block) bool {
	if m.SendBlockFunc != nil {
		return m.SendBlockFunc(ctx, block)
	}
	return false
}

// AddPeers 推送节点地址
func (m *MockPeer) AddPeers(ctx context.Context, addrs []types.PeerAddress) {
	if m.AddPeersFunc != nil {
		m.AddPeersFunc(ctx, addrs)
	}
}

// GetPeers 获取节点地址
func (m *MockPeer) GetPeers(ctx context.Context) ([]types.PeerAddress, bool) {
	if m.GetPeersFunc != nil {
		return m.GetPeersFunc(ctx)
	}
	return nil, false
}
