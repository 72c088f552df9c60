package mocks

import (
	"sync"
	"time"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// RecordedEvent 记录的一次节点事件
type RecordedEvent struct {
	Peer  interfaces.Peer
	Event types.PeerEvent
}

// MockRegistry 模拟 interfaces.Registry
//
// 所有事件都被记录；超时默认很短，便于失败用例快速返回。
type MockRegistry struct {
	mu      sync.Mutex
	events  []RecordedEvent
	updated []interfaces.Peer
	removed []interfaces.Peer

	WellKnown         types.AddressSet
	Rebroadcast       types.AddressSet
	Blacklisted       types.AddressSet
	BlacklistPeriod   time.Duration
	ConnectTimeoutVal time.Duration
	ReadTimeoutVal    time.Duration
	Info              types.PeerInfo

	NotifyListenersFunc func(p interfaces.Peer, event types.PeerEvent)
}

var _ interfaces.Registry = (*MockRegistry)(nil)

// NewMockRegistry 创建带有默认值的 MockRegistry
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		WellKnown:         types.NewAddressSet(),
		Rebroadcast:       types.NewAddressSet(),
		Blacklisted:       types.NewAddressSet(),
		BlacklistPeriod:   10 * time.Minute,
		ConnectTimeoutVal: 500 * time.Millisecond,
		ReadTimeoutVal:    time.Second,
		Info: types.PeerInfo{
			Application:  "BRS",
			Version:      "v3.0.0",
			Platform:     "test",
			ShareAddress: true,
		},
	}
}

// NotifyListeners 记录事件
func (m *MockRegistry) NotifyListeners(p interfaces.Peer, event types.PeerEvent) {
	m.mu.Lock()
	m.events = append(m.events, RecordedEvent{Peer: p, Event: event})
	m.mu.Unlock()

	if m.NotifyListenersFunc != nil {
		m.NotifyListenersFunc(p, event)
	}
}

// UpdateAddress 记录重新索引请求
func (m *MockRegistry) UpdateAddress(p interfaces.Peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, p)
}

// RemovePeer 记录移除请求
func (m *MockRegistry) RemovePeer(p interfaces.Peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, p)
}

// WellKnownPeers 返回知名节点集合
func (m *MockRegistry) WellKnownPeers() types.AddressSet { return m.WellKnown }

// RebroadcastPeers 返回重播目标集合
func (m *MockRegistry) RebroadcastPeers() types.AddressSet { return m.Rebroadcast }

// KnownBlacklistedAddresses 返回永久黑名单
func (m *MockRegistry) KnownBlacklistedAddresses() types.AddressSet { return m.Blacklisted }

// BlacklistingPeriod 返回黑名单持续时间
func (m *MockRegistry) BlacklistingPeriod() time.Duration { return m.BlacklistPeriod }

// ConnectTimeout 返回连接超时
func (m *MockRegistry) ConnectTimeout() time.Duration { return m.ConnectTimeoutVal }

// ReadTimeout 返回读取超时
func (m *MockRegistry) ReadTimeout() time.Duration { return m.ReadTimeoutVal }

// MyPeerInfo 返回本节点握手载荷
func (m *MockRegistry) MyPeerInfo(types.Protocol) types.PeerInfo { return m.Info }

// ============================================================================
// 调用记录
// ============================================================================

// Events 返回已记录的全部事件
func (m *MockRegistry) Events() []RecordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedEvent(nil), m.events...)
}

// EventsOf 返回指定类型事件的次数
func (m *MockRegistry) EventsOf(event types.PeerEvent) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// ResetEvents 清空事件记录
func (m *MockRegistry) ResetEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// UpdatedPeers 返回收到的重新索引请求
func (m *MockRegistry) UpdatedPeers() []interfaces.Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interfaces.Peer(nil), m.updated...)
}

// RemovedPeers 返回收到的移除请求
func (m *MockRegistry) RemovedPeers() []interfaces.Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interfaces.Peer(nil), m.removed...)
}
