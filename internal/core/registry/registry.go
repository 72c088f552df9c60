package registry

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-brs/internal/core/peer"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("core/registry")

// PeerStore 已知节点地址的持久化
type PeerStore interface {
	Load() ([]types.PeerAddress, error)
	Replace(addrs []types.PeerAddress) (added, removed int, err error)
}

// Deps 注册表依赖
type Deps struct {
	// Cache 下载缓存（必需），传给每个节点
	Cache interfaces.DownloadCache

	// Store 地址持久化，nil 时不保存
	Store PeerStore

	// Clock 时钟，nil 时使用系统时钟
	Clock clock.Clock

	// HTTPClient 文本传输共享客户端，nil 时由节点按超时创建
	HTTPClient *http.Client

	// Config 注册表配置
	Config Config
}

// Registry 节点注册表
type Registry struct {
	cfg   Config
	env   peer.Env
	store PeerStore
	clock clock.Clock

	mu     sync.RWMutex
	peers  map[types.PeerAddress]interfaces.Peer
	closed bool

	listenersMu sync.RWMutex
	listeners   map[types.PeerEvent][]interfaces.PeerListener

	loop loopState
}

var _ interfaces.PeerManager = (*Registry)(nil)

// New 创建注册表
func New(d Deps) (*Registry, error) {
	if d.Cache == nil {
		return nil, fmt.Errorf("%w: download cache is required", ErrInvalidConfig)
	}
	if err := d.Config.Validate(); err != nil {
		return nil, err
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}

	r := &Registry{
		cfg:       d.Config,
		store:     d.Store,
		clock:     d.Clock,
		peers:     make(map[types.PeerAddress]interfaces.Peer),
		listeners: make(map[types.PeerEvent][]interfaces.PeerListener),
	}
	r.env = peer.Env{
		Registry:   r,
		Cache:      d.Cache,
		Clock:      d.Clock,
		HTTPClient: d.HTTPClient,
		Config:     d.Config.Peer,
	}
	return r, nil
}

// ============================================================================
//                              interfaces.Registry
// ============================================================================

// NotifyListeners 派发节点事件
func (r *Registry) NotifyListeners(p interfaces.Peer, event types.PeerEvent) {
	r.listenersMu.RLock()
	ls := append([]interfaces.PeerListener(nil), r.listeners[event]...)
	r.listenersMu.RUnlock()

	for _, l := range ls {
		l(p, event)
	}
}

// AddListener 注册事件回调
func (r *Registry) AddListener(event types.PeerEvent, listener interfaces.PeerListener) {
	if listener == nil {
		return
	}
	r.listenersMu.Lock()
	r.listeners[event] = append(r.listeners[event], listener)
	r.listenersMu.Unlock()
}

// UpdateAddress 节点公告地址变化后重新索引
//
// 新地址已被另一个节点占用时，旧占用者被移除。
func (r *Registry) UpdateAddress(p interfaces.Peer) {
	addr := p.Address()

	r.mu.Lock()
	var oldKey types.PeerAddress
	found := false
	for k, v := range r.peers {
		if v == p {
			oldKey, found = k, true
			break
		}
	}
	if !found || oldKey == addr {
		r.mu.Unlock()
		return
	}
	delete(r.peers, oldKey)
	displaced := r.peers[addr]
	r.peers[addr] = p
	r.mu.Unlock()

	logger.Debug("节点地址变更", "from", oldKey, "to", addr)
	if displaced != nil && displaced != p {
		r.dispose(displaced)
	}
	r.NotifyListeners(p, types.EventAddressChanged)
}

// RemovePeer 移除节点
func (r *Registry) RemovePeer(p interfaces.Peer) {
	r.mu.Lock()
	removed := false
	for k, v := range r.peers {
		if v == p {
			delete(r.peers, k)
			removed = true
			break
		}
	}
	r.mu.Unlock()

	if removed {
		r.dispose(p)
	}
}

// dispose 关闭已从索引删除的节点并发出通知
func (r *Registry) dispose(p interfaces.Peer) {
	if err := p.Close(); err != nil {
		logger.Debug("关闭已移除的节点", "peer", p.RemoteAddress(), "err", err)
	}
	r.NotifyListeners(p, types.EventRemove)
}

// WellKnownPeers 知名节点集合
func (r *Registry) WellKnownPeers() types.AddressSet { return r.cfg.WellKnownPeers }

// RebroadcastPeers 交易重播目标集合
func (r *Registry) RebroadcastPeers() types.AddressSet { return r.cfg.RebroadcastPeers }

// KnownBlacklistedAddresses 配置的永久黑名单
func (r *Registry) KnownBlacklistedAddresses() types.AddressSet { return r.cfg.BlacklistedPeers }

// BlacklistingPeriod 黑名单持续时间
func (r *Registry) BlacklistingPeriod() time.Duration { return r.cfg.BlacklistingPeriod }

// ConnectTimeout 建立连接超时
func (r *Registry) ConnectTimeout() time.Duration { return r.cfg.ConnectTimeout }

// ReadTimeout 读取响应超时
func (r *Registry) ReadTimeout() time.Duration { return r.cfg.ReadTimeout }

// MyPeerInfo 本节点在指定传输上的握手载荷
func (r *Registry) MyPeerInfo(protocol types.Protocol) types.PeerInfo {
	info := types.PeerInfo{
		Application:  r.cfg.Peer.Application,
		Version:      r.cfg.Peer.Version.String(),
		Platform:     r.cfg.Platform,
		ShareAddress: r.cfg.ShareAddress,
	}
	if my := r.myAddress(protocol); !my.IsZero() {
		info.AnnouncedAddress = my.String()
	}
	return info
}

func (r *Registry) myAddress(protocol types.Protocol) types.PeerAddress {
	if protocol == types.ProtocolGRPC {
		return r.cfg.MyGRPCAddress
	}
	return r.cfg.MyAddress
}

// isSelf 地址是否指向本节点
func (r *Registry) isSelf(addr types.PeerAddress) bool {
	return addr == r.cfg.MyAddress || addr == r.cfg.MyGRPCAddress
}

// ============================================================================
//                              查询
// ============================================================================

// GetPeer 按规范地址或原始连接字符串查找节点
func (r *Registry) GetPeer(address string) (interfaces.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if addr, err := types.ParsePeerAddress(address, types.ProtocolHTTP); err == nil {
		if p, ok := r.peers[addr]; ok {
			return p, true
		}
	}
	for _, p := range r.peers {
		if p.RemoteAddress() == address {
			return p, true
		}
	}
	return nil, false
}

// AllPeers 返回全部节点，按地址排序
func (r *Registry) AllPeers() []interfaces.Peer {
	r.mu.RLock()
	out := make([]interfaces.Peer, 0, len(r.peers))
	keys := make([]types.PeerAddress, 0, len(r.peers))
	for k := range r.peers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		out = append(out, r.peers[k])
	}
	r.mu.RUnlock()
	return out
}

// ActivePeers 返回状态非 NOT_CONNECTED 的节点
func (r *Registry) ActivePeers() []interfaces.Peer {
	return r.filter(func(p interfaces.Peer) bool {
		return p.State() != types.PeerStateNotConnected
	})
}

// ConnectedPeers 返回已连接且未拉黑的节点
func (r *Registry) ConnectedPeers() []interfaces.Peer {
	return r.filter(func(p interfaces.Peer) bool {
		return p.State() == types.PeerStateConnected && !p.IsBlacklisted()
	})
}

// Len 已知节点数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func (r *Registry) filter(keep func(interfaces.Peer) bool) []interfaces.Peer {
	all := r.AllPeers()
	out := all[:0]
	for _, p := range all {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// ============================================================================
//                              注册
// ============================================================================

// AddPeer 按地址字符串注册节点（已存在时返回已有实例）
//
// 未带协议前缀的地址按 HTTP 解析。
func (r *Registry) AddPeer(address string) (interfaces.Peer, error) {
	addr, err := types.ParsePeerAddress(address, types.ProtocolHTTP)
	if err != nil {
		return nil, err
	}
	return r.addAddress(addr, strings.TrimSpace(address))
}

// addAddress 注册 addr，raw 为原始连接字符串
func (r *Registry) addAddress(addr types.PeerAddress, raw string) (interfaces.Peer, error) {
	if r.isSelf(addr) {
		return nil, ErrSelfAddress
	}

	r.mu.RLock()
	existing, ok := r.peers[addr]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return existing, nil
	}

	p, err := peer.NewFromAddress(r.env, addr, raw)
	if err != nil {
		return nil, err
	}
	return r.insert(addr, p)
}

// AddInbound 为入站调用方查找或注册节点
//
// 先按默认端口的规范地址查找，再按主机匹配已存在的同协议节点
// （对端公告的端口可能不同于默认端口）。
func (r *Registry) AddInbound(host string, protocol types.Protocol) (interfaces.Peer, error) {
	host = strings.ToLower(strings.Trim(host, "[]"))
	addr := types.PeerAddress{Protocol: protocol, Host: host, Port: protocol.DefaultPort()}

	r.mu.RLock()
	p, ok := r.peers[addr]
	if !ok {
		for k, v := range r.peers {
			if k.Protocol == protocol && k.Host == host {
				p, ok = v, true
				break
			}
		}
	}
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return p, nil
	}

	np, err := peer.New(r.env, protocol, host, types.PeerAddress{})
	if err != nil {
		return nil, err
	}
	return r.insert(np.Address(), np)
}

// insert 写入索引；并发注册时保留先到者
func (r *Registry) insert(addr types.PeerAddress, p interfaces.Peer) (interfaces.Peer, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = p.Close()
		return nil, ErrClosed
	}
	if existing, ok := r.peers[addr]; ok {
		r.mu.Unlock()
		_ = p.Close()
		return existing, nil
	}
	r.peers[addr] = p
	r.mu.Unlock()

	logger.Debug("发现新节点", "address", addr)
	r.NotifyListeners(p, types.EventNewPeer)
	return p, nil
}

// Close 关闭全部节点
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	peers := r.peers
	r.peers = make(map[types.PeerAddress]interfaces.Peer)
	r.mu.Unlock()

	logger.Info("正在关闭节点注册表", "peers", len(peers))
	for _, p := range peers {
		if err := p.Close(); err != nil {
			logger.Debug("关闭节点", "peer", p.RemoteAddress(), "err", err)
		}
	}
	return nil
}
