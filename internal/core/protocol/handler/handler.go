package handler

import (
	"fmt"

	"github.com/dep2p/go-brs/internal/core/peer"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("protocol/handler")

// PeerSource 请求处理所需的注册表能力
type PeerSource interface {
	// AllPeers 返回全部节点
	AllPeers() []interfaces.Peer

	// AddPeer 按地址字符串注册节点
	AddPeer(address string) (interfaces.Peer, error)

	// AddInbound 按远程主机注册（或查找）入站调用方
	AddInbound(host string, protocol types.Protocol) (interfaces.Peer, error)

	// MyPeerInfo 本节点在指定传输上的握手载荷
	MyPeerInfo(protocol types.Protocol) types.PeerInfo
}

// Deps 请求处理依赖
type Deps struct {
	Peers        PeerSource
	Chain        interfaces.Blockchain
	Blocks       interfaces.BlockProcessor
	Transactions interfaces.TransactionProcessor
	Config       Config
}

// Handler 入站请求处理器
type Handler struct {
	peers  PeerSource
	chain  interfaces.Blockchain
	blocks interfaces.BlockProcessor
	txs    interfaces.TransactionProcessor
	cfg    Config
}

// New 创建处理器
func New(d Deps) (*Handler, error) {
	if d.Peers == nil || d.Chain == nil || d.Blocks == nil || d.Transactions == nil {
		return nil, fmt.Errorf("%w: missing collaborator", ErrInvalidConfig)
	}
	if d.Config == (Config{}) {
		d.Config = DefaultConfig()
	}
	if err := d.Config.Validate(); err != nil {
		return nil, err
	}
	return &Handler{
		peers:  d.Peers,
		chain:  d.Chain,
		blocks: d.Blocks,
		txs:    d.Transactions,
		cfg:    d.Config,
	}, nil
}

// Resolve 把远程主机解析为注册表中的调用方
func (h *Handler) Resolve(host string, protocol types.Protocol) (interfaces.Peer, error) {
	p, err := h.peers.AddInbound(host, protocol)
	if err != nil {
		return nil, err
	}
	if p.IsBlacklisted() {
		return p, ErrBlacklisted
	}
	return p, nil
}

// ============================================================================
//                              查询
// ============================================================================

// GetInfo 采纳调用方握手载荷并返回本节点载荷
//
// 载荷使调用方进入黑名单（例如版本过旧）时返回 ErrBlacklisted。
func (h *Handler) GetInfo(from interfaces.Peer, info types.PeerInfo) (types.PeerInfo, error) {
	from.UpdateInfo(info)
	if from.IsBlacklisted() {
		logger.Debug("拒绝黑名单节点的 getInfo", "peer", from.Address().String(), "version", info.Version)
		return types.PeerInfo{}, ErrBlacklisted
	}
	return h.peers.MyPeerInfo(from.Protocol()), nil
}

// GetCumulativeDifficulty 本地链尖累计难度与链高
func (h *Handler) GetCumulativeDifficulty() types.CumulativeDifficulty {
	return types.CumulativeDifficulty{
		Difficulty: h.chain.CumulativeDifficulty(),
		Height:     h.chain.Height(),
	}
}

// GetUnconfirmedTransactions 本地未确认交易
func (h *Handler) GetUnconfirmedTransactions() []*types.Transaction {
	return h.txs.UnconfirmedTransactions()
}

// GetNextBlocks 返回 blockID 之后的区块
func (h *Handler) GetNextBlocks(blockID uint64) ([]*types.Block, error) {
	if blockID == 0 {
		return nil, fmt.Errorf("%w: blockId", ErrMissingParameter)
	}
	blocks, err := h.chain.BlocksAfter(blockID, h.cfg.MaxBlocksPerRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownBlock, types.FormatID(blockID), err)
	}
	return blocks, nil
}

// GetNextBlockIDs 返回 blockID 之后的区块 ID
func (h *Handler) GetNextBlockIDs(blockID uint64) ([]uint64, error) {
	if blockID == 0 {
		return nil, fmt.Errorf("%w: blockId", ErrMissingParameter)
	}
	ids, err := h.chain.BlockIDsAfter(blockID, h.cfg.MaxBlocksPerRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownBlock, types.FormatID(blockID), err)
	}
	return ids, nil
}

// ============================================================================
//                              推送
// ============================================================================

// ProcessBlock 处理调用方推送的区块，返回是否接受
//
// 前驱不是本地链尖时直接拒绝（对端只是领先或落后，不拉黑）；
// 区块处理失败时按原因拉黑调用方，豁免集合中的原因不拉黑。
func (h *Handler) ProcessBlock(from interfaces.Peer, block *types.Block) bool {
	if block == nil {
		return false
	}
	tip := h.chain.LastBlock()
	if block.PreviousBlockID != tip.ID {
		logger.Debug("忽略未接在链尾的推送区块",
			"peer", from.Address().String(), "block", types.FormatID(block.ID),
			"previous", types.FormatID(block.PreviousBlockID))
		return false
	}
	if err := h.blocks.ProcessPeerBlock(block, from); err != nil {
		from.BlacklistWithCause(err, "processBlock")
		return false
	}
	return true
}

// ProcessTransactions 处理调用方推送的未确认交易
func (h *Handler) ProcessTransactions(from interfaces.Peer, txs []*types.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := h.txs.ProcessPeerTransactions(txs, from); err != nil {
		from.BlacklistWithCause(err, "processTransactions")
		return err
	}
	return nil
}

// ============================================================================
//                              地址传播
// ============================================================================

// AddPeers 注册调用方提供的地址，返回成功注册的数量
//
// 空白与无法解析的条目被丢弃；未启用 GetMorePeers 时全部忽略。
func (h *Handler) AddPeers(from interfaces.Peer, raw []string) int {
	if !h.cfg.GetMorePeers {
		return 0
	}
	added := 0
	for _, addr := range peer.ParseGossipAddresses(raw) {
		if _, err := h.peers.AddPeer(addr.String()); err != nil {
			logger.Debug("丢弃无效的传播地址", "from", from.Address().String(), "address", addr.String(), "error", err)
			continue
		}
		added++
	}
	return added
}

// GetPeers 返回可分享给调用方的地址
//
// 只包含未拉黑、已连接且允许分享地址的节点。调用方版本低于
// NewPeerAPIMinVersion 时只返回 HTTP 地址，且使用 host:port 形式。
func (h *Handler) GetPeers(from interfaces.Peer) []string {
	legacy := !from.IsHigherOrEqualVersionThan(h.cfg.NewPeerAPIMinVersion)

	var addrs []types.PeerAddress
	for _, p := range h.peers.AllPeers() {
		if p.IsBlacklisted() || p.State() != types.PeerStateConnected || !p.ShareAddress() {
			continue
		}
		addr := p.Address()
		if addr.IsZero() || addr == from.Address() {
			continue
		}
		if legacy && addr.Protocol != types.ProtocolHTTP {
			continue
		}
		addrs = append(addrs, addr)
	}
	return peer.FormatGossipAddresses(from.Version(), h.cfg.NewPeerAPIMinVersion, addrs)
}
