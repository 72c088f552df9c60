package jsonwire

import (
	"fmt"

	"github.com/dep2p/go-brs/pkg/types"
)

// ============================================================================
//                              常量
// ============================================================================

const (
	// ProtocolVersion 请求信封中的协议标识
	ProtocolVersion = "B1"

	// Path 对端服务路径
	Path = "/burst"
)

// 请求类型
const (
	RequestGetInfo                    = "getInfo"
	RequestGetCumulativeDifficulty    = "getCumulativeDifficulty"
	RequestGetUnconfirmedTransactions = "getUnconfirmedTransactions"
	RequestGetMilestoneBlockIDs       = "getMilestoneBlockIds"
	RequestProcessTransactions        = "processTransactions"
	RequestGetNextBlocks              = "getNextBlocks"
	RequestGetNextBlockIDs            = "getNextBlockIds"
	RequestAddPeers                   = "addPeers"
	RequestGetPeers                   = "getPeers"
	RequestProcessBlock               = "processBlock"
)

// ============================================================================
//                              请求
// ============================================================================

// Envelope 请求信封
//
// 所有请求都内嵌 Envelope；服务端先解出信封，再按 requestType 解码具体请求。
type Envelope struct {
	Protocol    string `json:"protocol"`
	RequestType string `json:"requestType"`
}

// NewEnvelope 创建信封
func NewEnvelope(requestType string) Envelope {
	return Envelope{Protocol: ProtocolVersion, RequestType: requestType}
}

// Check 校验协议标识
func (e Envelope) Check() error {
	if e.Protocol != ProtocolVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedProtocol, e.Protocol)
	}
	if e.RequestType == "" {
		return fmt.Errorf("%w: missing requestType", ErrMalformed)
	}
	return nil
}

// InfoRequest getInfo 请求（携带本节点握手载荷）
type InfoRequest struct {
	Envelope
	PeerInfoJSON
}

// MilestoneBlockIDsRequest getMilestoneBlockIds 请求
//
// LastBlockID 与 LastMilestoneBlockID 二选一。
type MilestoneBlockIDsRequest struct {
	Envelope
	LastBlockID          string `json:"lastBlockId,omitempty"`
	LastMilestoneBlockID string `json:"lastMilestoneBlockId,omitempty"`
}

// BlocksAfterRequest getNextBlocks / getNextBlockIds 请求
type BlocksAfterRequest struct {
	Envelope
	BlockID string `json:"blockId"`
}

// TransactionsRequest processTransactions 请求
type TransactionsRequest struct {
	Envelope
	Transactions []TransactionJSON `json:"transactions"`
}

// PeersRequest addPeers 请求
type PeersRequest struct {
	Envelope
	Peers []string `json:"peers"`
}

// ProcessBlockRequest processBlock 请求（区块字段内联）
type ProcessBlockRequest struct {
	Envelope
	BlockJSON
}

// ============================================================================
//                              响应
// ============================================================================

// Status 响应公共部分
type Status struct {
	Error string `json:"error,omitempty"`
}

// Err 将 error 字段转换为 types.ErrPeerError
func (s Status) Err() error {
	if s.Error == "" {
		return nil
	}
	return fmt.Errorf("%w: %s", types.ErrPeerError, s.Error)
}

// Response 所有响应实现的接口
type Response interface {
	Err() error
}

// ErrorResponse 创建仅包含错误的响应
func ErrorResponse(err error) *Status {
	return &Status{Error: err.Error()}
}

// InfoResponse getInfo 响应
type InfoResponse struct {
	Status
	PeerInfoJSON
}

// CumulativeDifficultyResponse getCumulativeDifficulty 响应
type CumulativeDifficultyResponse struct {
	Status
	CumulativeDifficulty string `json:"cumulativeDifficulty"`
	BlockchainHeight     int32  `json:"blockchainHeight"`
}

// UnconfirmedTransactionsResponse getUnconfirmedTransactions 响应
type UnconfirmedTransactionsResponse struct {
	Status
	UnconfirmedTransactions []TransactionJSON `json:"unconfirmedTransactions"`
}

// MilestoneBlockIDsResponse getMilestoneBlockIds 响应
type MilestoneBlockIDsResponse struct {
	Status
	MilestoneBlockIDs []string `json:"milestoneBlockIds"`
	Last              bool     `json:"last"`
}

// NextBlocksResponse getNextBlocks 响应
type NextBlocksResponse struct {
	Status
	NextBlocks []BlockJSON `json:"nextBlocks"`
}

// NextBlockIDsResponse getNextBlockIds 响应
type NextBlockIDsResponse struct {
	Status
	NextBlockIDs []string `json:"nextBlockIds"`
}

// PeersResponse getPeers 响应
type PeersResponse struct {
	Status
	Peers []string `json:"peers"`
}

// ProcessBlockResponse processBlock 响应
type ProcessBlockResponse struct {
	Status
	Accepted bool `json:"accepted"`
}

// ============================================================================
//                              ID 列表
// ============================================================================

// FormatIDs 将 ID 列表编码为字符串列表
func FormatIDs(ids []uint64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = types.FormatID(id)
	}
	return out
}

// ParseIDs 解析 ID 列表
//
// 至多处理 limit 项（limit <= 0 表示不限），无法解析的项与 0 被过滤。
func ParseIDs(raw []string, limit int) []uint64 {
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	out := make([]uint64, 0, len(raw))
	for _, s := range raw {
		if id := types.ParseIDOrZero(s); id != 0 {
			out = append(out, id)
		}
	}
	return out
}
