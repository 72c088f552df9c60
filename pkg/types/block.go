package types

import "math/big"

// Transaction 交易
//
// 账本语义（签名、手续费规则、附件解释）由外部协作者负责，
// 这里只承载线上传输所需的字段。
type Transaction struct {
	ID              uint64
	Type            uint8
	Subtype         uint8
	Version         uint8
	Timestamp       int32
	Deadline        int32
	SenderPublicKey []byte
	RecipientID     uint64
	AmountNQT       int64
	FeeNQT          int64
	Signature       []byte
	Attachment      []byte
}

// Block 区块
//
// Height 为本地属性，不在线上传输；接收方按请求的起始块推算。
type Block struct {
	ID                  uint64
	Version             int32
	Timestamp           int32
	PreviousBlockID     uint64
	PreviousBlockHash   []byte
	Height              int32
	TotalAmountNQT      int64
	TotalFeeNQT         int64
	PayloadHash         []byte
	GeneratorPublicKey  []byte
	GenerationSignature []byte
	BlockSignature      []byte
	Nonce               uint64
	BaseTarget          uint64
	Transactions        []*Transaction
}

// CumulativeDifficulty 链的累计难度与高度
type CumulativeDifficulty struct {
	Difficulty *big.Int
	Height     int32
}

// MilestoneBlockIDs 里程碑协商的一轮结果
//
// Last 为 true 表示对端已回溯到其最早已知区块，调用方应停止迭代。
type MilestoneBlockIDs struct {
	IDs  []uint64
	Last bool
}

// LastID 返回本轮最后一个 ID，没有时返回 0
func (m MilestoneBlockIDs) LastID() uint64 {
	if len(m.IDs) == 0 {
		return 0
	}
	return m.IDs[len(m.IDs)-1]
}
