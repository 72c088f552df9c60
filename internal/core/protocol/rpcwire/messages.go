package rpcwire

import (
	"math/big"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-brs/pkg/types"
)

// ============================================================================
//                              Empty
// ============================================================================

// Empty 空消息
type Empty struct{}

// Marshal 实现 Message
func (*Empty) Marshal() ([]byte, error) { return nil, nil }

// Unmarshal 实现 Message（忽略未知字段）
func (*Empty) Unmarshal(b []byte) error {
	return walk(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return -1, nil })
}

// ============================================================================
//                              PeerInfo
// ============================================================================

// PeerInfo 握手载荷
type PeerInfo struct {
	Application      string
	Version          string
	Platform         string
	ShareAddress     bool
	AnnouncedAddress string
}

// PeerInfoFrom 转换握手载荷
func PeerInfoFrom(info types.PeerInfo) *PeerInfo {
	p := PeerInfo(info)
	return &p
}

// ToPeerInfo 转换为 types.PeerInfo
func (m *PeerInfo) ToPeerInfo() types.PeerInfo {
	return types.PeerInfo(*m)
}

// Marshal 实现 Message
func (m *PeerInfo) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Application)
	b = appendString(b, 2, m.Version)
	b = appendString(b, 3, m.Platform)
	b = appendBool(b, 4, m.ShareAddress)
	b = appendString(b, 5, m.AnnouncedAddress)
	return b, nil
}

// Unmarshal 实现 Message
func (m *PeerInfo) Unmarshal(b []byte) error {
	*m = PeerInfo{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1, 2, 3, 5:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			switch num {
			case 1:
				m.Application = string(v)
			case 2:
				m.Version = string(v)
			case 3:
				m.Platform = string(v)
			case 5:
				m.AnnouncedAddress = string(v)
			}
			return n, nil
		case 4:
			v, n, err := consumeUint(typ, b)
			m.ShareAddress = protowire.DecodeBool(v)
			return n, err
		}
		return -1, nil
	})
}

// ============================================================================
//                              CumulativeDifficulty
// ============================================================================

// CumulativeDifficulty 累计难度（大端无符号字节）与链高
type CumulativeDifficulty struct {
	Difficulty       []byte
	BlockchainHeight int32
}

// CumulativeDifficultyFrom 转换累计难度
func CumulativeDifficultyFrom(cd types.CumulativeDifficulty) *CumulativeDifficulty {
	m := &CumulativeDifficulty{BlockchainHeight: cd.Height}
	if cd.Difficulty != nil {
		m.Difficulty = cd.Difficulty.Bytes()
	}
	return m
}

// ToCumulativeDifficulty 转换为 types.CumulativeDifficulty
func (m *CumulativeDifficulty) ToCumulativeDifficulty() types.CumulativeDifficulty {
	return types.CumulativeDifficulty{
		Difficulty: new(big.Int).SetBytes(m.Difficulty),
		Height:     m.BlockchainHeight,
	}
}

// Marshal 实现 Message
func (m *CumulativeDifficulty) Marshal() ([]byte, error) {
	var b []byte
	b = appendBytes(b, 1, m.Difficulty)
	b = appendInt(b, 2, int64(m.BlockchainHeight))
	return b, nil
}

// Unmarshal 实现 Message
func (m *CumulativeDifficulty) Unmarshal(b []byte) error {
	*m = CumulativeDifficulty{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			m.Difficulty = v
			return n, err
		case 2:
			v, n, err := consumeInt(typ, b)
			m.BlockchainHeight = int32(v)
			return n, err
		}
		return -1, nil
	})
}

// ============================================================================
//                              Transaction
// ============================================================================

// Transaction 交易
type Transaction types.Transaction

// Marshal 实现 Message
func (m *Transaction) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint(b, 1, m.ID)
	b = appendUint(b, 2, uint64(m.Type))
	b = appendUint(b, 3, uint64(m.Subtype))
	b = appendUint(b, 4, uint64(m.Version))
	b = appendInt(b, 5, int64(m.Timestamp))
	b = appendInt(b, 6, int64(m.Deadline))
	b = appendBytes(b, 7, m.SenderPublicKey)
	b = appendUint(b, 8, m.RecipientID)
	b = appendInt(b, 9, m.AmountNQT)
	b = appendInt(b, 10, m.FeeNQT)
	b = appendBytes(b, 11, m.Signature)
	b = appendBytes(b, 12, m.Attachment)
	return b, nil
}

// Unmarshal 实现 Message
func (m *Transaction) Unmarshal(b []byte) error {
	*m = Transaction{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1, 2, 3, 4, 8:
			v, n, err := consumeUint(typ, b)
			switch num {
			case 1:
				m.ID = v
			case 2:
				m.Type = uint8(v)
			case 3:
				m.Subtype = uint8(v)
			case 4:
				m.Version = uint8(v)
			case 8:
				m.RecipientID = v
			}
			return n, err
		case 5, 6, 9, 10:
			v, n, err := consumeInt(typ, b)
			switch num {
			case 5:
				m.Timestamp = int32(v)
			case 6:
				m.Deadline = int32(v)
			case 9:
				m.AmountNQT = v
			case 10:
				m.FeeNQT = v
			}
			return n, err
		case 7, 11, 12:
			v, n, err := consumeBytes(typ, b)
			switch num {
			case 7:
				m.SenderPublicKey = v
			case 11:
				m.Signature = v
			case 12:
				m.Attachment = v
			}
			return n, err
		}
		return -1, nil
	})
}

// Transactions 交易列表
type Transactions struct {
	Transactions []*types.Transaction
}

// Marshal 实现 Message
func (m *Transactions) Marshal() ([]byte, error) {
	var (
		b   []byte
		err error
	)
	for _, tx := range m.Transactions {
		if b, err = appendMessage(b, 1, (*Transaction)(tx)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Unmarshal 实现 Message
func (m *Transactions) Unmarshal(b []byte) error {
	*m = Transactions{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		raw, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		tx := new(Transaction)
		if err := tx.Unmarshal(raw); err != nil {
			return 0, err
		}
		m.Transactions = append(m.Transactions, (*types.Transaction)(tx))
		return n, nil
	})
}

// ============================================================================
//                              Block
// ============================================================================

// Block 区块（高度不在线上传输）
type Block types.Block

// Marshal 实现 Message
func (m *Block) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint(b, 1, m.ID)
	b = appendInt(b, 2, int64(m.Version))
	b = appendInt(b, 3, int64(m.Timestamp))
	b = appendUint(b, 4, m.PreviousBlockID)
	b = appendBytes(b, 5, m.PreviousBlockHash)
	b = appendInt(b, 6, m.TotalAmountNQT)
	b = appendInt(b, 7, m.TotalFeeNQT)
	b = appendBytes(b, 8, m.PayloadHash)
	b = appendBytes(b, 9, m.GeneratorPublicKey)
	b = appendBytes(b, 10, m.GenerationSignature)
	b = appendBytes(b, 11, m.BlockSignature)
	b = appendUint(b, 12, m.Nonce)
	b = appendUint(b, 13, m.BaseTarget)
	var err error
	for _, tx := range m.Transactions {
		if b, err = appendMessage(b, 14, (*Transaction)(tx)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Unmarshal 实现 Message
func (m *Block) Unmarshal(b []byte) error {
	*m = Block{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1, 4, 12, 13:
			v, n, err := consumeUint(typ, b)
			switch num {
			case 1:
				m.ID = v
			case 4:
				m.PreviousBlockID = v
			case 12:
				m.Nonce = v
			case 13:
				m.BaseTarget = v
			}
			return n, err
		case 2, 3, 6, 7:
			v, n, err := consumeInt(typ, b)
			switch num {
			case 2:
				m.Version = int32(v)
			case 3:
				m.Timestamp = int32(v)
			case 6:
				m.TotalAmountNQT = v
			case 7:
				m.TotalFeeNQT = v
			}
			return n, err
		case 5, 8, 9, 10, 11:
			v, n, err := consumeBytes(typ, b)
			switch num {
			case 5:
				m.PreviousBlockHash = v
			case 8:
				m.PayloadHash = v
			case 9:
				m.GeneratorPublicKey = v
			case 10:
				m.GenerationSignature = v
			case 11:
				m.BlockSignature = v
			}
			return n, err
		case 14:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			tx := new(Transaction)
			if err := tx.Unmarshal(raw); err != nil {
				return 0, err
			}
			m.Transactions = append(m.Transactions, (*types.Transaction)(tx))
			return n, nil
		}
		return -1, nil
	})
}

// Blocks 区块列表
type Blocks struct {
	Blocks []*types.Block
}

// Marshal 实现 Message
func (m *Blocks) Marshal() ([]byte, error) {
	var (
		b   []byte
		err error
	)
	for _, blk := range m.Blocks {
		if b, err = appendMessage(b, 1, (*Block)(blk)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Unmarshal 实现 Message
func (m *Blocks) Unmarshal(b []byte) error {
	*m = Blocks{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		raw, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		blk := new(Block)
		if err := blk.Unmarshal(raw); err != nil {
			return 0, err
		}
		m.Blocks = append(m.Blocks, (*types.Block)(blk))
		return n, nil
	})
}

// ============================================================================
//                              请求 / ID 列表
// ============================================================================

// GetMilestoneBlockIdsRequest 里程碑请求，两个字段二选一
type GetMilestoneBlockIdsRequest struct {
	LastBlockID          uint64
	LastMilestoneBlockID uint64
}

// Marshal 实现 Message
func (m *GetMilestoneBlockIdsRequest) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint(b, 1, m.LastBlockID)
	b = appendUint(b, 2, m.LastMilestoneBlockID)
	return b, nil
}

// Unmarshal 实现 Message
func (m *GetMilestoneBlockIdsRequest) Unmarshal(b []byte) error {
	*m = GetMilestoneBlockIdsRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint(typ, b)
			m.LastBlockID = v
			return n, err
		case 2:
			v, n, err := consumeUint(typ, b)
			m.LastMilestoneBlockID = v
			return n, err
		}
		return -1, nil
	})
}

// MilestoneBlockIds 里程碑响应
type MilestoneBlockIds struct {
	MilestoneBlockIDs []uint64
	Last              bool
}

// Marshal 实现 Message
func (m *MilestoneBlockIds) Marshal() ([]byte, error) {
	var b []byte
	b = appendPackedUints(b, 1, m.MilestoneBlockIDs)
	b = appendBool(b, 2, m.Last)
	return b, nil
}

// Unmarshal 实现 Message
func (m *MilestoneBlockIds) Unmarshal(b []byte) error {
	*m = MilestoneBlockIds{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			ids, n, err := consumeUints(m.MilestoneBlockIDs, typ, b)
			m.MilestoneBlockIDs = ids
			return n, err
		case 2:
			v, n, err := consumeUint(typ, b)
			m.Last = protowire.DecodeBool(v)
			return n, err
		}
		return -1, nil
	})
}

// GetBlocksAfterRequest getNextBlocks / getNextBlockIds 请求
type GetBlocksAfterRequest struct {
	BlockID uint64
}

// Marshal 实现 Message
func (m *GetBlocksAfterRequest) Marshal() ([]byte, error) {
	return appendUint(nil, 1, m.BlockID), nil
}

// Unmarshal 实现 Message
func (m *GetBlocksAfterRequest) Unmarshal(b []byte) error {
	*m = GetBlocksAfterRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeUint(typ, b)
		m.BlockID = v
		return n, err
	})
}

// BlockIds 区块 ID 列表
type BlockIds struct {
	BlockIDs []uint64
}

// Marshal 实现 Message
func (m *BlockIds) Marshal() ([]byte, error) {
	return appendPackedUints(nil, 1, m.BlockIDs), nil
}

// Unmarshal 实现 Message
func (m *BlockIds) Unmarshal(b []byte) error {
	*m = BlockIds{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		ids, n, err := consumeUints(m.BlockIDs, typ, b)
		m.BlockIDs = ids
		return n, err
	})
}

// Peers 节点地址列表
type Peers struct {
	Addresses []string
}

// Marshal 实现 Message
func (m *Peers) Marshal() ([]byte, error) {
	var b []byte
	for _, a := range m.Addresses {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, a)
	}
	return b, nil
}

// Unmarshal 实现 Message
func (m *Peers) Unmarshal(b []byte) error {
	*m = Peers{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(typ, b)
		m.Addresses = append(m.Addresses, string(v))
		return n, err
	})
}

// ProcessBlockRequest 推送区块
type ProcessBlockRequest struct {
	PreviousBlockID uint64
	Block           *types.Block
}

// Marshal 实现 Message
func (m *ProcessBlockRequest) Marshal() ([]byte, error) {
	b := appendUint(nil, 1, m.PreviousBlockID)
	if m.Block == nil {
		return b, nil
	}
	return appendMessage(b, 2, (*Block)(m.Block))
}

// Unmarshal 实现 Message
func (m *ProcessBlockRequest) Unmarshal(b []byte) error {
	*m = ProcessBlockRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint(typ, b)
			m.PreviousBlockID = v
			return n, err
		case 2:
			raw, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			blk := new(Block)
			if err := blk.Unmarshal(raw); err != nil {
				return 0, err
			}
			m.Block = (*types.Block)(blk)
			return n, nil
		}
		return -1, nil
	})
}

// ProcessBlockResponse 推送区块的结果
type ProcessBlockResponse struct {
	Accepted bool
}

// Marshal 实现 Message
func (m *ProcessBlockResponse) Marshal() ([]byte, error) {
	return appendBool(nil, 1, m.Accepted), nil
}

// Unmarshal 实现 Message
func (m *ProcessBlockResponse) Unmarshal(b []byte) error {
	*m = ProcessBlockResponse{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeUint(typ, b)
		m.Accepted = protowire.DecodeBool(v)
		return n, err
	})
}
