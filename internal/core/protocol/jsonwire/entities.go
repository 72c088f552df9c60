package jsonwire

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/dep2p/go-brs/pkg/types"
)

// ============================================================================
//                              PeerInfo
// ============================================================================

// PeerInfoJSON 握手载荷
type PeerInfoJSON struct {
	Application      string `json:"application"`
	Version          string `json:"version"`
	Platform         string `json:"platform"`
	ShareAddress     bool   `json:"shareAddress"`
	AnnouncedAddress string `json:"announcedAddress,omitempty"`
}

// PeerInfoToJSON 转换握手载荷
func PeerInfoToJSON(info types.PeerInfo) PeerInfoJSON {
	return PeerInfoJSON(info)
}

// ToPeerInfo 转换为 types.PeerInfo
func (p PeerInfoJSON) ToPeerInfo() types.PeerInfo {
	return types.PeerInfo(p)
}

// ============================================================================
//                              Transaction
// ============================================================================

// TransactionJSON 交易的文本形式
type TransactionJSON struct {
	Transaction     string `json:"transaction"`
	Type            uint8  `json:"type"`
	Subtype         uint8  `json:"subtype"`
	Version         uint8  `json:"version"`
	Timestamp       int32  `json:"timestamp"`
	Deadline        int32  `json:"deadline"`
	SenderPublicKey string `json:"senderPublicKey"`
	Recipient       string `json:"recipient,omitempty"`
	AmountNQT       int64  `json:"amountNQT"`
	FeeNQT          int64  `json:"feeNQT"`
	Signature       string `json:"signature"`
	Attachment      string `json:"attachment,omitempty"`
}

// TransactionToJSON 编码交易
func TransactionToJSON(tx *types.Transaction) TransactionJSON {
	out := TransactionJSON{
		Transaction:     types.FormatID(tx.ID),
		Type:            tx.Type,
		Subtype:         tx.Subtype,
		Version:         tx.Version,
		Timestamp:       tx.Timestamp,
		Deadline:        tx.Deadline,
		SenderPublicKey: hex.EncodeToString(tx.SenderPublicKey),
		AmountNQT:       tx.AmountNQT,
		FeeNQT:          tx.FeeNQT,
		Signature:       hex.EncodeToString(tx.Signature),
		Attachment:      hex.EncodeToString(tx.Attachment),
	}
	if tx.RecipientID != 0 {
		out.Recipient = types.FormatID(tx.RecipientID)
	}
	return out
}

// TransactionsToJSON 编码交易列表
func TransactionsToJSON(txs []*types.Transaction) []TransactionJSON {
	out := make([]TransactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionToJSON(tx))
	}
	return out
}

// ToTransaction 解码交易
func (t TransactionJSON) ToTransaction() (*types.Transaction, error) {
	id, err := types.ParseID(t.Transaction)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction id: %v", ErrMalformed, err)
	}
	tx := &types.Transaction{
		ID:        id,
		Type:      t.Type,
		Subtype:   t.Subtype,
		Version:   t.Version,
		Timestamp: t.Timestamp,
		Deadline:  t.Deadline,
		AmountNQT: t.AmountNQT,
		FeeNQT:    t.FeeNQT,
	}
	if t.Recipient != "" {
		if tx.RecipientID, err = types.ParseID(t.Recipient); err != nil {
			return nil, fmt.Errorf("%w: recipient: %v", ErrMalformed, err)
		}
	}
	if tx.SenderPublicKey, err = decodeHex("senderPublicKey", t.SenderPublicKey); err != nil {
		return nil, err
	}
	if tx.Signature, err = decodeHex("signature", t.Signature); err != nil {
		return nil, err
	}
	if tx.Attachment, err = decodeHex("attachment", t.Attachment); err != nil {
		return nil, err
	}
	return tx, nil
}

// ParseTransactions 解码交易列表
func ParseTransactions(raw []TransactionJSON) ([]*types.Transaction, error) {
	out := make([]*types.Transaction, 0, len(raw))
	for _, t := range raw {
		tx, err := t.ToTransaction()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// ============================================================================
//                              Block
// ============================================================================

// BlockJSON 区块的文本形式
//
// 高度不在线上传输。
type BlockJSON struct {
	Block               string            `json:"block"`
	Version             int32             `json:"version"`
	Timestamp           int32             `json:"timestamp"`
	PreviousBlockID     string            `json:"previousBlockId,omitempty"`
	PreviousBlockHash   string            `json:"previousBlockHash,omitempty"`
	TotalAmountNQT      int64             `json:"totalAmountNQT"`
	TotalFeeNQT         int64             `json:"totalFeeNQT"`
	PayloadHash         string            `json:"payloadHash"`
	GeneratorPublicKey  string            `json:"generatorPublicKey"`
	GenerationSignature string            `json:"generationSignature"`
	BlockSignature      string            `json:"blockSignature"`
	Nonce               string            `json:"nonce"`
	BaseTarget          string            `json:"baseTarget"`
	Transactions        []TransactionJSON `json:"transactions"`
}

// BlockToJSON 编码区块
func BlockToJSON(b *types.Block) BlockJSON {
	out := BlockJSON{
		Block:               types.FormatID(b.ID),
		Version:             b.Version,
		Timestamp:           b.Timestamp,
		PreviousBlockHash:   hex.EncodeToString(b.PreviousBlockHash),
		TotalAmountNQT:      b.TotalAmountNQT,
		TotalFeeNQT:         b.TotalFeeNQT,
		PayloadHash:         hex.EncodeToString(b.PayloadHash),
		GeneratorPublicKey:  hex.EncodeToString(b.GeneratorPublicKey),
		GenerationSignature: hex.EncodeToString(b.GenerationSignature),
		BlockSignature:      hex.EncodeToString(b.BlockSignature),
		Nonce:               strconv.FormatUint(b.Nonce, 10),
		BaseTarget:          strconv.FormatUint(b.BaseTarget, 10),
		Transactions:        TransactionsToJSON(b.Transactions),
	}
	if b.PreviousBlockID != 0 {
		out.PreviousBlockID = types.FormatID(b.PreviousBlockID)
	}
	return out
}

// BlocksToJSON 编码区块列表
func BlocksToJSON(blocks []*types.Block) []BlockJSON {
	out := make([]BlockJSON, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, BlockToJSON(b))
	}
	return out
}

// ToBlock 解码区块并赋予高度
func (b BlockJSON) ToBlock(height int32) (*types.Block, error) {
	id, err := types.ParseID(b.Block)
	if err != nil {
		return nil, fmt.Errorf("%w: block id: %v", ErrMalformed, err)
	}
	block := &types.Block{
		ID:             id,
		Version:        b.Version,
		Timestamp:      b.Timestamp,
		Height:         height,
		TotalAmountNQT: b.TotalAmountNQT,
		TotalFeeNQT:    b.TotalFeeNQT,
	}
	if b.PreviousBlockID != "" {
		if block.PreviousBlockID, err = types.ParseID(b.PreviousBlockID); err != nil {
			return nil, fmt.Errorf("%w: previousBlockId: %v", ErrMalformed, err)
		}
	}
	if block.Nonce, err = parseUint("nonce", b.Nonce); err != nil {
		return nil, err
	}
	if block.BaseTarget, err = parseUint("baseTarget", b.BaseTarget); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *[]byte
	}{
		{"previousBlockHash", b.PreviousBlockHash, &block.PreviousBlockHash},
		{"payloadHash", b.PayloadHash, &block.PayloadHash},
		{"generatorPublicKey", b.GeneratorPublicKey, &block.GeneratorPublicKey},
		{"generationSignature", b.GenerationSignature, &block.GenerationSignature},
		{"blockSignature", b.BlockSignature, &block.BlockSignature},
	} {
		if *f.dst, err = decodeHex(f.name, f.raw); err != nil {
			return nil, err
		}
	}
	if block.Transactions, err = ParseTransactions(b.Transactions); err != nil {
		return nil, err
	}
	return block, nil
}

func decodeHex(field, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return out, nil
}

func parseUint(field, s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return v, nil
}
