package peer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptrace"

	"github.com/dep2p/go-brs/internal/core/protocol/jsonwire"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// ============================================================================
//                              HTTPPeer - 文本传输
// ============================================================================

// HTTPPeer 通过 JSON over HTTP 通信的节点
type HTTPPeer struct {
	*core
	client *http.Client
}

var _ interfaces.Peer = (*HTTPPeer)(nil)

// NewHTTPPeer 创建 HTTP 节点
//
// announced 为零值表示没有公告地址；非零时必须是 HTTP 地址。
func NewHTTPPeer(env Env, remoteAddress string, announced types.PeerAddress) (*HTTPPeer, error) {
	env, err := env.withDefaults()
	if err != nil {
		return nil, err
	}
	c, err := newCore(env, types.ProtocolHTTP, remoteAddress, announced)
	if err != nil {
		return nil, err
	}

	client := env.HTTPClient
	if client == nil {
		client = newHTTPClient(env.Registry)
	}

	p := &HTTPPeer{core: c, client: client}
	c.self = p
	c.onFailure = c.downgrade
	return p, nil
}

// newHTTPClient 按注册表超时创建客户端
//
// 每次请求使用新连接；压缩由调用方自行处理，以便统计线上字节数。
func newHTTPClient(reg interfaces.Registry) *http.Client {
	dialer := &net.Dialer{Timeout: reg.ConnectTimeout()}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			ResponseHeaderTimeout: reg.ReadTimeout(),
			DisableKeepAlives:     true,
			DisableCompression:    true,
		},
	}
}

// Close 释放空闲连接
func (p *HTTPPeer) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// send 发送请求并解码响应
//
// 上传量为写出的请求体字节数，下载量为收到的原始（可能压缩的）响应体字节数。
func (p *HTTPPeer) send(ctx context.Context, request any, response jsonwire.Response) error {
	body, err := jsonwire.Marshal(request)
	if err != nil {
		return err
	}

	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				p.UpdateUploadedVolume(int64(len(body)))
			}
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Address().String()+jsonwire.Path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", p.env.Config.Application+"/"+p.env.Config.Version.String())
	req.Close = true

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	counter := jsonwire.NewCountingReader(resp.Body)
	defer func() {
		_, _ = io.Copy(io.Discard, counter)
		p.UpdateDownloadedVolume(counter.Count())
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	if err := jsonwire.ReadBody(counter, resp.Header.Get("Content-Encoding"), response); err != nil {
		return err
	}
	return response.Err()
}

// ==================== 握手 ====================

// Connect 握手
func (p *HTTPPeer) Connect(ctx context.Context) bool {
	return p.connect(ctx, p.ExchangeInfo)
}

// ExchangeInfo 交换握手载荷
func (p *HTTPPeer) ExchangeInfo(ctx context.Context) (types.PeerInfo, bool) {
	return call(ctx, p.core, "exchange info", func(ctx context.Context) (types.PeerInfo, error) {
		req := jsonwire.InfoRequest{
			Envelope:     jsonwire.NewEnvelope(jsonwire.RequestGetInfo),
			PeerInfoJSON: jsonwire.PeerInfoToJSON(p.env.Registry.MyPeerInfo(types.ProtocolHTTP)),
		}
		var resp jsonwire.InfoResponse
		if err := p.send(ctx, req, &resp); err != nil {
			return types.PeerInfo{}, err
		}
		return resp.ToPeerInfo(), nil
	})
}

// ==================== 查询 ====================

// GetCumulativeDifficulty 查询累计难度
func (p *HTTPPeer) GetCumulativeDifficulty(ctx context.Context) (types.CumulativeDifficulty, bool) {
	return call(ctx, p.core, "get cumulative difficulty", func(ctx context.Context) (types.CumulativeDifficulty, error) {
		var resp jsonwire.CumulativeDifficultyResponse
		if err := p.send(ctx, jsonwire.NewEnvelope(jsonwire.RequestGetCumulativeDifficulty), &resp); err != nil {
			return types.CumulativeDifficulty{}, err
		}
		d, ok := new(big.Int).SetString(resp.CumulativeDifficulty, 10)
		if !ok {
			return types.CumulativeDifficulty{}, fmt.Errorf("%w: cumulativeDifficulty %q", jsonwire.ErrMalformed, resp.CumulativeDifficulty)
		}
		return types.CumulativeDifficulty{Difficulty: d, Height: resp.BlockchainHeight}, nil
	})
}

// GetUnconfirmedTransactions 拉取未确认交易
func (p *HTTPPeer) GetUnconfirmedTransactions(ctx context.Context) ([]*types.Transaction, bool) {
	return call(ctx, p.core, "get unconfirmed transactions", func(ctx context.Context) ([]*types.Transaction, error) {
		var resp jsonwire.UnconfirmedTransactionsResponse
		if err := p.send(ctx, jsonwire.NewEnvelope(jsonwire.RequestGetUnconfirmedTransactions), &resp); err != nil {
			return nil, err
		}
		return jsonwire.ParseTransactions(resp.UnconfirmedTransactions)
	})
}

// GetMilestoneBlockIDs 以下载缓存的最后块 ID 开始里程碑协商
func (p *HTTPPeer) GetMilestoneBlockIDs(ctx context.Context) (types.MilestoneBlockIDs, bool) {
	return p.milestoneBlockIDs(ctx, jsonwire.MilestoneBlockIDsRequest{
		Envelope:    jsonwire.NewEnvelope(jsonwire.RequestGetMilestoneBlockIDs),
		LastBlockID: types.FormatID(p.env.Cache.LastBlockID()),
	})
}

// GetMilestoneBlockIDsFrom 以上一轮最后的里程碑 ID 继续协商
func (p *HTTPPeer) GetMilestoneBlockIDsFrom(ctx context.Context, lastMilestoneBlockID uint64) (types.MilestoneBlockIDs, bool) {
	return p.milestoneBlockIDs(ctx, jsonwire.MilestoneBlockIDsRequest{
		Envelope:             jsonwire.NewEnvelope(jsonwire.RequestGetMilestoneBlockIDs),
		LastMilestoneBlockID: types.FormatID(lastMilestoneBlockID),
	})
}

func (p *HTTPPeer) milestoneBlockIDs(ctx context.Context, req jsonwire.MilestoneBlockIDsRequest) (types.MilestoneBlockIDs, bool) {
	return call(ctx, p.core, "get milestone block ids", func(ctx context.Context) (types.MilestoneBlockIDs, error) {
		var resp jsonwire.MilestoneBlockIDsResponse
		if err := p.send(ctx, req, &resp); err != nil {
			return types.MilestoneBlockIDs{}, err
		}
		return types.MilestoneBlockIDs{
			IDs:  jsonwire.ParseIDs(resp.MilestoneBlockIDs, 0),
			Last: resp.Last,
		}, nil
	})
}

// GetNextBlocks 拉取 lastBlockID 之后的区块
func (p *HTTPPeer) GetNextBlocks(ctx context.Context, lastBlockID uint64) ([]*types.Block, bool) {
	return call(ctx, p.core, "get next blocks", func(ctx context.Context) ([]*types.Block, error) {
		height, err := p.nextBlockHeight(lastBlockID)
		if err != nil {
			return nil, err
		}
		req := jsonwire.BlocksAfterRequest{
			Envelope: jsonwire.NewEnvelope(jsonwire.RequestGetNextBlocks),
			BlockID:  types.FormatID(lastBlockID),
		}
		var resp jsonwire.NextBlocksResponse
		if err := p.send(ctx, req, &resp); err != nil {
			return nil, err
		}

		raw := truncate(resp.NextBlocks, p.env.Config.MaxReceivedBlocks)
		blocks := make([]*types.Block, 0, len(raw))
		for i, b := range raw {
			block, err := b.ToBlock(height + int32(i))
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
		return blocks, nil
	})
}

// GetNextBlockIDs 拉取 lastBlockID 之后的区块 ID
func (p *HTTPPeer) GetNextBlockIDs(ctx context.Context, lastBlockID uint64) ([]uint64, bool) {
	return call(ctx, p.core, "get next block ids", func(ctx context.Context) ([]uint64, error) {
		req := jsonwire.BlocksAfterRequest{
			Envelope: jsonwire.NewEnvelope(jsonwire.RequestGetNextBlockIDs),
			BlockID:  types.FormatID(lastBlockID),
		}
		var resp jsonwire.NextBlockIDsResponse
		if err := p.send(ctx, req, &resp); err != nil {
			return nil, err
		}
		return jsonwire.ParseIDs(resp.NextBlockIDs, p.env.Config.MaxReceivedBlocks), nil
	})
}

// GetPeers 获取对端已知节点
func (p *HTTPPeer) GetPeers(ctx context.Context) ([]types.PeerAddress, bool) {
	return call(ctx, p.core, "get peers", func(ctx context.Context) ([]types.PeerAddress, error) {
		var resp jsonwire.PeersResponse
		if err := p.send(ctx, jsonwire.NewEnvelope(jsonwire.RequestGetPeers), &resp); err != nil {
			return nil, err
		}
		return ParseGossipAddresses(resp.Peers), nil
	})
}

// ==================== 推送 ====================

// SendUnconfirmedTransactions 推送未确认交易
func (p *HTTPPeer) SendUnconfirmedTransactions(ctx context.Context, txs []*types.Transaction) {
	call(ctx, p.core, "send unconfirmed transactions", func(ctx context.Context) (struct{}, error) {
		req := jsonwire.TransactionsRequest{
			Envelope:     jsonwire.NewEnvelope(jsonwire.RequestProcessTransactions),
			Transactions: jsonwire.TransactionsToJSON(txs),
		}
		return struct{}{}, p.send(ctx, req, &jsonwire.Status{})
	})
}

// SendBlock 推送区块，返回对端是否接受
func (p *HTTPPeer) SendBlock(ctx context.Context, block *types.Block) bool {
	accepted, ok := call(ctx, p.core, "send block", func(ctx context.Context) (bool, error) {
		req := jsonwire.ProcessBlockRequest{
			Envelope:  jsonwire.NewEnvelope(jsonwire.RequestProcessBlock),
			BlockJSON: jsonwire.BlockToJSON(block),
		}
		var resp jsonwire.ProcessBlockResponse
		if err := p.send(ctx, req, &resp); err != nil {
			return false, err
		}
		return resp.Accepted, nil
	})
	return ok && accepted
}

// AddPeers 向对端推送节点地址
func (p *HTTPPeer) AddPeers(ctx context.Context, addrs []types.PeerAddress) {
	call(ctx, p.core, "send peers", func(ctx context.Context) (struct{}, error) {
		req := jsonwire.PeersRequest{
			Envelope: jsonwire.NewEnvelope(jsonwire.RequestAddPeers),
			Peers:    p.gossipAddresses(addrs),
		}
		return struct{}{}, p.send(ctx, req, &jsonwire.Status{})
	})
}
