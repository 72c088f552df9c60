package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-brs/internal/core/protocol/handler"
	"github.com/dep2p/go-brs/internal/core/protocol/jsonwire"
	"github.com/dep2p/go-brs/internal/core/server/limiter"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("server/http")

// MetricsPath 指标路径
const MetricsPath = "/metrics"

// Server 文本传输服务端
type Server struct {
	cfg      Config
	handler  *handler.Handler
	limiter  *limiter.Limiter
	gatherer prometheus.Gatherer
	echo     *echo.Echo

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// Option 服务端选项
type Option func(*Server)

// WithGatherer 设置 /metrics 使用的指标来源
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New 创建服务端
func New(cfg Config, h *handler.Handler, opts ...Option) (*Server, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: handler is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		handler: h,
		limiter: limiter.New(cfg.RateLimit, cfg.RateBurst, 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("16M"))

	e.POST(jsonwire.Path, s.handleBurst)
	if cfg.ExposeMetrics && s.gatherer != nil {
		e.GET(MetricsPath, echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	s.echo = e
	return s, nil
}

// ServeHTTP 实现 http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start 开始监听
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("httpserver: listen %s: %w", s.cfg.Listen, err)
	}
	s.listener = ln
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := s.echo.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP 服务异常退出", "error", err)
		}
	}(s.done)

	logger.Info("HTTP 服务已启动", "addr", ln.Addr().String())
	return nil
}

// Addr 实际监听地址
func (s *Server) Addr() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil, ErrNotStarted
	}
	return s.listener.Addr(), nil
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	ln, done := s.listener, s.done
	s.listener, s.done = nil, nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}

	err := s.echo.Shutdown(ctx)
	select {
	case <-done:
	case <-ctx.Done():
	}
	return err
}

// ============================================================================
//                              请求处理
// ============================================================================

func (s *Server) handleBurst(c echo.Context) error {
	req := c.Request()
	host := remoteHost(req.RemoteAddr)

	if !s.limiter.Allow(host) {
		return s.reply(c, http.StatusTooManyRequests, jsonwire.ErrorResponse(ErrRateLimited), nil)
	}

	counter := jsonwire.NewCountingReader(req.Body)
	var raw json.RawMessage
	if err := jsonwire.ReadBody(counter, req.Header.Get("Content-Encoding"), &raw); err != nil {
		return s.reply(c, http.StatusOK, jsonwire.ErrorResponse(err), nil)
	}
	env, err := jsonwire.DecodeEnvelope(raw)
	if err != nil {
		return s.reply(c, http.StatusOK, jsonwire.ErrorResponse(err), nil)
	}

	from, err := s.handler.Resolve(host, types.ProtocolHTTP)
	if err != nil {
		logger.Debug("拒绝请求", "host", host, "request", env.RequestType, "error", err)
		return s.reply(c, http.StatusOK, jsonwire.ErrorResponse(err), nil)
	}
	from.UpdateDownloadedVolume(counter.Count())

	return s.reply(c, http.StatusOK, s.dispatch(from, env.RequestType, raw), from)
}

// reply 编码响应，按阈值压缩，并把字节数计入调用方上传量
func (s *Server) reply(c echo.Context, status int, v any, from interfaces.Peer) error {
	body, err := jsonwire.Marshal(v)
	if err != nil {
		logger.Error("编码响应失败", "error", err)
		return c.NoContent(http.StatusInternalServerError)
	}
	if acceptsGzip(c.Request()) && len(body) > s.cfg.GzipThreshold {
		if gz, err := jsonwire.Gzip(body); err == nil {
			body = gz
			c.Response().Header().Set(echo.HeaderContentEncoding, "gzip")
		}
	}
	if from != nil {
		from.UpdateUploadedVolume(int64(len(body)))
	}
	return c.Blob(status, echo.MIMEApplicationJSON, body)
}

// dispatch 按 requestType 解码请求并调用处理器
func (s *Server) dispatch(from interfaces.Peer, requestType string, raw []byte) any {
	h := s.handler

	switch requestType {
	case jsonwire.RequestGetInfo:
		var req jsonwire.InfoRequest
		if err := jsonwire.Unmarshal(raw, &req); err != nil {
			return jsonwire.ErrorResponse(err)
		}
		my, err := h.GetInfo(from, req.PeerInfoJSON.ToPeerInfo())
		if err != nil {
			return jsonwire.ErrorResponse(err)
		}
		return jsonwire.InfoResponse{PeerInfoJSON: jsonwire.PeerInfoToJSON(my)}

	case jsonwire.RequestGetCumulativeDifficulty:
		cd := h.GetCumulativeDifficulty()
		return jsonwire.CumulativeDifficultyResponse{
			CumulativeDifficulty: cd.Difficulty.String(),
			BlockchainHeight:     cd.Height,
		}

	case jsonwire.RequestGetUnconfirmedTransactions:
		return jsonwire.UnconfirmedTransactionsResponse{
			UnconfirmedTransactions: jsonwire.TransactionsToJSON(h.GetUnconfirmedTransactions()),
		}

	case jsonwire.RequestGetMilestoneBlockIDs:
		var req jsonwire.MilestoneBlockIDsRequest
		if err := jsonwire.Unmarshal(raw, &req); err != nil {
			return jsonwire.ErrorResponse(err)
		}
		lastBlockID, err := optionalID(req.LastBlockID)
		if err != nil {
			return jsonwire.ErrorResponse(err)
		}
		lastMilestoneBlockID, err := optionalID(req.LastMilestoneBlockID)
		if err != nil {
			return jsonwire.ErrorResponse(err)
		}
		m, err := h.GetMilestoneBlockIDs(from, lastBlockID, lastMilestoneBlockID)
		if err != nil {
			return jsonwire.ErrorResponse(err)
		}
		return jsonwire.MilestoneBlockIDsResponse{MilestoneBlockIDs: jsonwire.FormatIDs(m.IDs), Last: m.Last}

	case jsonwire.RequestGetNextBlocks, jsonwire.RequestGetNextBlockIDs:
		var req jsonwire.BlocksAfterRequest
		if err := jsonwire.Unmarshal(raw, &req); err != nil {
			return jsonwire.ErrorResponse(err)
		}
		blockID, err := optionalID(req.BlockID)
		if err != nil {
			return jsonwire.ErrorResponse(err)
		}
		if requestType == jsonwire.RequestGetNextBlockIDs {
			ids, err := h.GetNextBlockIDs(blockID)
			if err != nil {
				return jsonwire.ErrorResponse(err)
			}
			return jsonwire.NextBlockIDsResponse{NextBlockIDs: jsonwire.FormatIDs(ids)}
		}
		blocks, err := h.GetNextBlocks(blockID)
		if err != nil {
			return jsonwire.ErrorResponse(err)
		}
		return jsonwire.NextBlocksResponse{NextBlocks: jsonwire.BlocksToJSON(blocks)}

	case jsonwire.RequestProcessTransactions:
		var req jsonwire.TransactionsRequest
		if err := jsonwire.Unmarshal(raw, &req); err != nil {
			return jsonwire.ErrorResponse(err)
		}
		txs, err := jsonwire.ParseTransactions(req.Transactions)
		if err != nil {
			from.BlacklistWithCause(fmt.Errorf("%w: %v", types.ErrInvalidTransaction, err), "processTransactions")
			return jsonwire.ErrorResponse(err)
		}
		if err := h.ProcessTransactions(from, txs); err != nil {
			return jsonwire.ErrorResponse(err)
		}
		return jsonwire.Status{}

	case jsonwire.RequestProcessBlock:
		var req jsonwire.ProcessBlockRequest
		if err := jsonwire.Unmarshal(raw, &req); err != nil {
			return jsonwire.ErrorResponse(err)
		}
		block, err := req.BlockJSON.ToBlock(0)
		if err != nil {
			from.BlacklistWithCause(fmt.Errorf("%w: %v", types.ErrInvalidBlock, err), "processBlock")
			return jsonwire.ErrorResponse(err)
		}
		return jsonwire.ProcessBlockResponse{Accepted: h.ProcessBlock(from, block)}

	case jsonwire.RequestAddPeers:
		var req jsonwire.PeersRequest
		if err := jsonwire.Unmarshal(raw, &req); err != nil {
			return jsonwire.ErrorResponse(err)
		}
		h.AddPeers(from, req.Peers)
		return jsonwire.Status{}

	case jsonwire.RequestGetPeers:
		return jsonwire.PeersResponse{Peers: h.GetPeers(from)}

	default:
		return jsonwire.ErrorResponse(fmt.Errorf("%w: %q", jsonwire.ErrUnknownRequestType, requestType))
	}
}

// optionalID 解析可选的 ID 字段，空串为 0
func optionalID(s string) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	id, err := types.ParseID(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", jsonwire.ErrMalformed, err)
	}
	return id, nil
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get(echo.HeaderAcceptEncoding)), "gzip")
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
