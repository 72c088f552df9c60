package grpcserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcpeer "google.golang.org/grpc/peer"
	"google.golang.org/grpc/stats"
	"google.golang.org/grpc/status"

	"github.com/dep2p/go-brs/internal/core/protocol/handler"
	"github.com/dep2p/go-brs/internal/core/protocol/rpcwire"
	"github.com/dep2p/go-brs/internal/core/server/limiter"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("server/grpc")

// Server 类型化 RPC 传输服务端
type Server struct {
	cfg     Config
	handler *handler.Handler
	limiter *limiter.Limiter
	grpc    *grpc.Server

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

var _ rpcwire.PeerServiceServer = (*service)(nil)

// New 创建服务端
func New(cfg Config, h *handler.Handler) (*Server, error) {
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
	s.grpc = grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoverInterceptor, s.rateLimitInterceptor),
		grpc.StatsHandler(volumeStats{s: s}),
	)
	rpcwire.RegisterPeerServiceServer(s.grpc, &service{s: s})
	return s, nil
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
		return fmt.Errorf("grpcserver: listen %s: %w", s.cfg.Listen, err)
	}
	s.listener = ln
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := s.grpc.Serve(ln); err != nil {
			logger.Error("gRPC 服务异常退出", "error", err)
		}
	}(s.done)

	logger.Info("gRPC 服务已启动", "addr", ln.Addr().String())
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

// Stop 优雅关闭，ctx 到期后强制关闭
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	ln, done := s.listener, s.done
	s.listener, s.done = nil, nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpc.Stop()
	}
	<-done
	return nil
}

// ============================================================================
//                              调用方
// ============================================================================

// remoteHost 连接的远程主机
func remoteHost(ctx context.Context) (string, error) {
	p, ok := grpcpeer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "", ErrNoPeerInfo
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host, nil
	}
	return addr, nil
}

// caller 解析并校验调用方
func (s *Server) caller(ctx context.Context) (interfaces.Peer, error) {
	host, err := remoteHost(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	from, err := s.handler.Resolve(host, types.ProtocolGRPC)
	if err != nil {
		return nil, toStatus(err)
	}
	return from, nil
}

// ============================================================================
//                              拦截器
// ============================================================================

func (s *Server) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
	host, err := remoteHost(ctx)
	if err == nil && !s.limiter.Allow(host) {
		return nil, status.Error(codes.ResourceExhausted, "rate limited")
	}
	return next(ctx, req)
}

func recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("gRPC 处理器 panic", "method", info.FullMethod, "panic", r)
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return next(ctx, req)
}

// ============================================================================
//                              线上字节统计
// ============================================================================

type callerKey struct{}

// volumeStats 把线上字节数计入调用方
type volumeStats struct {
	s *Server
}

var _ stats.Handler = volumeStats{}

// TagRPC 解析调用方并附加到上下文（黑名单中的调用方同样计数）
func (v volumeStats) TagRPC(ctx context.Context, _ *stats.RPCTagInfo) context.Context {
	host, err := remoteHost(ctx)
	if err != nil {
		return ctx
	}
	from, _ := v.s.handler.Resolve(host, types.ProtocolGRPC)
	if from == nil {
		return ctx
	}
	return context.WithValue(ctx, callerKey{}, from)
}

// HandleRPC 实现 stats.Handler
func (volumeStats) HandleRPC(ctx context.Context, rs stats.RPCStats) {
	from, ok := ctx.Value(callerKey{}).(interfaces.Peer)
	if !ok {
		return
	}
	switch st := rs.(type) {
	case *stats.InPayload:
		from.UpdateDownloadedVolume(int64(st.WireLength))
	case *stats.OutPayload:
		from.UpdateUploadedVolume(int64(st.WireLength))
	}
}

// TagConn 实现 stats.Handler
func (volumeStats) TagConn(ctx context.Context, _ *stats.ConnTagInfo) context.Context {
	return ctx
}

// HandleConn 实现 stats.Handler
func (volumeStats) HandleConn(context.Context, stats.ConnStats) {}
