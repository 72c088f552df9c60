package grpcserver

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dep2p/go-brs/internal/core/protocol/handler"
)

// gRPC 服务端错误定义
var (
	// ErrNoPeerInfo 上下文中没有连接信息
	ErrNoPeerInfo = errors.New("grpcserver: no peer in context")

	// ErrNotStarted 服务未启动
	ErrNotStarted = errors.New("grpcserver: not started")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("grpcserver: invalid config")
)

// toStatus 把处理器错误映射为 gRPC 状态
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Internal
	switch {
	case errors.Is(err, handler.ErrBlacklisted):
		code = codes.PermissionDenied
	case errors.Is(err, handler.ErrUnknownBlock), errors.Is(err, handler.ErrUnknownMilestone):
		code = codes.NotFound
	case errors.Is(err, handler.ErrMissingParameter):
		code = codes.InvalidArgument
	case errors.Is(err, handler.ErrOldProtocol):
		code = codes.FailedPrecondition
	}
	return status.Error(code, err.Error())
}
