package peer

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dep2p/go-brs/pkg/types"
)

// 节点模块错误定义
var (
	// ErrProtocolMismatch 公告地址的传输协议与节点实例不符
	ErrProtocolMismatch = errors.New("peer: announced address protocol mismatch")

	// ErrNoAddress 既没有公告地址，远程地址也无法解析
	ErrNoAddress = errors.New("peer: could not determine peer address")

	// ErrBadStatus 对端返回非 200 响应
	ErrBadStatus = errors.New("peer: bad http response")

	// ErrBlockNotCached 请求参数所需的区块不在下载缓存中
	ErrBlockNotCached = errors.New("peer: block not found in download cache")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("peer: invalid config")

	// ErrUnsupportedProtocol 未知的传输协议
	ErrUnsupportedProtocol = errors.New("peer: unsupported protocol")
)

// IsConnectionError 判断是否为连接级错误
//
// 沿包装链递归检查：超时、取消、任意 net.Error（包括 *url.Error、*net.OpError、
// *net.DNSError）、连接被拒绝/重置/断开、意外 EOF，以及 gRPC 的
// Unavailable / DeadlineExceeded / Canceled 状态。
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
			return true
		}
	}
	return false
}

// IsBlacklistExempt 判断错误是否属于黑名单豁免集合
//
// 数据尚未生效、区块乱序、存储繁忙（包括被包装的情形）
// 在链重组与启动预热期间会例行出现，不应降低对端信誉。
func IsBlacklistExempt(err error) bool {
	return errors.Is(err, types.ErrNotCurrentlyValid) ||
		errors.Is(err, types.ErrBlockOutOfOrder) ||
		errors.Is(err, types.ErrStorageBusy)
}
