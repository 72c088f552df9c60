package types

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ============================================================================
//                              Protocol - 传输协议
// ============================================================================

// Protocol 节点地址使用的传输协议
type Protocol string

const (
	// ProtocolHTTP 文本传输（JSON over HTTP）
	ProtocolHTTP Protocol = "http"
	// ProtocolGRPC 类型化 RPC 传输（gRPC）
	ProtocolGRPC Protocol = "grpc"
)

const (
	// DefaultHTTPPort HTTP 传输默认端口
	DefaultHTTPPort = 8123
	// DefaultGRPCPort gRPC 传输默认端口
	DefaultGRPCPort = 8121
)

// DefaultPort 返回协议的默认端口
func (p Protocol) DefaultPort() int {
	if p == ProtocolGRPC {
		return DefaultGRPCPort
	}
	return DefaultHTTPPort
}

// IsValid 检查协议是否受支持
func (p Protocol) IsValid() bool {
	return p == ProtocolHTTP || p == ProtocolGRPC
}

// String 返回协议名
func (p Protocol) String() string {
	return string(p)
}

// ParseProtocol 解析协议名（大小写不敏感）
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: unknown protocol %q", ErrInvalidAddress, s)
	}
	return p, nil
}

// ============================================================================
//                              PeerAddress - 节点地址
// ============================================================================

// PeerAddress 节点网络定位符
//
// 解析后不可变。两个地址当且仅当协议、主机、端口都相同时相等，
// 因此可以直接用 == 比较，也可以作为 map 键。
type PeerAddress struct {
	Protocol Protocol
	Host     string
	Port     int
}

// ParsePeerAddress 解析节点地址
//
// 同时接受完整形式 "scheme://host:port" 与裸 "host:port"；
// 缺少 scheme 时使用 defaultProtocol（为空时为 HTTP），缺少端口时使用协议默认端口。
// 主机或端口非法时返回 ErrInvalidAddress。
func ParsePeerAddress(raw string, defaultProtocol Protocol) (PeerAddress, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return PeerAddress{}, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	protocol := defaultProtocol
	if protocol == "" {
		protocol = ProtocolHTTP
	}
	if idx := strings.Index(s, "://"); idx >= 0 {
		p, err := ParseProtocol(s[:idx])
		if err != nil {
			return PeerAddress{}, err
		}
		protocol = p
		s = s[idx+3:]
	} else if !protocol.IsValid() {
		return PeerAddress{}, fmt.Errorf("%w: unknown protocol %q", ErrInvalidAddress, defaultProtocol)
	}

	// 去掉路径部分（如 "/burst"）
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		s = s[:idx]
	}

	host, port, err := splitHostPort(s, protocol.DefaultPort())
	if err != nil {
		return PeerAddress{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, raw, err)
	}

	return PeerAddress{Protocol: protocol, Host: host, Port: port}, nil
}

// MustParsePeerAddress 解析地址，失败时 panic
//
// 仅用于常量与测试。
func MustParsePeerAddress(raw string) PeerAddress {
	addr, err := ParsePeerAddress(raw, ProtocolHTTP)
	if err != nil {
		panic(err)
	}
	return addr
}

// splitHostPort 拆分主机与端口，端口缺失时使用默认值
func splitHostPort(s string, defaultPort int) (string, int, error) {
	if s == "" {
		return "", 0, fmt.Errorf("missing host")
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// 无端口：可能是主机名、IPv4、带括号或裸 IPv6
		host = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		if strings.Contains(host, ":") && net.ParseIP(host) == nil {
			return "", 0, err
		}
		portStr = ""
	}

	host = strings.ToLower(host)
	if !validHost(host) {
		return "", 0, fmt.Errorf("invalid host %q", host)
	}

	if portStr == "" {
		return host, defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

// validHost 校验主机名或 IP
func validHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	if len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return false
			}
		}
	}
	return true
}

// HostPort 返回短格式 "host:port"（IPv6 带括号）
func (a PeerAddress) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// String 返回规范形式 "scheme://host:port"
//
// 规范形式稳定，且可被 ParsePeerAddress 原样解析回来。
func (a PeerAddress) String() string {
	if a.Protocol == "" {
		return a.HostPort()
	}
	return string(a.Protocol) + "://" + a.HostPort()
}

// IsZero 检查是否为零值地址
func (a PeerAddress) IsZero() bool {
	return a == PeerAddress{}
}
