package peer

import (
	"fmt"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// New 按传输协议创建节点
func New(env Env, protocol types.Protocol, remoteAddress string, announced types.PeerAddress) (interfaces.Peer, error) {
	switch protocol {
	case types.ProtocolHTTP:
		p, err := NewHTTPPeer(env, remoteAddress, announced)
		if err != nil {
			return nil, err
		}
		return p, nil
	case types.ProtocolGRPC:
		p, err := NewGRPCPeer(env, remoteAddress, announced)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, protocol)
	}
}

// NewFromAddress 以解析后的地址创建节点，协议由地址决定
//
// raw 为发现时的原始连接字符串，作为节点的 RemoteAddress 保留；
// 为空时使用规范地址。
func NewFromAddress(env Env, addr types.PeerAddress, raw string) (interfaces.Peer, error) {
	if raw == "" {
		raw = addr.String()
	}
	return New(env, addr.Protocol, raw, types.PeerAddress{})
}
