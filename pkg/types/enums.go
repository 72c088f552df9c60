package types

// ============================================================================
//                              PeerState - 节点连接状态
// ============================================================================

// PeerState 节点连接状态
type PeerState int

const (
	// PeerStateNotConnected 未连接（初始状态）
	PeerStateNotConnected PeerState = iota
	// PeerStateConnected 已完成握手
	PeerStateConnected
	// PeerStateDisconnected 之前已连接、刚刚调用失败（仅 HTTP 传输）
	PeerStateDisconnected
)

// String 返回状态的字符串表示
func (s PeerState) String() string {
	switch s {
	case PeerStateNotConnected:
		return "NOT_CONNECTED"
	case PeerStateConnected:
		return "CONNECTED"
	case PeerStateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}
