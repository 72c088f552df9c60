package types

// PeerInfo 握手载荷
//
// 由一方产生、另一方消费，不持久化。
// Version 保持对端上报的原始字符串，由 Peer 在赋值时解析。
type PeerInfo struct {
	Application      string
	Version          string
	Platform         string
	ShareAddress     bool
	AnnouncedAddress string
}
