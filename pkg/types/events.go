package types

// PeerEvent 节点生命周期通知
type PeerEvent int

const (
	// EventBlacklist 节点被加入黑名单
	EventBlacklist PeerEvent = iota
	// EventUnblacklist 节点被移出黑名单
	EventUnblacklist
	// EventRemove 节点被移除
	EventRemove
	// EventDownloadedVolume 下载流量变化
	EventDownloadedVolume
	// EventUploadedVolume 上传流量变化
	EventUploadedVolume
	// EventActivated 节点进入或离开 NOT_CONNECTED 状态
	EventActivated
	// EventChanged 节点在两个活跃状态之间变化
	EventChanged
	// EventNewPeer 注册表新增节点
	EventNewPeer
	// EventAddressChanged 节点的公告地址变化
	EventAddressChanged
)

// String 返回事件名
func (e PeerEvent) String() string {
	switch e {
	case EventBlacklist:
		return "blacklist"
	case EventUnblacklist:
		return "unblacklist"
	case EventRemove:
		return "remove"
	case EventDownloadedVolume:
		return "downloaded_volume"
	case EventUploadedVolume:
		return "uploaded_volume"
	case EventActivated:
		return "activated"
	case EventChanged:
		return "changed"
	case EventNewPeer:
		return "new_peer"
	case EventAddressChanged:
		return "address_changed"
	default:
		return "unknown"
	}
}

// AllPeerEvents 返回全部事件类型
func AllPeerEvents() []PeerEvent {
	return []PeerEvent{
		EventBlacklist, EventUnblacklist, EventRemove,
		EventDownloadedVolume, EventUploadedVolume,
		EventActivated, EventChanged, EventNewPeer, EventAddressChanged,
	}
}
