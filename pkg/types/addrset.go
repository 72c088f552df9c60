package types

import "sort"

// AddressSet 节点地址集合
//
// 构造后只读，可在多个 goroutine 间共享。
type AddressSet struct {
	m map[PeerAddress]struct{}
}

// NewAddressSet 从地址列表创建集合
func NewAddressSet(addrs ...PeerAddress) AddressSet {
	m := make(map[PeerAddress]struct{}, len(addrs))
	for _, a := range addrs {
		m[a] = struct{}{}
	}
	return AddressSet{m: m}
}

// ParseAddressSet 从字符串列表创建集合
//
// 无法解析的条目被丢弃，并在第二个返回值中列出。
func ParseAddressSet(raw []string, defaultProtocol Protocol) (AddressSet, []string) {
	var (
		addrs   []PeerAddress
		invalid []string
	)
	for _, s := range raw {
		addr, err := ParsePeerAddress(s, defaultProtocol)
		if err != nil {
			invalid = append(invalid, s)
			continue
		}
		addrs = append(addrs, addr)
	}
	return NewAddressSet(addrs...), invalid
}

// Contains 检查地址是否在集合中
func (s AddressSet) Contains(a PeerAddress) bool {
	_, ok := s.m[a]
	return ok
}

// Len 返回集合大小
func (s AddressSet) Len() int {
	return len(s.m)
}

// Slice 返回按规范字符串排序的地址列表
func (s AddressSet) Slice() []PeerAddress {
	out := make([]PeerAddress, 0, len(s.m))
	for a := range s.m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
