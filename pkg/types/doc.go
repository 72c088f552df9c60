// Package types 定义 go-brs 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是值类型，用于在各模块间传递数据。
//
// # 文件组织
//
// 基础类型:
//   - address.go  - PeerAddress, Protocol, 地址解析
//   - addrset.go  - AddressSet 地址集合
//   - ids.go      - 无符号长整型 ID 的字符串编解码
//   - version.go  - Version 语义化版本
//   - errors.go   - 公共错误定义（含黑名单豁免错误）
//
// 协议类型:
//   - peerinfo.go - PeerInfo 握手载荷
//   - block.go    - Block, Transaction, CumulativeDifficulty, MilestoneBlockIDs
//
// 状态与事件:
//   - enums.go    - PeerState
//   - events.go   - PeerEvent
package types
