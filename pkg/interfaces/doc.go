// Package interfaces 定义 go-brs 的公共接口
//
// 一个接口文件对应一组协作者：
//   - peer.go     - Peer 节点契约（两种传输实现相同的操作集）
//   - registry.go - Registry 节点注册表（Peer 依赖的窄接口）与 PeerManager（完整注册表）
//   - chain.go    - Blockchain / BlockProcessor / TransactionProcessor / DownloadCache
//
// 账本存储、共识校验、合约虚拟机等属于外部协作者，
// 仅通过本包定义的窄接口被消费。
package interfaces
