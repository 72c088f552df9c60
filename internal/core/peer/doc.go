// Package peer 实现远程节点（Peer）
//
// # 两种传输
//
//   - HTTPPeer: JSON over HTTP，POST <address>/burst，响应可 gzip 压缩
//   - GRPCPeer: gRPC 一元调用，通道懒建立并按节点缓存，公告地址变化时重建
//
// 两者共享同一个 core（状态机、握手字段、流量计数、黑名单），
// 网络交换之外的行为完全一致。
//
// # 状态机
//
//	NOT_CONNECTED --connect()--> CONNECTED --调用失败(仅 HTTP)--> DISCONNECTED
//	      ^                          |
//	      +--- blacklist() / unBlacklist() / 地址更新 ---+
//
// 进入或离开 NOT_CONNECTED 触发 EventActivated，
// 两个活跃状态之间的变化触发 EventChanged。
// 所有通知都在释放锁之后派发，回调可以安全地重新进入节点。
//
// # 失败处理
//
// 网络操作从不向调用方返回错误，失败时返回缺席结果（ok == false）：
//   - 连接级错误（超时、拒绝连接、连接重置）只记录 Debug 日志
//   - 其他错误记录 Warn 日志
//
// 是否加入黑名单由调用方（同步编排器）通过 BlacklistWithCause 决定，
// 见 IsConnectionError 与豁免错误集合。
//
// # 超时
//
// 每次调用的截止时间为注册表提供的 ConnectTimeout + ReadTimeout；
// 调用方传入的 context 只能缩短它。
package peer
