// Package handler 实现与传输无关的入站请求处理
//
// HTTP（/burst）与 gRPC 服务端把请求解码为领域类型后调用 Handler，
// 再把结果编码回各自的线上格式。两种传输因此共享同一套语义：
//
//   - getInfo：采纳调用方的握手载荷，返回本节点载荷
//   - getMilestoneBlockIds：里程碑回溯，见 milestone.go
//   - getNextBlocks / getNextBlockIds：按配置上限截断
//   - processBlock：前驱不是链尖时直接拒绝，不拉黑；校验失败按原因拉黑
//   - processTransactions：失败按原因拉黑
//   - addPeers / getPeers：节点地址传播
//
// 调用方通过 Resolve 按远程主机解析为注册表中的节点；
// 处于黑名单中的调用方得到 ErrBlacklisted。
package handler
