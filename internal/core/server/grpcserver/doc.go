// Package grpcserver 实现类型化 RPC 传输的服务端
//
// 服务 brs.peer.v1.PeerService 的每个方法都委托给 handler.Handler，
// 与文本传输共享同一套语义。调用方按连接的远程主机解析为注册表中的节点，
// 拉黑的调用方收到 PermissionDenied。
//
// 一元拦截器按主机限流并把 panic 转换为 Internal；
// stats 回调把线上字节数计入调用方的下载量与上传量。
package grpcserver
