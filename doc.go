// Package brs 提供 BRS 节点对等层的入口
//
// Node 把节点注册表、两种入站服务（JSON/HTTP 与 gRPC）、链同步与指标
// 组装在一起，由 go.uber.org/fx 管理各子系统的生命周期。
//
// # 快速开始
//
//	node, err := brs.Start(ctx,
//	    brs.WithConfigFile("brs.json"),
//	    brs.WithDataDir("./data"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	peer, _ := node.AddPeer("grpc://1.2.3.4")
//	result, err := node.SyncOnce(ctx)
//
// # 子系统
//
// 按启动顺序：
//
//	storage     BadgerDB，保存已知节点地址
//	registry    节点注册表与维护循环
//	httpserver  POST /burst（以及可选的 /metrics）
//	grpcserver  brs.peer.v1.PeerService
//	chainsync   后台区块同步
//
// 停止时按相反顺序关闭。从未启动的子系统在停止时记录为跳过，
// 不会产生错误。
package brs
