// Package metrics 提供 Prometheus 指标
//
// 指标由注册表的节点事件驱动：
//   - brs_peer_events_total{event}: 各类节点事件次数
//   - brs_peer_downloaded_bytes_total / brs_peer_uploaded_bytes_total: 线上字节数
//   - brs_peer_download_rate_bytes / brs_peer_upload_rate_bytes: 最近 60 秒平均速率
//   - brs_peers{state} / brs_peers_blacklisted: 采集时按注册表现状计算
//
// 流量以节点累计量的增量计入，节点被移除后其基线一并丢弃。
//
// # Fx 模块
//
//	app := fx.New(
//	    registry.Module(),
//	    metrics.Module(),
//	    fx.Invoke(func(g prometheus.Gatherer) { ... }),
//	)
//
// 未启用时模块不提供 Gatherer，HTTP 服务端也就不暴露 /metrics。
package metrics
