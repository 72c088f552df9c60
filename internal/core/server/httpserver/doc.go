// Package httpserver 实现文本传输的服务端
//
// 所有请求都是 POST /burst，请求体是带 protocol 与 requestType 的 JSON 信封。
// 调用方按远程主机解析为注册表中的节点；拉黑的调用方只收到错误载荷。
//
// 响应体超过 GzipThreshold 且客户端接受 gzip 时压缩发送。
// 入站请求与响应的字节数计入调用方的下载量与上传量。
//
// 可选地在 /metrics 暴露 Prometheus 指标。
package httpserver
