// Package jsonwire 实现文本传输（JSON over HTTP）的线上格式
//
// 每次交换为一个 POST 请求与一个响应对象：
//
//	POST <address>/burst
//	{"protocol":"B1","requestType":"getCumulativeDifficulty"}
//
//	{"cumulativeDifficulty":"123456789","blockchainHeight":42}
//
// 块与交易 ID 是无符号 64 位整数，在线上以十进制字符串传输；
// 二进制字段（公钥、签名、哈希）以小写十六进制传输。
//
// 响应可以 gzip 压缩（请求携带 Accept-Encoding: gzip）。
// 任何响应都可以携带 "error" 字段表示对端的应用层错误。
package jsonwire
