package httpserver

import "errors"

// HTTP 服务端错误定义
var (
	// ErrRateLimited 调用方超过速率限制
	ErrRateLimited = errors.New("httpserver: rate limited")

	// ErrNotStarted 服务未启动
	ErrNotStarted = errors.New("httpserver: not started")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("httpserver: invalid config")
)
