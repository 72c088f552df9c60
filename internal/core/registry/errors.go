package registry

import "errors"

// 注册表错误定义
var (
	// ErrSelfAddress 地址指向本节点
	ErrSelfAddress = errors.New("registry: address is our own")

	// ErrClosed 注册表已关闭
	ErrClosed = errors.New("registry: closed")

	// ErrAlreadyStarted 维护循环已启动
	ErrAlreadyStarted = errors.New("registry: already started")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("registry: invalid config")
)
