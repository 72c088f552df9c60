package jsonwire

import "errors"

// 文本协议错误定义
var (
	// ErrMalformed 载荷无法解析或缺少必需字段
	ErrMalformed = errors.New("jsonwire: malformed payload")

	// ErrUnknownRequestType 未知的 requestType
	ErrUnknownRequestType = errors.New("jsonwire: unknown request type")

	// ErrUnsupportedProtocol 请求的 protocol 字段不是 B1
	ErrUnsupportedProtocol = errors.New("jsonwire: unsupported protocol")
)
