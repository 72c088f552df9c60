package types

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatID 将块/交易 ID 编码为无符号十进制字符串
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseID 解析无符号十进制 ID
func ParseID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty id")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

// ParseIDOrZero 解析 ID，失败时返回 0
//
// 对端提供的 ID 列表中，0 表示"无效"，由调用方过滤。
func ParseIDOrZero(s string) uint64 {
	id, err := ParseID(s)
	if err != nil {
		return 0
	}
	return id
}
