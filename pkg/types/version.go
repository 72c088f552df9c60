package types

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version 节点软件版本（语义化版本，形如 v3.0.0 或 v3.0.0-dev）
//
// 零值表示空版本，比任何有效版本都小。
type Version struct {
	raw string
}

// EmptyVersion 空版本
var EmptyVersion = Version{}

// ParseVersion 解析版本字符串
//
// 允许省略前缀 "v"。
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EmptyVersion, fmt.Errorf("%w: empty", ErrInvalidVersion)
	}
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	if !semver.IsValid(s) {
		return EmptyVersion, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	return Version{raw: semver.Canonical(s)}, nil
}

// MustParseVersion 解析版本，失败时 panic
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsEmpty 是否为空版本
func (v Version) IsEmpty() bool {
	return v.raw == ""
}

// Compare 比较版本，返回 -1/0/1
func (v Version) Compare(other Version) int {
	switch {
	case v.IsEmpty() && other.IsEmpty():
		return 0
	case v.IsEmpty():
		return -1
	case other.IsEmpty():
		return 1
	}
	return semver.Compare(v.raw, other.raw)
}

// IsGreaterThan v > other
func (v Version) IsGreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// IsGreaterThanOrEqual v >= other
func (v Version) IsGreaterThanOrEqual(other Version) bool {
	return v.Compare(other) >= 0
}

// String 返回规范字符串，空版本返回 ""
func (v Version) String() string {
	return v.raw
}
