package brs

import "fmt"

// 构建信息，通过 -ldflags "-X github.com/dep2p/go-brs.GitCommit=..." 注入
var (
	// Version 节点版本
	Version = "v3.0.0"

	// GitCommit 构建提交
	GitCommit = "unknown"

	// BuildDate 构建时间
	BuildDate = "unknown"
)

// VersionInfo 返回单行版本描述
func VersionInfo() string {
	return fmt.Sprintf("go-brs %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
