// Package lib 包含与架构组件无关的基础设施工具库
//
//   - log: 基于 log/slog 的组件 logger
package lib
