// Package storage 提供节点的持久化存储服务
//
// Storage 模块基于 BadgerDB 实现，为注册表提供键值存储后端，
// 不同数据通过 Key 前缀隔离。
//
// # 架构
//
//	┌─────────────────────────────────────────────┐
//	│              registry（使用方）             │
//	└─────────────────────────────────────────────┘
//	                     │
//	                     ▼
//	┌─────────────────────────────────────────────┐
//	│  PeerDB       已知节点地址（p/a/ 前缀）      │
//	├─────────────────────────────────────────────┤
//	│  Engine       BadgerDB 封装（磁盘或内存）    │
//	└─────────────────────────────────────────────┘
//
// # 键空间设计
//
//	前缀     | 使用方     | 说明
//	---------|------------|------------------
//	p/a/     | PeerDB     | 已知节点的规范地址
//
// # 错误
//
// BadgerDB 的事务冲突与写入阻塞被映射为 types.ErrStorageBusy，
// 调用方可据此判断为暂时性失败（该错误不会导致对端被加入黑名单）。
//
// # 线程安全
//
// 所有公开的类型和方法都是线程安全的。
package storage
