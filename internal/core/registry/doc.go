// Package registry 实现节点注册表
//
// Registry 以规范地址为键保存全部已知节点，实现 interfaces.PeerManager：
// 节点构造时拿到的就是这个窄接口，用来读取配置集合（知名节点、重播目标、
// 永久黑名单）、超时参数，并上报生命周期事件。
//
// # 维护循环
//
// Start 之后按 MaintenanceInterval 周期执行 Maintain：
//
//  1. 对所有节点调用 UpdateBlacklistedStatus，到期的黑名单自动解除
//  2. 对未连接、未拉黑的节点并发握手，活跃节点数不超过 MaxConnectedPeers
//  3. 启用 GetMorePeers 时随机选择一个已连接节点交换地址
//
// # 持久化
//
// 启用 SavePeers 且注入了存储时，Start 载入上次保存的地址，
// Stop 把当前未拉黑节点的地址写回。
//
// # 事件
//
// 监听器在触发事件的 goroutine 上同步执行，调用时不持有注册表或节点的锁，
// 因此监听器可以回调注册表。
package registry
