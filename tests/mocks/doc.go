// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockRegistry: 模拟 interfaces.Registry，记录节点事件与注册表回调
//   - MockDownloadCache: 模拟 interfaces.DownloadCache
//   - MockPeer: 模拟 interfaces.Peer，用于服务端处理器与同步编排器
//   - MockBlockProcessor / MockTransactionProcessor: 模拟区块与交易处理
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
// 3. 零值可用: 未注入行为时返回合理的默认值
//
// # 使用示例
//
//	reg := mocks.NewMockRegistry()
//	reg.Blacklisted = types.NewAddressSet(types.MustParsePeerAddress("1.2.3.4"))
//
//	p, _ := peer.NewHTTPPeer(peer.Env{Registry: reg, Cache: mocks.NewMockDownloadCache()}, "1.2.3.4", types.PeerAddress{})
//	require.True(t, p.IsBlacklisted())
//	require.Empty(t, reg.Events())
package mocks
