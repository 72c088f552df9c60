// Package chain 提供内存区块链参考实现
//
// MemoryChain 同时实现 interfaces.Blockchain、interfaces.BlockProcessor 与
// interfaces.TransactionProcessor，供节点默认装配、测试与演示命令使用。
// 它只做同步层关心的结构校验（前驱、时间戳、签名字段是否存在），
// 不执行账本语义。
//
// 累计难度按 2^64 / baseTarget 逐块累加。
package chain
