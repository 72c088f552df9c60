// Package chainsync 实现调用方一侧的同步驱动
//
// 包含三部分：
//   - 协商：FindCommonMilestone 迭代 getMilestoneBlockIds 找到双方都有的里程碑，
//     FindCommonBlock 再用 getNextBlockIds 把它细化为最后一个公共区块
//   - 下载：Downloader 选出累计难度最高的节点，协商、拉取区块放入下载缓存，
//     必要时回滚到公共区块后逐个上链；失败按原因拉黑对端
//   - 广播：Broadcaster 并发地把区块推送给已连接节点，把交易推送给
//     已连接节点与重播目标
//
// # 生命周期
//
// Module 在启用时运行后台循环，每个周期执行一次 SyncOnce 与 SyncTransactions。
package chainsync
