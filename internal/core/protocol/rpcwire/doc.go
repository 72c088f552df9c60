// Package rpcwire 实现类型化 RPC 传输（gRPC）的服务定义与消息编码
//
// 服务 brs.peer.v1.PeerService 为每种同步交换提供一个一元方法：
//
//	ExchangeInfo               PeerInfo                    -> PeerInfo
//	GetCumulativeDifficulty    Empty                       -> CumulativeDifficulty
//	GetUnconfirmedTransactions Empty                       -> Transactions
//	GetMilestoneBlockIds       GetMilestoneBlockIdsRequest -> MilestoneBlockIds
//	AddUnconfirmedTransactions Transactions                -> Empty
//	GetNextBlocks              GetBlocksAfterRequest       -> Blocks
//	GetNextBlockIds            GetBlocksAfterRequest       -> BlockIds
//	AddPeers                   Peers                       -> Empty
//	GetPeers                   Empty                       -> Peers
//	AddBlock                   ProcessBlockRequest         -> ProcessBlockResponse
//
// 消息使用 protobuf 线上格式，直接通过 protowire 编解码；
// 编解码器以 content-subtype "brsproto" 注册到 gRPC。
package rpcwire
