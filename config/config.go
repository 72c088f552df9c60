// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，提供 DefaultXxxConfig() 与 Validate()
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Peer.WellKnownPeers = []string{"grpc://peer.example.org:8121"}
//
//	// 从文件加载
//	cfg, err := config.LoadFile("brs.json")
package config

// Config 是 go-brs 节点的完整配置结构
//
// 配置按照功能模块组织：
//   - Node: 本节点身份（应用标识、版本、平台、公告地址）
//   - Peer: 对端交互（超时、黑名单、已知节点集合、维护周期）
//   - Server: 入站服务（HTTP 与 gRPC 监听、限流）
//   - Storage: 持久化存储
//   - Sync: 链同步
//   - Metrics: 指标
type Config struct {
	// Node 本节点身份配置
	Node NodeConfig `json:"node"`

	// Peer 对端交互配置
	Peer PeerConfig `json:"peer"`

	// Server 入站服务配置
	Server ServerConfig `json:"server"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage"`

	// Sync 链同步配置
	Sync SyncConfig `json:"sync"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Node:    DefaultNodeConfig(),
		Peer:    DefaultPeerConfig(),
		Server:  DefaultServerConfig(),
		Storage: DefaultStorageConfig(),
		Sync:    DefaultSyncConfig(),
		Metrics: DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return err
	}
	if err := c.Peer.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}
