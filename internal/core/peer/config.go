package peer

import (
	"fmt"
	"net/http"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// 默认常量
const (
	// DefaultApplication 本节点应用标识
	DefaultApplication = "BRS"

	// DefaultMaxReceivedBlocks 单次 getNextBlocks / getNextBlockIds 接收的上限
	DefaultMaxReceivedBlocks = 720
)

// 默认版本
var (
	// DefaultVersion 本节点版本
	DefaultVersion = types.MustParseVersion("v3.0.0")

	// DefaultMinVersion 可接受的最低对端版本
	DefaultMinVersion = types.MustParseVersion("v2.5.0")

	// DefaultNewPeerAPIMinVersion 支持完整地址格式的最低对端版本
	DefaultNewPeerAPIMinVersion = types.MustParseVersion("v3.0.0")
)

// Config 节点行为配置
type Config struct {
	// Application 本节点应用标识，仅当对端应用标识相同时才检查版本
	Application string

	// Version 本节点版本
	Version types.Version

	// MinVersion 可接受的最低对端版本
	MinVersion types.Version

	// NewPeerAPIMinVersion 低于此版本的对端只接收 host:port 形式的地址
	NewPeerAPIMinVersion types.Version

	// MaxReceivedBlocks 单次接收的区块/ID 上限
	MaxReceivedBlocks int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Application:          DefaultApplication,
		Version:              DefaultVersion,
		MinVersion:           DefaultMinVersion,
		NewPeerAPIMinVersion: DefaultNewPeerAPIMinVersion,
		MaxReceivedBlocks:    DefaultMaxReceivedBlocks,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Application == "" {
		return fmt.Errorf("%w: empty application", ErrInvalidConfig)
	}
	if c.Version.IsEmpty() || c.MinVersion.IsEmpty() || c.NewPeerAPIMinVersion.IsEmpty() {
		return fmt.Errorf("%w: versions must be set", ErrInvalidConfig)
	}
	if c.MaxReceivedBlocks <= 0 {
		return fmt.Errorf("%w: max received blocks must be positive", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建节点配置
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return DefaultConfig(), nil
	}
	out := Config{
		Application:       cfg.Node.Application,
		MaxReceivedBlocks: cfg.Peer.MaxReceivedBlocks,
	}
	var err error
	if out.Version, err = types.ParseVersion(cfg.Node.Version); err != nil {
		return Config{}, err
	}
	if out.MinVersion, err = types.ParseVersion(cfg.Peer.MinVersion); err != nil {
		return Config{}, err
	}
	if out.NewPeerAPIMinVersion, err = types.ParseVersion(cfg.Peer.NewPeerAPIMinVersion); err != nil {
		return Config{}, err
	}
	return out, out.Validate()
}

// ============================================================================
//                              Env - 构造依赖
// ============================================================================

// Env 节点构造所需的协作者
type Env struct {
	// Registry 节点注册表（必需）
	Registry interfaces.Registry

	// Cache 下载缓存（必需）
	Cache interfaces.DownloadCache

	// Clock 时钟，nil 时使用系统时钟
	Clock clock.Clock

	// HTTPClient 文本传输使用的客户端，nil 时按注册表超时创建
	HTTPClient *http.Client

	// Config 行为配置，零值时使用默认配置
	Config Config
}

// withDefaults 校验必需字段并填充默认值
func (e Env) withDefaults() (Env, error) {
	if e.Registry == nil {
		return e, fmt.Errorf("%w: registry is required", ErrInvalidConfig)
	}
	if e.Cache == nil {
		return e, fmt.Errorf("%w: download cache is required", ErrInvalidConfig)
	}
	if e.Clock == nil {
		e.Clock = clock.New()
	}
	if e.Config == (Config{}) {
		e.Config = DefaultConfig()
	}
	if err := e.Config.Validate(); err != nil {
		return e, err
	}
	return e, nil
}
