package brs

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/pkg/types"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 基础配置（为空时使用 config.NewConfig()）
	config *config.Config

	// 覆盖项，在基础配置确定后依次应用
	overrides []func(*config.Config)

	// 创世块
	genesis *types.Block

	// 时钟
	clock clock.Clock

	// 用户自定义 Fx 选项
	fxOptions []fx.Option
}

// newOptions 应用选项并确定最终配置
func newOptions(opts ...Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.config == nil {
		o.config = config.NewConfig()
	}
	for _, apply := range o.overrides {
		apply(o.config)
	}
	if o.genesis == nil {
		o.genesis = DefaultGenesis()
	}
	if o.clock == nil {
		o.clock = clock.New()
	}

	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return o, nil
}

func (o *options) override(fn func(*config.Config)) {
	o.overrides = append(o.overrides, fn)
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用指定配置
//
// 配置在节点内部被持有，调用方之后不应再修改。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidOption)
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              覆盖项
// ════════════════════════════════════════════════════════════════════════════

// WithDataDir 设置数据目录
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return fmt.Errorf("%w: empty data dir", ErrInvalidOption)
		}
		o.override(func(c *config.Config) {
			c.Storage.DataDir = dir
			c.Storage.InMemory = false
		})
		return nil
	}
}

// WithInMemoryStorage 使用内存存储（不落盘）
func WithInMemoryStorage() Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Storage.InMemory = true })
		return nil
	}
}

// WithHTTPListen 启用 HTTP 服务并设置监听地址
func WithHTTPListen(addr string) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) {
			c.Server.EnableHTTP = true
			c.Server.HTTPListen = addr
		})
		return nil
	}
}

// WithGRPCListen 启用 gRPC 服务并设置监听地址
func WithGRPCListen(addr string) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) {
			c.Server.EnableGRPC = true
			c.Server.GRPCListen = addr
		})
		return nil
	}
}

// WithoutServers 关闭全部入站服务
func WithoutServers() Option {
	return func(o *options) error {
		o.override(func(c *config.Config) {
			c.Server.EnableHTTP = false
			c.Server.EnableGRPC = false
		})
		return nil
	}
}

// WithSyncInterval 设置后台同步间隔，0 表示关闭后台同步
func WithSyncInterval(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return fmt.Errorf("%w: negative sync interval", ErrInvalidOption)
		}
		o.override(func(c *config.Config) {
			if d == 0 {
				c.Sync.Enabled = false
				return
			}
			c.Sync.Enabled = true
			c.Sync.Interval = config.Duration(d)
		})
		return nil
	}
}

// WithWellKnownPeers 追加知名节点
func WithWellKnownPeers(addrs ...string) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) {
			c.Peer.WellKnownPeers = append(c.Peer.WellKnownPeers, addrs...)
		})
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              协作者
// ════════════════════════════════════════════════════════════════════════════

// WithGenesis 设置创世块（默认 DefaultGenesis）
func WithGenesis(b *types.Block) Option {
	return func(o *options) error {
		if b == nil || b.ID == 0 {
			return fmt.Errorf("%w: genesis block without id", ErrInvalidOption)
		}
		o.genesis = b
		return nil
	}
}

// WithClock 设置时钟（测试中使用 clock.NewMock）
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidOption)
		}
		o.clock = c
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
