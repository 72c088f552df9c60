package brs

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/internal/core/chain"
	"github.com/dep2p/go-brs/internal/core/chainsync"
	"github.com/dep2p/go-brs/internal/core/downloadcache"
	"github.com/dep2p/go-brs/internal/core/metrics"
	"github.com/dep2p/go-brs/internal/core/protocol/handler"
	"github.com/dep2p/go-brs/internal/core/registry"
	"github.com/dep2p/go-brs/internal/core/server/grpcserver"
	"github.com/dep2p/go-brs/internal/core/server/httpserver"
	"github.com/dep2p/go-brs/internal/core/storage"
	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var fxLogger = log.Logger("brs/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. storage → chain / downloadcache → registry
//  2. handler → metrics
//  3. httpserver → grpcserver（按配置启用）
//  4. chainsync（按配置启用后台循环）
//
// 带生命周期的子系统包在 subsystem() 中，以便停止时区分
// 「已启动」「已停止」「从未启动」。
func buildFxApp(o *options, n *Node) (*fx.App, error) {
	cfg := o.config

	modules := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),

		// 配置注入
		fx.Supply(cfg),
		fx.Provide(func() clock.Clock { return o.clock }),

		// 存储与链
		n.subsystem("storage", true, storage.Module()),
		fx.Provide(
			provideChain(o.genesis),
			provideDownloadCache,
		),

		// 节点注册表与请求处理
		n.subsystem("registry", true, registry.Module()),
		fx.Provide(providePeerSource),
		handler.Module(),
		metrics.Module(),

		// 入站服务
		n.subsystem("httpserver", cfg.Server.EnableHTTP, httpserver.Module()),
		n.subsystem("grpcserver", cfg.Server.EnableGRPC, grpcserver.Module()),

		// 链同步
		n.subsystem("chainsync", cfg.Sync.Enabled, chainsync.Module()),

		// 取出节点需要持有的组件
		fx.Populate(
			&n.chain,
			&n.cache,
			&n.registry,
			&n.downloader,
			&n.broadcaster,
			&n.httpServer,
			&n.grpcServer,
			&n.metrics,
		),
	}
	modules = append(modules, o.fxOptions...)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		fxLogger.Error("组装节点失败", "error", err)
		return nil, err
	}
	return app, nil
}

// subsystem 包装带生命周期的模块并登记其状态
//
// 标记钩子位于模块自身钩子之后：模块启动成功才记为运行中。
// 未启用的子系统登记为 SubsystemDisabled，停止时直接跳过。
func (n *Node) subsystem(name string, enabled bool, module fx.Option) fx.Option {
	if !enabled {
		n.subsystems.register(name, SubsystemDisabled)
		return module
	}
	n.subsystems.register(name, SubsystemNotStarted)
	return fx.Module("node/"+name,
		module,
		fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					n.subsystems.set(name, SubsystemRunning)
					return nil
				},
				OnStop: func(context.Context) error {
					n.subsystems.set(name, SubsystemStopped)
					return nil
				},
			})
		}),
	)
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件提供者
// ════════════════════════════════════════════════════════════════════════════

type chainResult struct {
	fx.Out

	Chain        *chain.MemoryChain
	Blockchain   interfaces.Blockchain
	Blocks       interfaces.BlockProcessor
	Transactions interfaces.TransactionProcessor
	SyncChain    chainsync.Chain
}

// provideChain 以创世块创建内存链
func provideChain(genesis *types.Block) func() (chainResult, error) {
	return func() (chainResult, error) {
		c, err := chain.NewMemoryChain(genesis)
		if err != nil {
			return chainResult{}, err
		}
		return chainResult{
			Chain:        c,
			Blockchain:   c,
			Blocks:       c,
			Transactions: c,
			SyncChain:    c,
		}, nil
	}
}

// provideDownloadCache 创建下载缓存
func provideDownloadCache(cfg *config.Config, c *chain.MemoryChain) (*downloadcache.Cache, interfaces.DownloadCache, error) {
	cache, err := downloadcache.New(c, cfg.Sync.DownloadCacheCapacity)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}

// providePeerSource 处理器使用注册表作为节点来源
func providePeerSource(r *registry.Registry) handler.PeerSource {
	return r
}
