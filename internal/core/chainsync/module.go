package chainsync

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/internal/core/downloadcache"
	"github.com/dep2p/go-brs/pkg/interfaces"
)

// Params 同步模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg   *config.Config `optional:"true"`
	Peers        interfaces.PeerManager
	Chain        Chain
	Cache        *downloadcache.Cache
	Transactions interfaces.TransactionProcessor `optional:"true"`
	Clock        clock.Clock                     `optional:"true"`
}

// ModuleResult 同步模块提供的结果
type ModuleResult struct {
	fx.Out

	Downloader  *Downloader
	Broadcaster *Broadcaster
}

// Module 返回同步 Fx 模块
//
// 提供:
//   - *Downloader: 区块与交易下载
//   - *Broadcaster: 区块与交易广播
//
// 生命周期（仅在启用时注册）:
//   - OnStart: 启动后台同步循环
//   - OnStop: 停止循环
func Module() fx.Option {
	return fx.Module("chainsync",
		fx.Provide(ProvideSync),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideSync 创建下载器与广播器
func ProvideSync(p Params) (ModuleResult, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	d, err := NewDownloader(Deps{
		Peers:        p.Peers,
		Chain:        p.Chain,
		Cache:        p.Cache,
		Transactions: p.Transactions,
		Clock:        p.Clock,
		Config:       cfg,
	})
	if err != nil {
		return ModuleResult{}, err
	}
	b, err := NewBroadcaster(p.Peers, cfg.SendToPeersLimit)
	if err != nil {
		return ModuleResult{}, err
	}
	return ModuleResult{Downloader: d, Broadcaster: b}, nil
}

func registerLifecycle(lc fx.Lifecycle, d *Downloader) {
	if !d.cfg.Enabled {
		logger.Info("后台同步未启用")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("正在启动后台同步", "interval", d.cfg.Interval)
			return d.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := d.Stop(ctx); err != nil {
				return err
			}
			logger.Info("后台同步已停止")
			return nil
		},
	})
}
