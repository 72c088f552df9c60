package registry

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/internal/core/storage"
	"github.com/dep2p/go-brs/pkg/interfaces"
)

// Params Registry 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Cache      interfaces.DownloadCache
	PeerDB     *storage.PeerDB `optional:"true"`
	Clock      clock.Clock     `optional:"true"`
}

// Result Registry 模块提供的结果
type Result struct {
	fx.Out

	Registry    *Registry
	PeerManager interfaces.PeerManager
}

// Module 返回 Registry Fx 模块
//
// 提供:
//   - *Registry: 节点注册表
//   - interfaces.PeerManager: 同一实例的接口视图
//
// 生命周期:
//   - OnStart: 载入节点并启动维护循环
//   - OnStop: 停止维护循环、保存节点地址、关闭全部节点
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(ProvideRegistry),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistry 创建注册表
func ProvideRegistry(p Params) (Result, error) {
	cfg, err := ConfigFromUnified(p.UnifiedCfg)
	if err != nil {
		logger.Error("注册表配置无效", "error", err)
		return Result{}, err
	}

	d := Deps{Cache: p.Cache, Clock: p.Clock, Config: cfg}
	if p.PeerDB != nil {
		d.Store = p.PeerDB
	}
	r, err := New(d)
	if err != nil {
		return Result{}, err
	}
	return Result{Registry: r, PeerManager: r}, nil
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, r *Registry) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("正在启动节点注册表")
			return r.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("正在停止节点注册表")
			if err := r.Stop(ctx); err != nil {
				logger.Warn("节点注册表停止失败", "error", err)
				return err
			}
			logger.Info("节点注册表已停止")
			return nil
		},
	})
}
