package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-brs/config"
)

// Params 模块输入
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result 模块输出
type Result struct {
	fx.Out

	Engine *Engine
	PeerDB *PeerDB
	Config Config
}

// Module 存储子系统
//
// 数据库在构造阶段打开，OnStart 启动值日志回收，OnStop 关闭数据库。
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideStorage),
		fx.Invoke(bindLifecycle),
	)
}

// ProvideStorage 打开数据库并构造 PeerDB
func ProvideStorage(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	eng, err := Open(cfg)
	if err != nil {
		logger.Error("打开数据库失败", "path", cfg.Path, "error", err)
		return Result{}, err
	}
	return Result{Engine: eng, PeerDB: NewPeerDB(eng), Config: cfg}, nil
}

func bindLifecycle(lc fx.Lifecycle, eng *Engine) {
	lc.Append(fx.StartStopHook(
		func(context.Context) error {
			return eng.Start()
		},
		func(context.Context) error {
			if err := eng.Close(); err != nil {
				logger.Warn("关闭数据库失败", "error", err)
				return err
			}
			logger.Debug("数据库已关闭")
			return nil
		},
	))
}
