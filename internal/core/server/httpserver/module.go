package httpserver

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/internal/core/protocol/handler"
)

// Params HTTP 服务端模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Handler    *handler.Handler
	Gatherer   prometheus.Gatherer `optional:"true"`
}

// Module 返回 HTTP 服务端 Fx 模块
//
// 生命周期:
//   - OnStart: 监听 Listen（未启用时跳过）
//   - OnStop: 优雅关闭
func Module() fx.Option {
	return fx.Module("httpserver",
		fx.Provide(ProvideServer),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideServer 创建服务端
func ProvideServer(p Params) (*Server, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	var opts []Option
	if p.Gatherer != nil {
		opts = append(opts, WithGatherer(p.Gatherer))
	}
	return New(cfg, p.Handler, opts...)
}

func registerLifecycle(lc fx.Lifecycle, s *Server) {
	if !s.cfg.Enabled {
		logger.Info("HTTP 服务未启用")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("正在启动 HTTP 服务", "listen", s.cfg.Listen)
			return s.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("正在关闭 HTTP 服务")
			if err := s.Stop(ctx); err != nil {
				logger.Warn("HTTP 服务关闭失败", "error", err)
				return err
			}
			logger.Info("HTTP 服务已关闭")
			return nil
		},
	})
}
