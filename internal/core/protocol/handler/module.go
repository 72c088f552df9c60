package handler

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/pkg/interfaces"
)

// Params Handler 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg   *config.Config `optional:"true"`
	Peers        PeerSource
	Chain        interfaces.Blockchain
	Blocks       interfaces.BlockProcessor
	Transactions interfaces.TransactionProcessor
}

// Module 返回 Handler Fx 模块
//
// 提供:
//   - *Handler: 两种传输共用的入站请求处理器
func Module() fx.Option {
	return fx.Module("handler",
		fx.Provide(ProvideHandler),
	)
}

// ProvideHandler 创建处理器
func ProvideHandler(p Params) (*Handler, error) {
	cfg, err := ConfigFromUnified(p.UnifiedCfg)
	if err != nil {
		logger.Error("处理器配置无效", "error", err)
		return nil, err
	}
	return New(Deps{
		Peers:        p.Peers,
		Chain:        p.Chain,
		Blocks:       p.Blocks,
		Transactions: p.Transactions,
		Config:       cfg,
	})
}
