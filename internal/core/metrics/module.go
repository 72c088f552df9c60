package metrics

import (
	"fmt"
	"regexp"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/pkg/interfaces"
)

var validNamespace = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// Namespace 指标名前缀
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "brs",
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Enabled && !validNamespace.MatchString(c.Namespace) {
		return fmt.Errorf("metrics: invalid namespace %q", c.Namespace)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Peers      interfaces.PeerManager
	Clock      clock.Clock `optional:"true"`
}

// Result Metrics 模块提供的结果
type Result struct {
	fx.Out

	Metrics  *Metrics
	Gatherer prometheus.Gatherer
}

// Module 返回 metrics 的 Fx 模块
//
// 提供:
//   - *Metrics: 指标集合（未启用时为 nil）
//   - prometheus.Gatherer: 采集入口（未启用时为 nil）
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
	)
}

// ProvideMetrics 创建指标并挂接到注册表
func ProvideMetrics(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		logger.Info("指标未启用")
		return Result{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	m := New(cfg, p.Clock)
	if err := m.Attach(p.Peers); err != nil {
		return Result{}, err
	}
	return Result{Metrics: m, Gatherer: m.Gatherer()}, nil
}
