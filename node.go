package brs

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/fx"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/internal/core/chain"
	"github.com/dep2p/go-brs/internal/core/chainsync"
	"github.com/dep2p/go-brs/internal/core/downloadcache"
	"github.com/dep2p/go-brs/internal/core/metrics"
	"github.com/dep2p/go-brs/internal/core/registry"
	"github.com/dep2p/go-brs/internal/core/server/grpcserver"
	"github.com/dep2p/go-brs/internal/core/server/httpserver"
	"github.com/dep2p/go-brs/pkg/lib/log"
)

var logger = log.Logger("brs")

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int32

const (
	// StateIdle 已创建，未启动
	StateIdle NodeState = iota
	// StateStarting 启动中
	StateStarting
	// StateRunning 运行中
	StateRunning
	// StateStopping 停止中
	StateStopping
	// StateStopped 已停止
	StateStopped
)

// String 返回状态字符串
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              Node 结构
// ════════════════════════════════════════════════════════════════════════════

// Node BRS 节点
//
// 通过 New 或 Start 创建；Stop 之后节点不可再次启动。
type Node struct {
	mu      sync.Mutex
	state   atomic.Int32
	started bool
	closed  bool

	config     *config.Config
	app        *fx.App
	subsystems *subsystems

	chain       *chain.MemoryChain
	cache       *downloadcache.Cache
	registry    *registry.Registry
	downloader  *chainsync.Downloader
	broadcaster *chainsync.Broadcaster
	httpServer  *httpserver.Server
	grpcServer  *grpcserver.Server
	metrics     *metrics.Metrics
}

// New 创建节点（不启动）
func New(opts ...Option) (*Node, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	n := &Node{
		config:     o.config,
		subsystems: newSubsystems(),
	}
	n.app, err = buildFxApp(o, n)
	if err != nil {
		return nil, err
	}
	logger.Debug("节点已创建", "genesis", o.genesis.ID)
	return n, nil
}

// Start 创建并启动节点
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	n, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := n.Start(ctx); err != nil {
		return nil, err
	}
	return n, nil
}

// State 返回节点状态
func (n *Node) State() NodeState {
	return NodeState(n.state.Load())
}

func (n *Node) setState(s NodeState) {
	n.state.Store(int32(s))
}

// IsRunning 节点是否运行中
func (n *Node) IsRunning() bool {
	return n.State() == StateRunning
}

// Config 返回节点配置
func (n *Node) Config() *config.Config {
	return n.config
}

// Subsystems 返回各子系统当前状态
func (n *Node) Subsystems() map[string]SubsystemState {
	return n.subsystems.snapshot()
}
