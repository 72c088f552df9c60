package brs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期常量
// ════════════════════════════════════════════════════════════════════════════

const (
	// startTimeout 启动超时（Fx App Start）
	startTimeout = 30 * time.Second

	// stopTimeout 停止超时
	stopTimeout = 30 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期管理
// ════════════════════════════════════════════════════════════════════════════

// Start 启动节点
//
// 依次启动存储、注册表、入站服务与后台同步。任一子系统启动失败时，
// 已启动的子系统按相反顺序关闭，节点进入 StateStopped。
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}

	n.setState(StateStarting)
	logger.Info("正在启动节点")

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := n.app.Start(startCtx); err != nil {
		// fx 已回滚启动成功的钩子，节点不可再用
		n.closed = true
		n.setState(StateStopped)
		logger.Error("节点启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}

	n.started = true
	n.setState(StateRunning)
	logger.Info("节点启动成功",
		"height", n.chain.Height(),
		"running", n.subsystems.with(SubsystemRunning))
	return nil
}

// Stop 停止节点
//
// 从未启动的节点直接标记为已停止；未启用或未启动的子系统记录为跳过。
// 重复调用返回 nil。
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if !n.started {
		logger.Debug("节点未启动，跳过停止")
		n.setState(StateStopped)
		return nil
	}

	n.setState(StateStopping)
	logger.Info("正在停止节点")

	for _, name := range n.subsystems.with(SubsystemDisabled, SubsystemNotStarted) {
		logger.Debug("子系统未运行，跳过关闭", "subsystem", name)
	}

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs error
	if err := n.app.Stop(stopCtx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("stop failed: %w", err))
	}
	for _, name := range n.subsystems.with(SubsystemRunning) {
		errs = multierr.Append(errs, fmt.Errorf("subsystem %s still running", name))
	}

	n.started = false
	n.setState(StateStopped)
	if errs != nil {
		logger.Warn("节点停止时出现错误", "error", errs)
		return errs
	}
	logger.Info("节点已停止")
	return nil
}

// Close 停止节点（使用默认超时）
func (n *Node) Close() error {
	return n.Stop(context.Background())
}
