// Package main 提供 brsnode 命令行入口
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	brs "github.com/dep2p/go-brs"
	"github.com/dep2p/go-brs/pkg/lib/log"
)

var logger = log.Logger("brs/cmd")

// runFlags run 子命令参数
//
// 命令行参数只做运行时覆盖，持久化配置放在 JSON 配置文件中。
type runFlags struct {
	configFile string
	dataDir    string
	inMemory   bool
	logLevel   string
	logFormat  string
	logFile    string
	httpListen string
	grpcListen string
	peers      []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brsnode",
		Short:         "BRS 节点对等层",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd(), newConfigCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), brs.VersionInfo())
		},
	}
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "启动节点",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.configFile, "config", "", "配置文件路径")
	fl.StringVar(&f.dataDir, "data-dir", "", "数据目录（默认: ./data）")
	fl.BoolVar(&f.inMemory, "in-memory", false, "使用内存存储")
	fl.StringVar(&f.logLevel, "log-level", "info", "日志级别 (debug/info/warn/error)")
	fl.StringVar(&f.logFormat, "log-format", "text", "日志格式 (text/json)")
	fl.StringVar(&f.logFile, "log", "", "日志文件路径（默认输出到 stderr）")
	fl.StringVar(&f.httpListen, "http-listen", "", "HTTP 监听地址，覆盖配置文件")
	fl.StringVar(&f.grpcListen, "grpc-listen", "", "gRPC 监听地址，覆盖配置文件")
	fl.StringSliceVar(&f.peers, "peer", nil, "追加知名节点（可重复）")
	return cmd
}

func run(cmd *cobra.Command, f *runFlags) error {
	closeLog, err := setupLogging(f)
	if err != nil {
		return err
	}
	defer closeLog()

	opts, err := buildOptions(cmd, f)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📦 %s\n", brs.VersionInfo())
	logger.Info("启动 BRS 节点", "version", brs.Version, "commit", brs.GitCommit, "buildDate", brs.BuildDate)

	node, err := brs.Start(ctx, opts...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() {
		fmt.Fprintln(out, "\n正在关闭节点...")
		if err := node.Close(); err != nil {
			logger.Warn("关闭节点失败", "error", err)
		}
	}()

	printNodeInfo(out, node)
	fmt.Fprintln(out, "节点已启动，按 Ctrl+C 退出")
	waitForSignal(ctx)
	return nil
}

// buildOptions 构建节点选项
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（BRS_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildOptions(cmd *cobra.Command, f *runFlags) ([]brs.Option, error) {
	cfg, err := loadConfig(f.configFile)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	opts := []brs.Option{brs.WithConfig(cfg)}

	flags := cmd.Flags()
	if flags.Changed("data-dir") && f.dataDir != "" {
		opts = append(opts, brs.WithDataDir(f.dataDir))
	}
	if f.inMemory {
		opts = append(opts, brs.WithInMemoryStorage())
	}
	if flags.Changed("http-listen") {
		opts = append(opts, brs.WithHTTPListen(f.httpListen))
	}
	if flags.Changed("grpc-listen") {
		opts = append(opts, brs.WithGRPCListen(f.grpcListen))
	}
	if len(f.peers) > 0 {
		opts = append(opts, brs.WithWellKnownPeers(f.peers...))
	}
	return opts, nil
}

// setupLogging 按参数重建默认 logger，返回关闭日志文件的函数
func setupLogging(f *runFlags) (func(), error) {
	level, err := log.ParseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if f.logFile != "" {
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // G304: 用户指定的日志路径
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		w = file
		closeFn = func() { _ = file.Close() }
	}
	log.Setup(w, f.logFormat, level)
	return closeFn, nil
}

// printNodeInfo 输出节点信息
func printNodeInfo(w io.Writer, node *brs.Node) {
	cfg := node.Config()
	fmt.Fprintln(w, "═══════════════════════════════════════════════")
	fmt.Fprintf(w, "应用:      %s %s (%s)\n", cfg.Node.Application, cfg.Node.Version, cfg.Node.Platform)
	fmt.Fprintf(w, "链高:      %d\n", node.Height())
	if addr, err := node.HTTPAddr(); err == nil {
		fmt.Fprintf(w, "HTTP:      http://%s/burst\n", addr)
	}
	if addr, err := node.GRPCAddr(); err == nil {
		fmt.Fprintf(w, "gRPC:      grpc://%s\n", addr)
	}
	if cfg.Storage.InMemory {
		fmt.Fprintln(w, "存储:      内存")
	} else {
		fmt.Fprintf(w, "存储:      %s\n", cfg.Storage.DBPath())
	}
	fmt.Fprintf(w, "知名节点:  %d\n", len(cfg.Peer.WellKnownPeers))
	fmt.Fprintln(w, "═══════════════════════════════════════════════")
}

// waitForSignal 等待 SIGINT/SIGTERM 或上下文结束
func waitForSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("收到退出信号", "signal", sig.String())
	case <-ctx.Done():
	}
}
