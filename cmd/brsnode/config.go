package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-brs/config"
)

// 环境变量名（均使用 BRS_ 前缀）
const (
	envPrefix           = "BRS_"
	envDataDir          = "DATA_DIR"
	envHTTPListen       = "HTTP_LISTEN"
	envGRPCListen       = "GRPC_LISTEN"
	envMyAddress        = "MY_ADDRESS"
	envWellKnownPeers   = "WELL_KNOWN_PEERS"
	envRebroadcastPeers = "REBROADCAST_PEERS"
)

// ============================================================================
//                              config 子命令
// ============================================================================

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件工具",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "写出默认配置",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s 已存在（使用 --force 覆盖）", path)
			}
			if err := config.NewConfig().SaveFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写出默认配置: %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的文件")

	showCmd := &cobra.Command{
		Use:   "show [path]",
		Short: "输出生效的配置（含环境变量覆盖）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			applyEnvOverrides(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			data, err := cfg.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// loadConfig 加载配置文件，路径为空时返回默认配置
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.NewConfig(), nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv(envPrefix + envDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv(envPrefix + envHTTPListen); v != "" {
		cfg.Server.HTTPListen = v
	}
	if v := os.Getenv(envPrefix + envGRPCListen); v != "" {
		cfg.Server.GRPCListen = v
	}
	if v := os.Getenv(envPrefix + envMyAddress); v != "" {
		cfg.Node.MyAddress = v
	}
	if v := os.Getenv(envPrefix + envWellKnownPeers); v != "" {
		cfg.Peer.WellKnownPeers = splitAndTrim(v, ",")
	}
	if v := os.Getenv(envPrefix + envRebroadcastPeers); v != "" {
		cfg.Peer.RebroadcastPeers = splitAndTrim(v, ",")
	}
}

// splitAndTrim 分割字符串并去除空白
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
