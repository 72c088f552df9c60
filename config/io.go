package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FromJSON 在默认配置之上叠加 data 中出现的字段
//
//	{
//	  "node": {"platform": "PC"},
//	  "peer": {"connect_timeout": "2s", "well_known_peers": ["1.2.3.4"]},
//	  "server": {"enable_grpc": false}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ToJSON 输出两空格缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// LoadFile 读取、解析并校验配置文件
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置路径
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, ValidateAll(cfg)
}

// SaveFile 写出配置，父目录不存在时一并创建
func (c *Config) SaveFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644) //nolint:gosec // 配置文件不含敏感信息
}
