// Package nodetest 组装测试用的服务端后端
//
// Backend 由内存链、下载缓存、真实注册表与处理器组成，
// 供两种传输的服务端测试共用。
package nodetest

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-brs/internal/core/chain"
	"github.com/dep2p/go-brs/internal/core/downloadcache"
	"github.com/dep2p/go-brs/internal/core/peer"
	"github.com/dep2p/go-brs/internal/core/protocol/handler"
	"github.com/dep2p/go-brs/internal/core/registry"
	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/mocks"
	"github.com/dep2p/go-brs/tests/testutil"
)

// Platform 后端公告的平台描述
const Platform = "nodetest"

// Backend 测试后端
type Backend struct {
	Chain    *chain.MemoryChain
	Cache    *downloadcache.Cache
	Registry *registry.Registry
	Handler  *handler.Handler
}

// NewBackend 创建高度为 tip 的后端
func NewBackend(t *testing.T, tip int32) *Backend {
	t.Helper()

	blocks := testutil.NewChain(tip)
	c, err := chain.NewMemoryChain(blocks[0])
	require.NoError(t, err)
	for _, b := range blocks[1:] {
		require.NoError(t, c.PushBlock(b))
	}

	cache, err := downloadcache.New(c, 0)
	require.NoError(t, err)

	cfg := registry.DefaultConfig()
	cfg.Platform = Platform
	reg, err := registry.New(registry.Deps{Cache: cache, Clock: clock.New(), Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	h, err := handler.New(handler.Deps{Peers: reg, Chain: c, Blocks: c, Transactions: c})
	require.NoError(t, err)

	return &Backend{Chain: c, Cache: cache, Registry: reg, Handler: h}
}

// ClientEnv 客户端节点的构造环境，下载缓存中预置 cached 区块
func ClientEnv(cached ...*types.Block) (peer.Env, *mocks.MockRegistry, *mocks.MockDownloadCache) {
	reg := mocks.NewMockRegistry()
	cache := mocks.NewMockDownloadCache()
	for _, b := range cached {
		cache.Add(b)
	}
	return peer.Env{Registry: reg, Cache: cache, Clock: clock.New(), Config: peer.DefaultConfig()}, reg, cache
}
