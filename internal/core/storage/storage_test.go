package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-brs/config"
	"github.com/dep2p/go-brs/pkg/types"
)

// testEngine 创建内存模式的测试引擎
func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_CRUD(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.Start())

	require.NoError(t, e.Put([]byte("k"), []byte("v")))
	got, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := e.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.Delete([]byte("k")))
	_, err = e.Get([]byte("k"))
	assert.True(t, IsNotFound(err))

	ok, err = e.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, e.Put(nil, []byte("v")), ErrEmptyKey)

	// 一次 Put 与一次 Delete 各提交一个事务
	assert.Equal(t, int64(2), e.Stats().Writes)
}

func TestEngine_ForEachStripsPrefix(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.Put([]byte("x/b"), []byte("2")))
	require.NoError(t, e.Put([]byte("x/a"), []byte("1")))
	require.NoError(t, e.Put([]byte("y/c"), []byte("3")))

	var keys []string
	require.NoError(t, e.ForEach([]byte("x/"), func(key, value []byte) error {
		keys = append(keys, string(key)+"="+string(value))
		return nil
	}))
	assert.Equal(t, []string{"a=1", "b=2"}, keys)

	stop := errors.New("stop")
	err := e.ForEach([]byte("x/"), func(_, _ []byte) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestEngine_Closed(t *testing.T) {
	e, err := Open(InMemoryConfig())
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.True(t, IsClosed(e.Put([]byte("k"), nil)))
	_, err = e.Get([]byte("k"))
	assert.True(t, IsClosed(err))
	assert.ErrorIs(t, e.Start(), ErrClosed)
}

func TestEngine_Persistent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "brs.db")

	e, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Put([]byte("k"), []byte("v")))
	require.NoError(t, e.Close())

	e, err = Open(cfg)
	require.NoError(t, err)
	defer e.Close()
	got, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = InMemoryConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.5, cfg.GCDiscardRatio)

	unified := config.NewConfig()
	unified.Storage.DataDir = "/var/lib/brs"
	assert.Equal(t, filepath.Join("/var/lib/brs", "brs.db"), ConfigFromUnified(unified).Path)

	unified.Storage.InMemory = true
	assert.True(t, ConfigFromUnified(unified).InMemory)
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))
}

func TestConvertError(t *testing.T) {
	assert.NoError(t, convertError(nil))
	assert.ErrorIs(t, convertError(badger.ErrKeyNotFound), ErrNotFound)
	assert.ErrorIs(t, convertError(badger.ErrConflict), types.ErrStorageBusy)
	assert.ErrorIs(t, convertError(fmt.Errorf("commit: %w", badger.ErrBlockedWrites)), types.ErrStorageBusy)

	other := errors.New("disk on fire")
	assert.Equal(t, other, convertError(other))
}

func TestPeerDB(t *testing.T) {
	db := NewPeerDB(testEngine(t))

	a := types.MustParsePeerAddress("1.2.3.4")
	b := types.MustParsePeerAddress("grpc://5.6.7.8")
	c := types.MustParsePeerAddress("http://[::1]:9000")

	require.NoError(t, db.Add(a, b))
	addrs, err := db.Load()
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.PeerAddress{a, b}, addrs)

	added, removed, err := db.Replace([]types.PeerAddress{b, c})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)

	addrs, err = db.Load()
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.PeerAddress{b, c}, addrs)

	require.NoError(t, db.Delete(b))
	addrs, err = db.Load()
	require.NoError(t, err)
	assert.Equal(t, []types.PeerAddress{c}, addrs)
}

func TestPeerDB_DropsUnparsable(t *testing.T) {
	e := testEngine(t)
	db := NewPeerDB(e)

	require.NoError(t, db.Add(types.MustParsePeerAddress("1.2.3.4")))
	require.NoError(t, e.Put([]byte("p/a/not a host"), nil))

	addrs, err := db.Load()
	require.NoError(t, err)
	assert.Len(t, addrs, 1)

	ok, err := e.Has([]byte("p/a/not a host"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.InMemory = true

	var db *PeerDB
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&db),
	)
	app.RequireStart()

	require.NotNil(t, db)
	require.NoError(t, db.Add(types.MustParsePeerAddress("1.2.3.4")))

	app.RequireStop()
	_, err := db.Load()
	assert.True(t, IsClosed(err))
}
