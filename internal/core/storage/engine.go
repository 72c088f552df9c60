package storage

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-brs/pkg/lib/log"
)

var logger = log.Logger("core/storage")

// Writer 读写事务中可用的写操作，*badger.Txn 即满足
type Writer interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// Engine 对 BadgerDB 的薄封装
//
// 只暴露注册表需要的操作：按键读写、前缀遍历与批量事务。
type Engine struct {
	db  *badger.DB
	cfg Config

	closed atomic.Bool
	writes atomic.Int64

	stopGC context.CancelFunc
	gcDone sync.WaitGroup
}

// Stats 引擎统计
type Stats struct {
	Writes    int64
	LSMBytes  int64
	VlogBytes int64
}

// Open 打开（或创建）数据库
func Open(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(cfg.Path)
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	default:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, err
		}
		opts = opts.WithSyncWrites(cfg.SyncWrites)
	}

	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, convertError(err)
	}
	logger.Debug("数据库已打开", "path", cfg.Path, "inMemory", cfg.InMemory)
	return &Engine{db: db, cfg: cfg, stopGC: func() {}}, nil
}

// Start 启动值日志回收，内存模式或间隔为 0 时不做任何事
func (e *Engine) Start() error {
	if e.closed.Load() {
		return ErrClosed
	}
	if e.cfg.InMemory || e.cfg.GCInterval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.stopGC = cancel
	e.gcDone.Add(1)
	go e.gcLoop(ctx)
	return nil
}

func (e *Engine) gcLoop(ctx context.Context) {
	defer e.gcDone.Done()

	t := time.NewTicker(e.cfg.GCInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		// 一次 RunValueLogGC 只回收一个文件，循环到无可回收为止
		n := 0
		for !e.closed.Load() && e.db.RunValueLogGC(e.cfg.GCDiscardRatio) == nil {
			n++
		}
		if n > 0 {
			logger.Debug("值日志回收完成", "files", n)
		}
	}
}

// Get 读取 key，不存在时返回 ErrNotFound
func (e *Engine) Get(key []byte) (value []byte, err error) {
	if err := e.check(key); err != nil {
		return nil, err
	}
	err = e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, convertError(err)
}

// Has 报告 key 是否存在
func (e *Engine) Has(key []byte) (bool, error) {
	_, err := e.Get(key)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Put 写入单个键值
func (e *Engine) Put(key, value []byte) error {
	if err := e.check(key); err != nil {
		return err
	}
	return e.Update(func(w Writer) error { return w.Set(key, value) })
}

// Delete 删除单个键
func (e *Engine) Delete(key []byte) error {
	if err := e.check(key); err != nil {
		return err
	}
	return e.Update(func(w Writer) error { return w.Delete(key) })
}

// Update 在一个读写事务里执行 fn，fn 出错则整体回滚
func (e *Engine) Update(fn func(w Writer) error) error {
	if e.closed.Load() {
		return ErrClosed
	}
	err := e.db.Update(func(txn *badger.Txn) error { return fn(txn) })
	if err == nil {
		e.writes.Add(1)
	}
	return convertError(err)
}

// ForEach 按键序遍历 prefix 下的条目，传给 fn 的 key 不含前缀
func (e *Engine) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return convertError(e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(bytes.TrimPrefix(item.KeyCopy(nil), prefix), v); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Stats 返回已提交的写事务数与磁盘占用
func (e *Engine) Stats() Stats {
	lsm, vlog := e.db.Size()
	return Stats{Writes: e.writes.Load(), LSMBytes: lsm, VlogBytes: vlog}
}

// Close 停止回收并关闭数据库，可重复调用
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.stopGC()
	e.gcDone.Wait()
	return convertError(e.db.Close())
}

func (e *Engine) check(key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return nil
}
