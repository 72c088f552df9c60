package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-brs/pkg/types"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrEmptyKey      = errors.New("storage: empty key")
	ErrClosed        = errors.New("storage: closed")
	ErrInvalidConfig = errors.New("storage: path required unless in-memory")
)

// IsNotFound 报告 err 是否表示键不存在
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClosed 报告 err 是否因数据库已关闭
func IsClosed(err error) bool { return errors.Is(err, ErrClosed) }

// convertError 把 badger 的错误映射到本包
//
// 冲突、写阻塞与事务过大是暂时性的，映射为 types.ErrStorageBusy。
func convertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, badger.ErrEmptyKey):
		return ErrEmptyKey
	case errors.Is(err, badger.ErrDBClosed):
		return ErrClosed
	case errors.Is(err, badger.ErrConflict), errors.Is(err, badger.ErrBlockedWrites), errors.Is(err, badger.ErrTxnTooBig):
		return fmt.Errorf("%w: %v", types.ErrStorageBusy, err)
	}
	return err
}
