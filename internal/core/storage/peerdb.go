package storage

import (
	"github.com/dep2p/go-brs/pkg/types"
)

// peerAddressPrefix 已知节点地址前缀
var peerAddressPrefix = []byte("p/a/")

// PeerDB 已知节点地址的持久化
//
// 每个地址以规范形式（scheme://host:port）作为键存储，值为空。
type PeerDB struct {
	engine *Engine
}

// NewPeerDB 创建 PeerDB
func NewPeerDB(eng *Engine) *PeerDB {
	return &PeerDB{engine: eng}
}

func peerKey(addr types.PeerAddress) []byte {
	return append(append([]byte(nil), peerAddressPrefix...), addr.String()...)
}

// Load 读取全部已保存的地址
//
// 无法解析的条目被跳过并删除。
func (d *PeerDB) Load() ([]types.PeerAddress, error) {
	var (
		addrs []types.PeerAddress
		stale [][]byte
	)
	err := d.engine.ForEach(peerAddressPrefix, func(key, _ []byte) error {
		addr, err := types.ParsePeerAddress(string(key), types.ProtocolHTTP)
		if err != nil {
			stale = append(stale, append(append([]byte(nil), peerAddressPrefix...), key...))
			return nil
		}
		addrs = append(addrs, addr)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(stale) > 0 {
		logger.Debug("删除无法解析的节点地址", "count", len(stale))
		err = d.engine.Update(func(w Writer) error {
			for _, k := range stale {
				if err := w.Delete(k); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return addrs, err
		}
	}
	return addrs, nil
}

// Add 保存地址
func (d *PeerDB) Add(addrs ...types.PeerAddress) error {
	return d.engine.Update(func(w Writer) error {
		for _, a := range addrs {
			if err := w.Set(peerKey(a), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 删除地址
func (d *PeerDB) Delete(addrs ...types.PeerAddress) error {
	return d.engine.Update(func(w Writer) error {
		for _, a := range addrs {
			if err := w.Delete(peerKey(a)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Replace 使已保存的地址集合与 addrs 一致
//
// 在单个事务中删除多余条目并补充缺失条目，返回新增与删除的数量。
func (d *PeerDB) Replace(addrs []types.PeerAddress) (added, removed int, err error) {
	saved, err := d.Load()
	if err != nil {
		return 0, 0, err
	}

	want := types.NewAddressSet(addrs...)
	have := types.NewAddressSet(saved...)

	err = d.engine.Update(func(w Writer) error {
		for _, a := range saved {
			if !want.Contains(a) {
				if err := w.Delete(peerKey(a)); err != nil {
					return err
				}
				removed++
			}
		}
		for _, a := range want.Slice() {
			if !have.Contains(a) {
				if err := w.Set(peerKey(a), nil); err != nil {
					return err
				}
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return added, removed, nil
}
